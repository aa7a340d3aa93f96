// Package events announces committed allocation plans to downstream consumers.
package events

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/hall-matrix-api/internal/models"
)

// TypeAllocationCommitted is the job type and message type of commit events.
const TypeAllocationCommitted = "allocation.committed"

// HallSeats summarises one hall of a committed plan.
type HallSeats struct {
	HallNo      string `json:"hall_no"`
	Students    int    `json:"students"`
	Invigilator string `json:"invigilator"`
}

// AllocationCommitted is published after a plan replaced the records of a session.
type AllocationCommitted struct {
	Type         string      `json:"type"`
	RunID        string      `json:"run_id"`
	ExamDate     string      `json:"exam_date"`
	Session      string      `json:"session"`
	SubjectCodes []string    `json:"subject_codes"`
	Placed       int         `json:"placed"`
	Halls        []HallSeats `json:"halls"`
	TriggeredBy  string      `json:"triggered_by"`
	RequestID    string      `json:"request_id,omitempty"`
	OccurredAt   time.Time   `json:"occurred_at"`
}

// NewAllocationCommitted builds the event of a committed run.
func NewAllocationCommitted(run models.AllocationRun, records []models.AllocationRecord) AllocationCommitted {
	byHall := make(map[string]*HallSeats)
	var order []string
	for _, rec := range records {
		h, ok := byHall[rec.HallNo]
		if !ok {
			h = &HallSeats{HallNo: rec.HallNo, Invigilator: rec.Invigilator}
			byHall[rec.HallNo] = h
			order = append(order, rec.HallNo)
		}
		h.Students++
	}
	sort.Strings(order)

	halls := make([]HallSeats, 0, len(order))
	for _, no := range order {
		halls = append(halls, *byHall[no])
	}

	var codes []string
	if run.SubjectCodes != "" {
		codes = strings.Split(run.SubjectCodes, ",")
	}
	occurred := run.CreatedAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}

	return AllocationCommitted{
		Type:         TypeAllocationCommitted,
		RunID:        run.ID,
		ExamDate:     run.ExamDate,
		Session:      run.Session,
		SubjectCodes: codes,
		Placed:       run.Placed,
		Halls:        halls,
		TriggeredBy:  run.TriggeredBy,
		RequestID:    run.RequestID,
		OccurredAt:   occurred,
	}
}
