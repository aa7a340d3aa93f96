package dto

import (
	"encoding/json"
	"strings"

	"github.com/noah-isme/hall-matrix-api/internal/models"
)

// Allocation modes reported in responses.
const (
	AllocationModeCommit  = "commit"
	AllocationModePreview = "preview"
)

// CodeList accepts either a JSON array of subject codes or a single comma separated string.
// Entries are split on commas, trimmed and emptied entries dropped.
type CodeList []string

// UnmarshalJSON implements json.Unmarshaler.
func (c *CodeList) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		var single string
		if errString := json.Unmarshal(data, &single); errString != nil {
			return err
		}
		raw = []string{single}
	}
	*c = SplitCodes(raw...)
	return nil
}

// SplitCodes flattens comma separated values into trimmed, non-empty codes in input order.
func SplitCodes(values ...string) []string {
	codes := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				codes = append(codes, trimmed)
			}
		}
	}
	return codes
}

// GenerateAllocationRequest triggers an allocation run for one exam date and session.
type GenerateAllocationRequest struct {
	SubjectCodes CodeList `json:"subjectCodes" validate:"required,min=1,max=50,dive,required,max=32"`
	ExamDate     string   `json:"examDate" validate:"required,datetime=2006-01-02"`
	Session      string   `json:"session" validate:"required,max=32"`
	DryRun       bool     `json:"dryRun"`
}

// HallSummary describes how one hall is used by a plan.
type HallSummary struct {
	HallNo       string `json:"hallNo" yaml:"hall_no"`
	Block        string `json:"block" yaml:"block"`
	Capacity     int    `json:"capacity" yaml:"capacity"`
	Occupied     int    `json:"occupied" yaml:"occupied"`
	Invigilators string `json:"invigilators" yaml:"invigilators"`
}

// AllocationSummary aggregates a plan for quick inspection.
type AllocationSummary struct {
	Students   int            `json:"students" yaml:"students"`
	Placed     int            `json:"placed" yaml:"placed"`
	Unplaced   int            `json:"unplaced" yaml:"unplaced"`
	HallsUsed  int            `json:"hallsUsed" yaml:"halls_used"`
	PerSubject map[string]int `json:"perSubject" yaml:"per_subject"`
	Halls      []HallSummary  `json:"halls" yaml:"halls"`
}

// GenerateAllocationResponse is returned for successful runs and previews.
type GenerateAllocationResponse struct {
	Mode     string                     `json:"mode"`
	Run      *models.AllocationRun      `json:"run,omitempty"`
	Records  []models.AllocationRecord  `json:"records"`
	Seats    []models.SeatAssignment    `json:"seats"`
	Warnings []models.AllocationWarning `json:"warnings"`
	Summary  AllocationSummary          `json:"summary"`
}

// AllocationFailureDetails is attached to CAPACITY_SHORTAGE and ADJACENCY_UNSATISFIABLE errors.
type AllocationFailureDetails struct {
	Unplaced []models.UnplacedStudent `json:"unplaced"`
	Reasons  map[string]int           `json:"reasons"`
	Summary  AllocationSummary        `json:"summary"`
}

// AllocationQuery filters committed records.
type AllocationQuery struct {
	ExamDate string `form:"examDate" validate:"omitempty,datetime=2006-01-02"`
	Session  string `form:"session" validate:"omitempty,max=32"`
	HallNo   string `form:"hallNo" validate:"omitempty,max=32"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=1000"`
	Format   string `form:"format" validate:"omitempty,oneof=json csv"`
}

// AllocationRunQuery filters run audit rows.
type AllocationRunQuery struct {
	ExamDate string `form:"examDate" validate:"omitempty,datetime=2006-01-02"`
	Session  string `form:"session" validate:"omitempty,max=32"`
}

// StudentQuery filters the roster listing.
type StudentQuery struct {
	SubjectCode string `form:"subjectCode"`
	Dept        string `form:"dept" validate:"omitempty,max=64"`
	Search      string `form:"search" validate:"omitempty,max=64"`
	Page        int    `form:"page" validate:"omitempty,min=1"`
	Limit       int    `form:"limit" validate:"omitempty,min=1,max=100"`
}
