package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hall-matrix-api/internal/models"
	appErrors "github.com/noah-isme/hall-matrix-api/pkg/errors"
)

type rosterStudentReader interface {
	ListBySubjectCodes(ctx context.Context, codes []string) ([]models.Student, error)
}

// Roster is the deduplicated set of students sitting one exam session.
type Roster struct {
	ExamDate   string
	Session    string
	Students   []models.Student
	PerSubject map[string]int
	Warnings   []models.AllocationWarning
}

// RosterResolver selects the students examined in a session.
type RosterResolver struct {
	students rosterStudentReader
	logger   *zap.Logger
}

// NewRosterResolver constructs a RosterResolver.
func NewRosterResolver(students rosterStudentReader, logger *zap.Logger) *RosterResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterResolver{students: students, logger: logger}
}

// Resolve reads the students of subjectCodes and keeps one registration per reg no. When a
// reg no appears under several subjects the lowest subject code wins and the rest are
// reported as DUPLICATE_REGISTRATION warnings.
func (r *RosterResolver) Resolve(ctx context.Context, subjectCodes []string, examDate time.Time, session string) (*Roster, error) {
	wanted := make(map[string]struct{}, len(subjectCodes))
	for _, code := range subjectCodes {
		wanted[code] = struct{}{}
	}

	students, err := r.students.ListBySubjectCodes(ctx, subjectCodes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student roster")
	}

	filtered := make([]models.Student, 0, len(students))
	for _, st := range students {
		if _, ok := wanted[st.SubjectCode]; ok {
			filtered = append(filtered, st)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].RegNo != filtered[j].RegNo {
			return filtered[i].RegNo < filtered[j].RegNo
		}
		return filtered[i].SubjectCode < filtered[j].SubjectCode
	})

	roster := &Roster{
		ExamDate:   examDate.Format(models.ExamDateLayout),
		Session:    session,
		Students:   make([]models.Student, 0, len(filtered)),
		PerSubject: make(map[string]int),
	}
	for i, st := range filtered {
		if i > 0 && filtered[i-1].RegNo == st.RegNo {
			kept := roster.Students[len(roster.Students)-1]
			roster.Warnings = append(roster.Warnings, models.AllocationWarning{
				Code:    models.WarningDuplicateRegistration,
				Message: fmt.Sprintf("student %s is registered for %s and %s in the same session; seated for %s", st.RegNo, kept.SubjectCode, st.SubjectCode, kept.SubjectCode),
				RegNo:   st.RegNo,
			})
			continue
		}
		roster.Students = append(roster.Students, st)
		roster.PerSubject[st.SubjectCode]++
	}

	if len(roster.Students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoStudentsFound, fmt.Sprintf("no students registered for %s", strings.Join(subjectCodes, ", ")))
	}

	r.logger.Debug("roster resolved",
		zap.String("exam_date", roster.ExamDate),
		zap.String("session", session),
		zap.Int("students", len(roster.Students)),
		zap.Int("duplicates", len(roster.Warnings)),
	)
	return roster, nil
}
