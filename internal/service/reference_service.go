package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hall-matrix-api/internal/allocation"
	"github.com/noah-isme/hall-matrix-api/internal/dto"
	"github.com/noah-isme/hall-matrix-api/internal/models"
	appErrors "github.com/noah-isme/hall-matrix-api/pkg/errors"
)

type studentLister interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

type hallReader interface {
	List(ctx context.Context) ([]models.Hall, error)
}

type subjectReader interface {
	List(ctx context.Context) ([]models.Subject, error)
}

type invigilatorReader interface {
	List(ctx context.Context) ([]models.Invigilator, error)
}

// ReferenceService exposes read-only reference data.
type ReferenceService struct {
	students     studentLister
	halls        hallReader
	subjects     subjectReader
	invigilators invigilatorReader
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewReferenceService constructs a ReferenceService.
func NewReferenceService(students studentLister, halls hallReader, subjects subjectReader, invigilators invigilatorReader, validate *validator.Validate, logger *zap.Logger) *ReferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{
		students:     students,
		halls:        halls,
		subjects:     subjects,
		invigilators: invigilators,
		validator:    validate,
		logger:       logger,
	}
}

// ListStudents returns a page of students.
func (s *ReferenceService) ListStudents(ctx context.Context, q dto.StudentQuery) ([]models.Student, *models.Pagination, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student query")
	}
	filter := models.StudentFilter{
		SubjectCodes: dto.SplitCodes(q.SubjectCode),
		Dept:         q.Dept,
		Search:       q.Search,
		Page:         q.Page,
		PageSize:     q.Limit,
	}
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page, size := normalizePage(q.Page, q.Limit, 20, 100)
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ListHalls returns halls in allocation order.
func (s *ReferenceService) ListHalls(ctx context.Context) ([]models.Hall, error) {
	halls, err := s.halls.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list halls")
	}
	allocation.SortHalls(halls)
	return halls, nil
}

// ListSubjects returns the subject catalog.
func (s *ReferenceService) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// ListInvigilators returns the invigilator pool in assignment order.
func (s *ReferenceService) ListInvigilators(ctx context.Context) ([]models.Invigilator, error) {
	pool, err := s.invigilators.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invigilators")
	}
	allocation.SortInvigilators(pool)
	return pool, nil
}

func normalizePage(page, size, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > max {
		size = def
	}
	return page, size
}
