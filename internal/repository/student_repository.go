package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/hall-matrix-api/internal/models"
)

// StudentRepository reads the student roster.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListBySubjectCodes returns every student registered for one of the given subjects.
func (r *StudentRepository) ListBySubjectCodes(ctx context.Context, codes []string) ([]models.Student, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	const query = `SELECT id, reg_no, dept, subject_code FROM students
WHERE subject_code = ANY($1) ORDER BY subject_code ASC, reg_no ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, pq.Array(codes)); err != nil {
		return nil, fmt.Errorf("list students by subject: %w", err)
	}
	return students, nil
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students s"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if len(filter.SubjectCodes) > 0 {
		conditions = append(conditions, fmt.Sprintf("s.subject_code = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(filter.SubjectCodes))
	}
	if filter.Dept != "" {
		conditions = append(conditions, fmt.Sprintf("s.dept = $%d", len(args)+1))
		args = append(args, filter.Dept)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(s.reg_no) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.reg_no, s.dept, s.subject_code
        %s ORDER BY s.subject_code ASC, s.reg_no ASC LIMIT %d OFFSET %d`, base, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}
