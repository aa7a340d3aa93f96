package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hall-matrix-api/internal/models"
)

const allocationInsertBatch = 500

// AllocationRepository persists committed seating plans and their run audit rows.
type AllocationRepository struct {
	db *sqlx.DB
}

// NewAllocationRepository constructs an AllocationRepository.
func NewAllocationRepository(db *sqlx.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// SessionKey is the advisory lock key of an exam date and session.
func SessionKey(examDate, session string) string {
	return examDate + "|" + session
}

// ReplaceSession atomically swaps the record set of (run.ExamDate, run.Session) for records
// and stores the run audit row. Nothing is changed when any step fails.
func (r *AllocationRepository) ReplaceSession(ctx context.Context, run *models.AllocationRun, records []models.AllocationRecord) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin allocation tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, SessionKey(run.ExamDate, run.Session)); err != nil {
		return fmt.Errorf("lock allocation session: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM allocation_records WHERE exam_date = $1 AND session = $2`, run.ExamDate, run.Session); err != nil {
		return fmt.Errorf("clear allocation session: %w", err)
	}

	now := time.Now().UTC()
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		rec.RunID = run.ID
		rec.ExamDate = run.ExamDate
		rec.Session = run.Session
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
	}

	const insertRecords = `INSERT INTO allocation_records (id, run_id, subject_code, hall_no, seat_index, reg_no, exam_date, session, invigilator, created_at)
VALUES (:id, :run_id, :subject_code, :hall_no, :seat_index, :reg_no, :exam_date, :session, :invigilator, :created_at)`
	for start := 0; start < len(records); start += allocationInsertBatch {
		end := start + allocationInsertBatch
		if end > len(records) {
			end = len(records)
		}
		if _, err = sqlx.NamedExecContext(ctx, tx, insertRecords, records[start:end]); err != nil {
			return fmt.Errorf("insert allocation records: %w", err)
		}
	}

	const insertRun = `INSERT INTO allocation_runs (id, exam_date, session, subject_codes, triggered_by, request_id, placed, halls_used, warnings, created_at)
VALUES (:id, :exam_date, :session, :subject_codes, :triggered_by, :request_id, :placed, :halls_used, :warnings, :created_at)`
	if _, err = sqlx.NamedExecContext(ctx, tx, insertRun, run); err != nil {
		return fmt.Errorf("insert allocation run: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit allocation tx: %w", err)
	}
	return nil
}

// List returns committed records matching filter ordered by hall and seat.
func (r *AllocationRepository) List(ctx context.Context, filter models.AllocationRecordFilter) ([]models.AllocationRecord, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.ExamDate != "" {
		conditions = append(conditions, fmt.Sprintf("exam_date = $%d", len(args)+1))
		args = append(args, filter.ExamDate)
	}
	if filter.Session != "" {
		conditions = append(conditions, fmt.Sprintf("session = $%d", len(args)+1))
		args = append(args, filter.Session)
	}
	if filter.HallNo != "" {
		conditions = append(conditions, fmt.Sprintf("hall_no = $%d", len(args)+1))
		args = append(args, filter.HallNo)
	}
	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 1000 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, run_id, subject_code, hall_no, seat_index, reg_no, to_char(exam_date, 'YYYY-MM-DD') AS exam_date, session, invigilator, created_at
FROM allocation_records WHERE %s ORDER BY exam_date ASC, session ASC, hall_no ASC, seat_index ASC LIMIT %d OFFSET %d`, where, size, offset)
	var records []models.AllocationRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list allocation records: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM allocation_records WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count allocation records: %w", err)
	}
	return records, total, nil
}

// ListRuns returns run audit rows, newest first.
func (r *AllocationRepository) ListRuns(ctx context.Context, examDate, session string) ([]models.AllocationRun, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if examDate != "" {
		conditions = append(conditions, fmt.Sprintf("exam_date = $%d", len(args)+1))
		args = append(args, examDate)
	}
	if session != "" {
		conditions = append(conditions, fmt.Sprintf("session = $%d", len(args)+1))
		args = append(args, session)
	}
	query := fmt.Sprintf(`SELECT id, to_char(exam_date, 'YYYY-MM-DD') AS exam_date, session, subject_codes, triggered_by, request_id, placed, halls_used, warnings, created_at
FROM allocation_runs WHERE %s ORDER BY created_at DESC LIMIT 50`, strings.Join(conditions, " AND "))
	var runs []models.AllocationRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("list allocation runs: %w", err)
	}
	return runs, nil
}
