package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hall-matrix-api/internal/models"
)

func newReferenceMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryListBySubjectCodes(t *testing.T) {
	db, mock, cleanup := newReferenceMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "reg_no", "dept", "subject_code"}).
		AddRow("1", "R1", "CSE", "CS101").
		AddRow("2", "R2", "ECE", "MA201")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, reg_no, dept, subject_code FROM students\nWHERE subject_code = ANY($1) ORDER BY subject_code ASC, reg_no ASC")).
		WithArgs(pq.Array([]string{"CS101", "MA201"})).
		WillReturnRows(rows)

	students, err := repo.ListBySubjectCodes(context.Background(), []string{"CS101", "MA201"})
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "R1", students[0].RegNo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListBySubjectCodesEmpty(t *testing.T) {
	db, _, cleanup := newReferenceMock(t)
	defer cleanup()

	students, err := NewStudentRepository(db).ListBySubjectCodes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newReferenceMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "reg_no", "dept", "subject_code"}).
		AddRow("1", "R1", "CSE", "CS101")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.id, s.reg_no, s.dept, s.subject_code\n        FROM students s WHERE 1=1 AND s.dept = $1 ORDER BY s.subject_code ASC, s.reg_no ASC LIMIT 20 OFFSET 0")).
		WithArgs("CSE").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students s WHERE 1=1 AND s.dept = $1")).
		WithArgs("CSE").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Dept: "CSE"})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHallRepositoryList(t *testing.T) {
	db, mock, cleanup := newReferenceMock(t)
	defer cleanup()
	repo := NewHallRepository(db)

	rows := sqlmock.NewRows([]string{"id", "hall_no", "capacity", "block", "columns"}).
		AddRow("h1", "H1", 30, "A", nil).
		AddRow("h2", "H2", 20, "B", 5)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, hall_no, capacity, block, columns FROM halls ORDER BY hall_no ASC")).
		WillReturnRows(rows)

	halls, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, halls, 2)
	assert.Nil(t, halls[0].Columns)
	require.NotNil(t, halls[1].Columns)
	assert.Equal(t, 5, *halls[1].Columns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryList(t *testing.T) {
	db, mock, cleanup := newReferenceMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, name FROM subjects ORDER BY code ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name"}).AddRow("s1", "CS101", "Programming"))

	subjects, err := NewSubjectRepository(db).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Subject{{ID: "s1", Code: "CS101", Name: "Programming"}}, subjects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvigilatorRepositoryList(t *testing.T) {
	db, mock, cleanup := newReferenceMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, dept FROM invigilators ORDER BY name ASC, id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "dept"}).AddRow("i1", "Anita", "CSE"))

	pool, err := NewInvigilatorRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, "Anita", pool[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
