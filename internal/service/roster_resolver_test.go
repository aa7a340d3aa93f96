package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hall-matrix-api/internal/models"
	appErrors "github.com/noah-isme/hall-matrix-api/pkg/errors"
)

func TestRosterResolverDeduplicates(t *testing.T) {
	reader := &fakeStudentReader{students: []models.Student{
		{RegNo: "R2", SubjectCode: "MA201"},
		{RegNo: "R1", SubjectCode: "MA201"},
		{RegNo: "R1", SubjectCode: "CS101"},
		{RegNo: "R3", SubjectCode: "PH110"},
	}}
	resolver := NewRosterResolver(reader, nil)

	roster, err := resolver.Resolve(context.Background(), []string{"CS101", "MA201"}, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), "FN")
	require.NoError(t, err)

	assert.Equal(t, "2026-05-04", roster.ExamDate)
	assert.Equal(t, []models.Student{
		{RegNo: "R1", SubjectCode: "CS101"},
		{RegNo: "R2", SubjectCode: "MA201"},
	}, roster.Students)
	assert.Equal(t, map[string]int{"CS101": 1, "MA201": 1}, roster.PerSubject)
	require.Len(t, roster.Warnings, 1)
	assert.Equal(t, models.WarningDuplicateRegistration, roster.Warnings[0].Code)
	assert.Equal(t, "R1", roster.Warnings[0].RegNo)
}

func TestRosterResolverEmpty(t *testing.T) {
	resolver := NewRosterResolver(&fakeStudentReader{}, nil)

	_, err := resolver.Resolve(context.Background(), []string{"CS404"}, time.Now(), "AN")
	assert.True(t, errors.Is(err, appErrors.ErrNoStudentsFound))
}

func TestRosterResolverReadFailure(t *testing.T) {
	resolver := NewRosterResolver(&fakeStudentReader{err: errors.New("db down")}, nil)

	_, err := resolver.Resolve(context.Background(), []string{"CS101"}, time.Now(), "AN")
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
