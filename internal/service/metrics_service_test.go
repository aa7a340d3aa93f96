package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hall-matrix-api/internal/models"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()

	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/allocations/generate", http.StatusCreated, 20*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.ObserveAllocationRun("commit", "ok", 21, nil, time.Second)
	m.ObserveAllocationRun("preview", "ok", 5, nil, time.Second)
	m.ObserveAllocationRun("commit", "CAPACITY_SHORTAGE", 0, map[string]int{models.UnplacedCapacityShortage: 2}, time.Second)
	m.ObserveEvent("delivered")

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.RequestsTotal)
	assert.InDelta(t, 20.0, snap.AverageRequestDurationMs, 0.001)
	assert.Equal(t, 0.5, snap.CacheHitRatio)
	assert.Equal(t, uint64(3), snap.AllocationRuns)
	assert.Equal(t, uint64(1), snap.AllocationFailures)
	assert.Equal(t, uint64(21), snap.StudentsPlaced)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `allocation_runs_total{mode="commit",outcome="CAPACITY_SHORTAGE"} 1`)
	assert.Contains(t, body, `allocation_unplaced_students_total{reason="CAPACITY_SHORTAGE"} 2`)
	assert.Contains(t, body, `allocation_events_total{outcome="delivered"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	m.ObserveAllocationRun("commit", "ok", 1, nil, time.Millisecond)
	assert.Equal(t, models.SystemMetrics{}, m.Snapshot())
}
