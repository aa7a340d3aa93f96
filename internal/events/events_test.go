package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/noah-isme/hall-matrix-api/internal/models"
	"github.com/noah-isme/hall-matrix-api/pkg/jobs"
)

type fakeBroker struct {
	mu       sync.Mutex
	failures int
	messages [][]byte
	queues   []string
	sent     chan struct{}
}

func (f *fakeBroker) Publish(ctx context.Context, queue string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("connection refused")
	}
	f.messages = append(f.messages, body)
	f.queues = append(f.queues, queue)
	f.sent <- struct{}{}
	return nil
}

func committedRun() (models.AllocationRun, []models.AllocationRecord) {
	run := models.AllocationRun{
		ID:           "run-1",
		ExamDate:     "2026-05-04",
		Session:      "FN",
		SubjectCodes: "CS101,MA201",
		TriggeredBy:  "admin-1",
		Placed:       3,
		CreatedAt:    time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	records := []models.AllocationRecord{
		{HallNo: "H2", RegNo: "R3", Invigilator: "Ravi"},
		{HallNo: "H1", RegNo: "R1", Invigilator: "Anita"},
		{HallNo: "H1", RegNo: "R2", Invigilator: "Anita"},
	}
	return run, records
}

func TestNewAllocationCommitted(t *testing.T) {
	run, records := committedRun()
	event := NewAllocationCommitted(run, records)

	assert.Equal(t, TypeAllocationCommitted, event.Type)
	assert.Equal(t, []string{"CS101", "MA201"}, event.SubjectCodes)
	assert.Equal(t, []HallSeats{
		{HallNo: "H1", Students: 2, Invigilator: "Anita"},
		{HallNo: "H2", Students: 1, Invigilator: "Ravi"},
	}, event.Halls)
	assert.Equal(t, run.CreatedAt, event.OccurredAt)
}

func TestDispatcherDeliversWithRetry(t *testing.T) {
	defer goleak.VerifyNone(t)

	broker := &fakeBroker{failures: 1, sent: make(chan struct{}, 1)}
	queue := jobs.NewQueue("events", DeliveryHandler(broker, "allocation.committed", time.Second), jobs.QueueConfig{
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})
	queue.Start(context.Background())

	run, records := committedRun()
	require.NoError(t, NewDispatcher(queue).PublishCommitted(run, records))

	select {
	case <-broker.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
	require.NoError(t, queue.Shutdown(context.Background()))

	broker.mu.Lock()
	defer broker.mu.Unlock()
	require.Len(t, broker.messages, 1)
	assert.Equal(t, "allocation.committed", broker.queues[0])

	var decoded AllocationCommitted
	require.NoError(t, json.Unmarshal(broker.messages[0], &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, 3, decoded.Placed)
}

func TestDispatcherQueueClosed(t *testing.T) {
	queue := jobs.NewQueue("events", DeliveryHandler(&fakeBroker{}, "q", 0), jobs.QueueConfig{})
	run, records := committedRun()

	err := NewDispatcher(queue).PublishCommitted(run, records)
	assert.ErrorIs(t, err, jobs.ErrQueueClosed)
}
