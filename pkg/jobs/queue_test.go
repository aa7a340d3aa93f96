package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestQueueDeliversJobs(t *testing.T) {
	var (
		mu        sync.Mutex
		delivered []string
	)
	done := make(chan struct{}, 3)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		delivered = append(delivered, job.ID)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(Job{ID: id, Type: "test"}))
	}
	for i := 0; i < 3; i++ {
		<-done
	}
	require.NoError(t, q.Shutdown(context.Background()))

	assert.ElementsMatch(t, []string{"a", "b", "c"}, delivered)
}

func TestQueueRetriesThenDrops(t *testing.T) {
	var attempts int32
	outcomes := make(chan Outcome, 1)
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("broker down")
	}, QueueConfig{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		Observe:    func(job Job, outcome Outcome) { outcomes <- outcome },
	})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "x"}))
	select {
	case outcome := <-outcomes:
		assert.Equal(t, OutcomeDropped, outcome)
	case <-time.After(2 * time.Second):
		t.Fatal("job never reached a terminal outcome")
	}
	require.NoError(t, q.Shutdown(context.Background()))

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestQueueRejectsAfterShutdown(t *testing.T) {
	q := NewQueue("closed", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})

	err := q.Enqueue(Job{ID: "early"})
	assert.ErrorIs(t, err, ErrQueueClosed)

	q.Start(context.Background())
	require.NoError(t, q.Shutdown(context.Background()))

	err = q.Enqueue(Job{ID: "late"})
	assert.ErrorIs(t, err, ErrQueueClosed)
}
