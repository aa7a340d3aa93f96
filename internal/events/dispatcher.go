package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/hall-matrix-api/internal/models"
	"github.com/noah-isme/hall-matrix-api/pkg/jobs"
)

// Broker delivers a message body to a named queue.
type Broker interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

type jobQueue interface {
	Enqueue(job jobs.Job) error
}

// Dispatcher turns committed runs into queued delivery jobs.
type Dispatcher struct {
	queue jobQueue
}

// NewDispatcher constructs a Dispatcher feeding queue.
func NewDispatcher(queue jobQueue) *Dispatcher {
	return &Dispatcher{queue: queue}
}

// PublishCommitted queues the commit event of run. Delivery happens asynchronously.
func (d *Dispatcher) PublishCommitted(run models.AllocationRun, records []models.AllocationRecord) error {
	event := NewAllocationCommitted(run, records)
	return d.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    TypeAllocationCommitted,
		Payload: event,
	})
}

// DeliveryHandler returns the job handler that publishes queued events through broker.
func DeliveryHandler(broker Broker, queueName string, timeout time.Duration) jobs.Handler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return func(ctx context.Context, job jobs.Job) error {
		body, err := json.Marshal(job.Payload)
		if err != nil {
			return fmt.Errorf("marshal %s event: %w", job.Type, err)
		}
		pubCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return broker.Publish(pubCtx, queueName, body)
	}
}
