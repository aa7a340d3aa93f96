package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPBroker publishes persistent JSON messages to a durable queue on the default exchange.
// The connection is opened lazily and reopened after failures.
type AMQPBroker struct {
	url    string
	logger *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
	// declared tracks queues declared on the current channel.
	declared map[string]bool
}

// NewAMQPBroker constructs a broker for url.
func NewAMQPBroker(url string, logger *zap.Logger) *AMQPBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AMQPBroker{url: url, logger: logger}
}

// Publish sends body to queue.
func (b *AMQPBroker) Publish(ctx context.Context, queue string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureChannel(); err != nil {
		return err
	}
	if !b.declared[queue] {
		if _, err := b.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			b.resetLocked()
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		b.declared[queue] = true
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := b.ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		b.resetLocked()
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

// Close shuts the channel and connection.
func (b *AMQPBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var err error
	if b.ch != nil {
		err = b.ch.Close()
	}
	if b.conn != nil {
		if cerr := b.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	b.ch, b.conn, b.declared = nil, nil, nil
	return err
}

func (b *AMQPBroker) ensureChannel() error {
	if b.ch != nil && !b.ch.IsClosed() {
		return nil
	}
	b.resetLocked()

	conn, err := amqp.Dial(b.url)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open amqp channel: %w", err)
	}
	b.conn, b.ch, b.declared = conn, ch, make(map[string]bool)
	b.logger.Info("amqp channel opened")
	return nil
}

func (b *AMQPBroker) resetLocked() {
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		_ = b.conn.Close()
	}
	b.ch, b.conn, b.declared = nil, nil, nil
}
