// Package memory provides a channel-backed in-process queue. Nacked messages
// are retried up to a limit after a delay, then parked on a dead-letter list.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cogvm/cogvm/internal/idgen"
	"github.com/cogvm/cogvm/service/messaging"
)

// Vendor identifies this implementation.
const Vendor = messaging.Vendor("memory")

// Config controls retry and buffering behaviour.
type Config struct {
	MaxRetries int
	RetryDelay time.Duration
	DeadLetter bool
	Buffer     int
}

// DefaultConfig returns the default queue configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		RetryDelay: 100 * time.Millisecond,
		DeadLetter: true,
		Buffer:     100,
	}
}

// Message implements messaging.Message for the in-memory queue.
type Message[T any] struct {
	id      string
	payload T
	queue   *Queue[T]
	retries int
	mu      sync.Mutex
	settled bool
}

// T returns the payload.
func (m *Message[T]) T() *T {
	return &m.payload
}

// Ack marks the message processed.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settled {
		return fmt.Errorf("message %v already settled", m.id)
	}
	m.settled = true
	return nil
}

// Nack requeues the message after the retry delay, or dead-letters it once
// the retry budget is spent.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settled {
		return fmt.Errorf("message %v already settled", m.id)
	}
	m.settled = true
	m.retries++
	if m.retries <= m.queue.config.MaxRetries {
		retry := &Message[T]{
			id:      m.id,
			payload: m.payload,
			queue:   m.queue,
			retries: m.retries,
		}
		go func() {
			time.Sleep(m.queue.config.RetryDelay)
			m.queue.messages <- retry
		}()
		return nil
	}
	if m.queue.config.DeadLetter {
		m.queue.dlqMu.Lock()
		m.queue.dlq = append(m.queue.dlq, m)
		m.queue.dlqMu.Unlock()
	}
	return nil
}

// Queue is a channel-backed messaging.Queue.
type Queue[T any] struct {
	messages chan *Message[T]
	dlq      []*Message[T]
	dlqMu    sync.Mutex
	config   Config
}

// NewQueue creates an in-memory queue.
func NewQueue[T any](config Config) *Queue[T] {
	if config.Buffer <= 0 {
		config.Buffer = DefaultConfig().Buffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.Buffer),
		config:   config,
	}
}

// Publish enqueues a payload; blocks when the buffer is full until space
// frees up or the context ends.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	msg := &Message[T]{
		id:      idgen.New(),
		payload: *t,
		queue:   q,
	}
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume blocks until a message arrives or the context ends.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the number of buffered messages.
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// DLQSize returns the number of dead-lettered messages.
func (q *Queue[T]) DLQSize() int {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return len(q.dlq)
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
