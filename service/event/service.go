// Package event fans runtime lifecycle notifications out to subscribers over
// an in-process queue. Persistence of events is deliberately out of scope;
// delivery lives and dies with the host process.
package event

import (
	"context"
	"log"
	"sync"

	"github.com/cogvm/cogvm/internal/clock"
	"github.com/cogvm/cogvm/internal/idgen"
	"github.com/cogvm/cogvm/service/messaging"
	"github.com/cogvm/cogvm/service/messaging/memory"
)

// Option represents an event service option.
type Option func(*Service)

// WithQueueConfig overrides the backing queue configuration.
func WithQueueConfig(config memory.Config) Option {
	return func(s *Service) {
		s.queueConfig = config
	}
}

// WithQueue overrides the backing queue entirely, ignoring the queue
// configuration.
func WithQueue(queue messaging.Queue[Event]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// Service publishes lifecycle events and dispatches them to the registered
// listener.
type Service struct {
	queue       messaging.Queue[Event]
	queueConfig memory.Config

	mu       sync.Mutex
	cancel   context.CancelFunc
	drained  chan struct{}
	handlers []func(*Event)
}

// New creates an event service backed by an in-memory queue.
func New(options ...Option) *Service {
	ret := &Service{queueConfig: memory.DefaultConfig()}
	for _, opt := range options {
		opt(ret)
	}
	if ret.queue == nil {
		ret.queue = memory.NewQueue[Event](ret.queueConfig)
	}
	return ret
}

// Publish stamps and enqueues an event. Events published before the first
// Subscribe are dropped so producers never stall on an undrained queue.
func (s *Service) Publish(ctx context.Context, event Event) error {
	s.mu.Lock()
	started := s.cancel != nil
	s.mu.Unlock()
	if !started {
		return nil
	}
	if event.ID == "" {
		event.ID = idgen.New()
	}
	event.CreatedAt = clock.Now()
	return s.queue.Publish(ctx, &event)
}

// Subscribe registers a handler and starts the dispatch loop on first use.
// Handlers run sequentially on the dispatch goroutine.
func (s *Service) Subscribe(handler func(*Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.drained = make(chan struct{})
	go s.dispatch(ctx)
}

func (s *Service) dispatch(ctx context.Context) {
	defer close(s.drained)
	for {
		message, err := s.queue.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("event: consume failed: %v", err)
			continue
		}
		if err := message.Ack(); err != nil {
			log.Printf("event: ack failed: %v", err)
		}
		s.mu.Lock()
		handlers := make([]func(*Event), len(s.handlers))
		copy(handlers, s.handlers)
		s.mu.Unlock()
		for _, handler := range handlers {
			handler(message.T())
		}
	}
}

// Shutdown stops the dispatch loop and waits for it to exit.
func (s *Service) Shutdown() {
	s.mu.Lock()
	cancel, drained := s.cancel, s.drained
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-drained
}
