package cogvm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cogvm/cogvm/progress"
	"github.com/cogvm/cogvm/runtime/process"
	"github.com/cogvm/cogvm/service/dao"
)

// Runtime drives the scheduler across discrete ticks, either manually via
// Tick or on a wall-clock interval via Start.
type Runtime struct {
	service      *Service
	progress     *progress.Progress
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

func newRuntime(service *Service) *Runtime {
	return &Runtime{
		service:    service,
		progress:   &progress.Progress{},
		shutdownCh: make(chan struct{}),
	}
}

// Submit creates a process and admits it to the scheduler, returning the
// assigned pid.
func (r *Runtime) Submit(ctx context.Context, name string, options ...process.Option) (uint64, error) {
	return r.service.scheduler.AddProcess(ctx, process.New(name, options...))
}

// Tick advances the scheduler by one tick.
func (r *Runtime) Tick(ctx context.Context) error {
	return r.service.scheduler.Schedule(progress.WithProgress(ctx, r.progress))
}

// Start runs the tick loop until the context ends or Shutdown is called.
func (r *Runtime) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.service.config.Runtime.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.shutdownCh:
			return nil
		case <-ticker.C:
			if err := r.Tick(ctx); err != nil {
				log.Printf("runtime: tick failed: %v", err)
			}
		}
	}
}

// Shutdown stops the tick loop and the event dispatcher. Safe to call more
// than once.
func (r *Runtime) Shutdown() {
	r.shutdownOnce.Do(func() {
		close(r.shutdownCh)
		r.service.events.Shutdown()
	})
}

// Progress returns the aggregated run counters.
func (r *Runtime) Progress() *progress.Progress {
	return r.progress
}

// Process returns the record for pid: the live scheduler entry when present,
// otherwise the archived terminated record.
func (r *Runtime) Process(ctx context.Context, pid uint64) (*process.Process, error) {
	if proc, ok := r.service.scheduler.Process(pid); ok {
		return proc, nil
	}
	return r.service.archive.Load(ctx, pid)
}

// WaitForProcess polls until the process terminates, returning its archived
// record.
func (r *Runtime) WaitForProcess(ctx context.Context, pid uint64, timeout time.Duration) (*process.Process, error) {
	deadline := time.After(timeout)
	for {
		proc, err := r.service.archive.Load(ctx, pid)
		if err == nil {
			return proc, nil
		}
		if !errors.Is(err, dao.ErrNotFound) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, fmt.Errorf("timed out waiting for process %v", pid)
		case <-time.After(time.Millisecond):
		}
	}
}
