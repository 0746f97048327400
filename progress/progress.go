package progress

import (
	"context"
	"sync"
	"time"
)

// Delta represents an incremental counter change emitted by the scheduler or
// the memory manager. The fields are signed and therefore can be either
// positive (increment) or negative (decrement).
type Delta struct {
	Ticks          int
	Dispatches     int
	Preemptions    int
	Completed      int
	Faulted        int
	Evictions      int
	Consolidations int
}

// Progress keeps aggregated counters for one scheduler run. It is safe for
// concurrent use.
type Progress struct {
	// Identification – informative only, filled when the run starts.
	Node      string
	StartedAt time.Time

	// Counters – modified via Update().
	Ticks          int
	Dispatches     int
	Preemptions    int
	Completed      int
	Faulted        int
	Evictions      int
	Consolidations int

	sync.Mutex
	onChange func(Progress)
}

// Update applies the supplied delta to the tracker. If an onChange callback
// has been registered it is invoked with a copy of the updated tracker
// outside the critical section so that the callback can perform slow
// operations (e.g. JSON encoding, I/O) without blocking engine internals.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}

	p.Lock()
	p.Ticks += d.Ticks
	p.Dispatches += d.Dispatches
	p.Preemptions += d.Preemptions
	p.Completed += d.Completed
	p.Faulted += d.Faulted
	p.Evictions += d.Evictions
	p.Consolidations += d.Consolidations
	callback := p.onChange
	snapshot := p.snapshotLocked()
	p.Unlock()

	if callback != nil {
		callback(snapshot)
	}
}

// OnChange registers a callback invoked after every Update.
func (p *Progress) OnChange(fn func(Progress)) {
	p.Lock()
	p.onChange = fn
	p.Unlock()
}

// Snapshot returns a copy of the tracker safe to read without locking.
func (p *Progress) Snapshot() Progress {
	p.Lock()
	defer p.Unlock()
	return p.snapshotLocked()
}

func (p *Progress) snapshotLocked() Progress {
	return Progress{
		Node:           p.Node,
		StartedAt:      p.StartedAt,
		Ticks:          p.Ticks,
		Dispatches:     p.Dispatches,
		Preemptions:    p.Preemptions,
		Completed:      p.Completed,
		Faulted:        p.Faulted,
		Evictions:      p.Evictions,
		Consolidations: p.Consolidations,
	}
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithProgress embeds the tracker in ctx.
func WithProgress(ctx context.Context, p *Progress) context.Context {
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the tracker when present.
func FromContext(ctx context.Context) *Progress {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Progress); ok {
		return v
	}
	return nil
}
