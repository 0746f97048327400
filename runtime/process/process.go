package process

import (
	"sync"
	"time"

	"github.com/cogvm/cogvm/internal/clock"
	"github.com/cogvm/cogvm/model"
)

// Process represents a single schedulable unit of work. A live process is in
// exactly one of {ready queue, real-time queue, wait queue, running slot}; a
// terminated process is in none of them.
type Process struct {
	PID       uint64       `json:"pid"`
	Name      string       `json:"name"`
	Program   string       `json:"program"`
	Priority  int32        `json:"priority"`
	State     string       `json:"state"`
	Realtime  bool         `json:"realtime"`
	Deadline  *uint64      `json:"deadline,omitempty"` // in ticks
	Node      model.NodeID `json:"node"`
	CreatedAt time.Time    `json:"createdAt"`

	// Timing counters, maintained by the scheduler on every tick.
	WaitTime    uint64 `json:"waitTime"`
	ExecuteTime uint64 `json:"executeTime"`

	// WaitingFor names the resource this process is blocked on, when waiting.
	WaitingFor string `json:"waitingFor,omitempty"`

	// Fault captures the error that terminated the process, if any. A faulted
	// run is never retried.
	Fault        string     `json:"fault,omitempty"`
	TerminatedAt *time.Time `json:"terminatedAt,omitempty"`

	// Input is the raw submission payload; BoundInput is the typed value the
	// executor produced from it on the first step.
	Input      interface{}            `json:"input,omitempty"`
	BoundInput interface{}            `json:"-"`
	Data       map[string]interface{} `json:"data,omitempty"`

	// SliceUsed counts consecutive running ticks since the last dispatch.
	SliceUsed uint64 `json:"-"`
	// DeadlineMissed marks that the missed-deadline escalation already fired.
	DeadlineMissed bool `json:"deadlineMissed,omitempty"`

	mu sync.RWMutex
}

// New creates a process record. The pid is assigned later by the process
// table on admission.
func New(name string, options ...Option) *Process {
	ret := &Process{
		Name:      name,
		Program:   "nop",
		State:     StateReady,
		Node:      model.LocalNode,
		CreatedAt: clock.Now(),
		Data:      make(map[string]interface{}),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// GetState returns the process state.
func (p *Process) GetState() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.State
}

// SetState updates the process state.
func (p *Process) SetState(state string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.State = state
	if state == StateTerminated {
		now := clock.Now()
		p.TerminatedAt = &now
	}
}

// Terminated reports whether the process has finished, normally or faulted.
func (p *Process) Terminated() bool {
	return p.GetState() == StateTerminated
}

// FailWith terminates the process recording the runtime fault.
func (p *Process) FailWith(err error) {
	p.mu.Lock()
	if err != nil {
		p.Fault = err.Error()
	}
	p.mu.Unlock()
	p.SetState(StateTerminated)
}

// EscalatePriority lifts the process into the maximum priority band. Used on
// missed real-time deadlines; it does not cancel the process.
func (p *Process) EscalatePriority() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Priority = MaxPriority
	p.DeadlineMissed = true
}

// Clone creates a copy of the process record safe to hand to callers. The
// mutex is deliberately not copied.
func (p *Process) Clone() *Process {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := &Process{
		PID:            p.PID,
		Name:           p.Name,
		Program:        p.Program,
		Priority:       p.Priority,
		State:          p.State,
		Realtime:       p.Realtime,
		Deadline:       p.Deadline,
		Node:           p.Node,
		CreatedAt:      p.CreatedAt,
		WaitTime:       p.WaitTime,
		ExecuteTime:    p.ExecuteTime,
		WaitingFor:     p.WaitingFor,
		Fault:          p.Fault,
		TerminatedAt:   p.TerminatedAt,
		Input:          p.Input,
		SliceUsed:      p.SliceUsed,
		DeadlineMissed: p.DeadlineMissed,
	}
	if p.Data != nil {
		out.Data = make(map[string]interface{}, len(p.Data))
		for k, v := range p.Data {
			out.Data[k] = v
		}
	}
	return out
}
