package process

import "github.com/cogvm/cogvm/model"

// Option customises a process record at submission time.
type Option func(p *Process)

// WithPriority sets the static priority, clamped to the valid band.
func WithPriority(priority int32) Option {
	return func(p *Process) {
		if priority < MinPriority {
			priority = MinPriority
		}
		if priority > MaxPriority {
			priority = MaxPriority
		}
		p.Priority = priority
	}
}

// WithDeadline marks the process real-time with an advisory deadline tick.
func WithDeadline(tick uint64) Option {
	return func(p *Process) {
		p.Realtime = true
		p.Deadline = &tick
	}
}

// WithRealtime marks the process real-time without a deadline.
func WithRealtime() Option {
	return func(p *Process) {
		p.Realtime = true
	}
}

// WithNodeAffinity sets the initial node affinity.
func WithNodeAffinity(node model.NodeID) Option {
	return func(p *Process) {
		p.Node = node
	}
}

// WithProgram sets the program executed one step per dispatched tick.
func WithProgram(name string) Option {
	return func(p *Process) {
		p.Program = name
	}
}

// WithInput sets the raw program input.
func WithInput(input interface{}) Option {
	return func(p *Process) {
		p.Input = input
	}
}
