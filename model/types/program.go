package types

import (
	"context"
	"reflect"
)

// Outcome reports what the scheduler should do with a process after one unit
// of work.
type Outcome int

const (
	// OutcomeContinue keeps the process schedulable.
	OutcomeContinue Outcome = iota
	// OutcomeDone terminates the process normally.
	OutcomeDone
)

// Memory is the view of the memory manager handed to a running program. It is
// the only channel through which a unit of work may touch managed storage.
type Memory interface {
	Allocate(tier string, data []byte) (uint64, error)
	Read(addr uint64) ([]byte, error)
	Write(addr uint64, data []byte) error
	Free(addr uint64) bool
	EnableCopyOnWrite(addr uint64) error
}

// Step carries the per-tick execution context of a single process.
type Step struct {
	Tick   uint64
	PID    uint64
	Node   string
	Input  interface{}            // typed input when the program declares one
	Data   map[string]interface{} // scratch state surviving between steps
	Memory Memory
}

// Program is a schedulable unit of work. Step is invoked once per dispatched
// tick and must not block; long work is spread across ticks.
type Program interface {
	Name() string
	Step(ctx context.Context, step *Step) (Outcome, error)
}

// InputTyper is optionally implemented by programs whose input should be
// converted from the raw submission map into a typed struct before the first
// step.
type InputTyper interface {
	InputType() reflect.Type
}
