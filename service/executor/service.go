// Package executor runs one unit of work of a dispatched process per tick.
// The service resolves the process program from the extension registry,
// converts the raw submission input into the program's typed input on the
// first step and, after the user-supplied step runs, calls an optional
// listener that can observe the data that flew through the step.
package executor

import (
	"context"
	"fmt"
	"reflect"

	"github.com/cogvm/cogvm/extension"
	"github.com/cogvm/cogvm/model/types"
	"github.com/cogvm/cogvm/runtime/process"
	"github.com/viant/structology/conv"
)

// Listener is invoked once a step completes, regardless of whether it
// returned an error. Implementations can log, collect metrics or perform any
// other side-effects they require.
type Listener func(proc *process.Process, step *types.Step, outcome types.Outcome, err error)

// Option customises the executor instance.
type Option func(*service)

// WithListener overrides the listener invoked after every executed step.
// Passing nil disables the callback entirely.
func WithListener(l Listener) Option {
	return func(s *service) {
		s.listener = l
	}
}

// WithMemory sets the memory view handed to program steps.
func WithMemory(memory types.Memory) Option {
	return func(s *service) {
		s.memory = memory
	}
}

// Service executes one unit of work of a process.
type Service interface {
	Execute(ctx context.Context, proc *process.Process, tick uint64) (types.Outcome, error)
}

type service struct {
	programs  *extension.Programs
	converter *conv.Converter
	memory    types.Memory
	listener  Listener
}

// Execute runs exactly one step of the process program. A panic inside the
// step is captured and surfaced as an error so a misbehaving program can only
// terminate itself.
func (s *service) Execute(ctx context.Context, proc *process.Process, tick uint64) (outcome types.Outcome, err error) {
	program := s.programs.Lookup(proc.Program)
	if program == nil {
		return types.OutcomeContinue, fmt.Errorf("%w: %v", ErrProgramNotFound, proc.Program)
	}
	if err := s.ensureInput(proc, program); err != nil {
		return types.OutcomeContinue, err
	}
	step := &types.Step{
		Tick:   tick,
		PID:    proc.PID,
		Node:   string(proc.Node),
		Input:  proc.BoundInput,
		Data:   proc.Data,
		Memory: s.memory,
	}
	defer func() {
		if r := recover(); r != nil {
			outcome = types.OutcomeContinue
			err = fmt.Errorf("program %v panicked: %v", proc.Program, r)
		}
		if s.listener != nil {
			s.listener(proc, step, outcome, err)
		}
	}()
	outcome, err = program.Step(ctx, step)
	return outcome, err
}

// ensureInput converts the raw submission payload into the program's typed
// input once, on the first step.
func (s *service) ensureInput(proc *process.Process, program types.Program) error {
	if proc.BoundInput != nil || proc.Input == nil {
		return nil
	}
	typer, ok := program.(types.InputTyper)
	if !ok {
		proc.BoundInput = proc.Input
		return nil
	}
	rType := typer.InputType()
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	instance := reflect.New(rType).Interface()
	if err := s.converter.Convert(proc.Input, instance); err != nil {
		return fmt.Errorf("failed to convert input for program %v: %w", program.Name(), err)
	}
	proc.BoundInput = instance
	return nil
}

// NewService creates a new executor service instance.
func NewService(programs *extension.Programs, opts ...Option) Service {
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true

	s := &service{
		programs:  programs,
		converter: conv.NewConverter(options),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}
