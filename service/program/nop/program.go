package nop

import (
	"context"

	"github.com/cogvm/cogvm/model/types"
)

const name = "nop"

// Program completes after a single step without touching memory.
type Program struct{}

// New creates a new nop program.
func New() *Program {
	return &Program{}
}

// Name returns the program name.
func (p *Program) Name() string {
	return name
}

// Step does nothing and completes immediately.
func (p *Program) Step(ctx context.Context, step *types.Step) (types.Outcome, error) {
	return types.OutcomeDone, nil
}
