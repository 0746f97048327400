package counter

import (
	"context"
	"reflect"

	"github.com/cogvm/cogvm/model/types"
)

const name = "counter"

// Input configures a counting run.
type Input struct {
	Start int `json:"start"`
	Limit int `json:"limit"`
}

// Program counts one increment per dispatched tick until the limit is
// reached. It exists mostly for tests and examples: the scratch Data map
// demonstrates state surviving between steps.
type Program struct{}

// New creates a new counter program.
func New() *Program {
	return &Program{}
}

// Name returns the program name.
func (p *Program) Name() string {
	return name
}

// InputType declares the typed input bound from the submission payload.
func (p *Program) InputType() reflect.Type {
	return reflect.TypeOf(&Input{})
}

// Step advances the counter by one.
func (p *Program) Step(ctx context.Context, step *types.Step) (types.Outcome, error) {
	input, _ := step.Input.(*Input)
	if input == nil {
		input = &Input{Limit: 1}
	}
	value, ok := step.Data["value"].(int)
	if !ok {
		value = input.Start
	}
	value++
	step.Data["value"] = value
	if value >= input.Start+input.Limit {
		return types.OutcomeDone, nil
	}
	return types.OutcomeContinue, nil
}
