package rehearse

import (
	"context"
	"reflect"

	"github.com/cogvm/cogvm/model/types"
)

const name = "rehearse"

// Input configures a rehearsal run.
type Input struct {
	Payload string `json:"payload"`
	Ticks   int    `json:"ticks"`
}

// Program allocates a working-tier page on its first step, re-reads it on
// every following step and frees it on completion. Repeated reads raise the
// page's access count, feeding the consolidation qualification path; the
// program doubles as an end-to-end exercise of the scheduler to memory
// coupling.
type Program struct{}

// New creates a new rehearse program.
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

// Step allocates on the first tick, re-reads until the configured tick count
// is reached, then frees the page and completes.
func (p *Program) Step(ctx context.Context, step *types.Step) (types.Outcome, error) {
	input, _ := step.Input.(*Input)
	if input == nil {
		input = &Input{Payload: "rehearsal", Ticks: 3}
	}
	if step.Memory == nil {
		return types.OutcomeDone, nil
	}
	addr, ok := step.Data["addr"].(uint64)
	if !ok {
		allocated, err := step.Memory.Allocate("working", []byte(input.Payload))
		if err != nil {
			return types.OutcomeContinue, err
		}
		step.Data["addr"] = allocated
		step.Data["remaining"] = input.Ticks
		return types.OutcomeContinue, nil
	}
	if _, err := step.Memory.Read(addr); err != nil {
		return types.OutcomeContinue, err
	}
	remaining, _ := step.Data["remaining"].(int)
	remaining--
	step.Data["remaining"] = remaining
	if remaining > 0 {
		return types.OutcomeContinue, nil
	}
	step.Memory.Free(addr)
	delete(step.Data, "addr")
	return types.OutcomeDone, nil
}
