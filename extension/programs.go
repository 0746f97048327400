package extension

import (
	"sync"

	"github.com/cogvm/cogvm/model/types"
	"github.com/viant/x"
)

// Programs is the registry of schedulable programs. A process names its
// program at submission time; the executor resolves it here on every step.
type Programs struct {
	types    *Types
	programs map[string]types.Program
	mux      sync.RWMutex
}

// Types returns the program input type registry.
func (p *Programs) Types() *Types {
	return p.types
}

// Lookup returns a program by name, or nil.
func (p *Programs) Lookup(name string) types.Program {
	p.mux.RLock()
	defer p.mux.RUnlock()
	return p.programs[name]
}

// Register registers a program. Programs declaring a typed input have the
// input type registered alongside.
func (p *Programs) Register(program types.Program) {
	p.mux.Lock()
	defer p.mux.Unlock()
	if typer, ok := program.(types.InputTyper); ok {
		p.types.RegisterReflect(typer.InputType())
	}
	p.programs[program.Name()] = program
}

// Names returns the registered program names.
func (p *Programs) Names() []string {
	p.mux.RLock()
	defer p.mux.RUnlock()
	out := make([]string, 0, len(p.programs))
	for name := range p.programs {
		out = append(out, name)
	}
	return out
}

// NewPrograms creates a new program registry.
func NewPrograms(goTypes ...*x.Type) *Programs {
	ret := &Programs{
		types:    NewTypes(),
		programs: make(map[string]types.Program),
	}
	for _, t := range goTypes {
		if t != nil {
			ret.types.Register(t)
		}
	}
	return ret
}
