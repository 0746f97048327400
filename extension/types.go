package extension

import (
	"reflect"

	"github.com/viant/x"
)

// Types registers the Go types of program inputs so that raw submission
// payloads can be converted into typed values before the first step.
type Types struct {
	x.Registry
}

// Register adds a data type to the registry.
func (t *Types) Register(dataType *x.Type) {
	t.Registry.Register(dataType)
}

// Lookup returns a registered data type by name, or nil.
func (t *Types) Lookup(name string) *x.Type {
	return t.Registry.Lookup(name)
}

// RegisterReflect registers a plain reflect type.
func (t *Types) RegisterReflect(rType reflect.Type) {
	if rType == nil {
		return
	}
	t.Registry.Register(x.NewType(rType))
}

// NewTypes creates a new type registry.
func NewTypes(options ...x.RegistryOption) *Types {
	return &Types{Registry: *x.NewRegistry(options...)}
}
