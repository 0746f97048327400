package types

import "fmt"

func NewProgramNotFoundError(name string) error {
	return fmt.Errorf("program %v not found", name)
}

func NewInvalidInputError(in interface{}) error {
	return fmt.Errorf("invalid input %T", in)
}
