package executor

import "errors"

var (
	// ErrProgramNotFound is returned when a process names a program absent
	// from the registry.
	ErrProgramNotFound = errors.New("program not found in registry")
)
