package idgen

import "github.com/google/uuid"

// New returns a new globally unique identifier as string. Copy-on-write group
// ids, event ids and dump snapshot names come from here; it is a thin wrapper
// so tests can stub it.

var NewFunc = func() string { return uuid.New().String() }

func New() string { return NewFunc() }
