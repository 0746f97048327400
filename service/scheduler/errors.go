package scheduler

import "errors"

// Sentinel errors returned by the scheduler. Callers detect conditions via
// errors.Is rather than string comparison.
var (
	// ErrResourceExhausted is returned when the process table is at capacity.
	ErrResourceExhausted = errors.New("scheduler: process table at capacity")

	// ErrProcessNotFound is returned for operations referencing an unknown or
	// already terminated pid.
	ErrProcessNotFound = errors.New("scheduler: process not found")

	// ErrNotWaiting is returned when unblocking a process that is not in the
	// wait queue.
	ErrNotWaiting = errors.New("scheduler: process is not waiting")

	// ErrAdmissionDenied is returned when the context policy refuses the
	// submission.
	ErrAdmissionDenied = errors.New("scheduler: admission denied by policy")
)
