package process

// Process state constants
const (
	StateReady      = "ready"
	StateRunning    = "running"
	StateWaiting    = "waiting"
	StateTerminated = "terminated"
)

// Priority bounds. Missed real-time deadlines escalate a process into the
// maximum band; escalation never terminates the process.
const (
	MinPriority int32 = 0
	MaxPriority int32 = 100
)
