package scheduler

// Stats is a point-in-time snapshot of scheduler counters.
type Stats struct {
	Tick              uint64  `json:"tick"`
	Total             int     `json:"total"`
	Ready             int     `json:"ready"`
	Realtime          int     `json:"realtime"`
	Waiting           int     `json:"waiting"`
	Running           *uint64 `json:"running,omitempty"`
	Terminated        uint64  `json:"terminated"`
	CPUUtilization    float64 `json:"cpuUtilization"`
	Throughput        float64 `json:"throughput"`
	MissedDeadlines   uint64  `json:"missedDeadlines"`
	Migrated          uint64  `json:"migrated"`
	DeadlocksDetected uint64  `json:"deadlocksDetected"`
	ContextSwitches   uint64  `json:"contextSwitches"`
	Preemptions       uint64  `json:"preemptions"`
	Dispatches        uint64  `json:"dispatches"`
}

// Stats returns the current counters. CPU utilisation is the share of ticks
// that executed work; throughput is completions per tick.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := Stats{
		Tick:              s.tick,
		Total:             s.table.size(),
		Ready:             s.ready.len(),
		Realtime:          s.rt.len(),
		Waiting:           s.waiting.len(),
		Terminated:        s.table.terminated,
		MissedDeadlines:   s.missedDeadlines,
		Migrated:          s.migrated,
		DeadlocksDetected: s.deadlocks,
		ContextSwitches:   s.contextSwitches,
		Preemptions:       s.preemptions,
		Dispatches:        s.dispatches,
	}
	if s.running != nil {
		pid := s.running.PID
		ret.Running = &pid
	}
	if s.tick > 0 {
		ret.CPUUtilization = float64(s.busyTicks) / float64(s.tick)
		ret.Throughput = float64(s.completed) / float64(s.tick)
	}
	return ret
}
