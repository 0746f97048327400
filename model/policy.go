package model

import "fmt"

// SchedulingPolicy selects how the scheduler picks the next regular process
// from the ready queue. Real-time processes always take precedence regardless
// of the configured policy.
type SchedulingPolicy int

const (
	// PolicyPriority dispatches the highest-priority ready process.
	PolicyPriority SchedulingPolicy = iota
	// PolicyRoundRobin dispatches ready processes in arrival order.
	PolicyRoundRobin
	// PolicyFairShare dispatches the process maximising priority plus an
	// accumulated wait-time bonus, preventing starvation of low priorities.
	PolicyFairShare
)

func (p SchedulingPolicy) String() string {
	switch p {
	case PolicyPriority:
		return "priority"
	case PolicyRoundRobin:
		return "round-robin"
	case PolicyFairShare:
		return "fair-share"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy converts a policy name to its SchedulingPolicy value.
func ParsePolicy(name string) (SchedulingPolicy, error) {
	switch name {
	case "priority", "":
		return PolicyPriority, nil
	case "round-robin", "roundrobin":
		return PolicyRoundRobin, nil
	case "fair-share", "fairshare":
		return PolicyFairShare, nil
	}
	return 0, fmt.Errorf("unknown scheduling policy: %q", name)
}
