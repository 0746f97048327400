package scheduler

import (
	"fmt"

	"github.com/cogvm/cogvm/model"
)

// Config represents scheduler configuration.
type Config struct {
	// Capacity bounds the process table.
	Capacity int `json:"capacity" yaml:"capacity"`

	// Policy selects the regular dispatch discipline. Real-time processes
	// always have absolute precedence regardless of the policy.
	Policy model.SchedulingPolicy `json:"-" yaml:"-"`

	// TimeSlice is the number of consecutive ticks a process may run before
	// it is preempted.
	TimeSlice uint64 `json:"timeSlice" yaml:"timeSlice"`

	// PreemptionMargin is how much a queued priority must exceed the running
	// process's priority to force a preemption mid-slice.
	PreemptionMargin int32 `json:"preemptionMargin" yaml:"preemptionMargin"`

	// FairShareWait weights accumulated wait time in fair-share selection.
	FairShareWait float64 `json:"fairShareWait" yaml:"fairShareWait"`

	// DeadlockCheckInterval runs deadlock detection every N ticks; 0 disables
	// the periodic check.
	DeadlockCheckInterval uint64 `json:"deadlockCheckInterval" yaml:"deadlockCheckInterval"`

	Migration MigrationConfig `json:"migration" yaml:"migration"`
}

// MigrationConfig controls the periodic auto-migration pass.
type MigrationConfig struct {
	// Interval runs the pass every N ticks; 0 disables auto-migration.
	Interval uint64 `json:"interval" yaml:"interval"`

	// LoadThreshold is the queue occupancy ratio (queued / capacity) above
	// which the pass migrates candidates away.
	LoadThreshold float64 `json:"loadThreshold" yaml:"loadThreshold"`

	// MaxPerPass bounds candidates migrated per pass.
	MaxPerPass int `json:"maxPerPass" yaml:"maxPerPass"`

	// Cooldown is the number of ticks a migrated process stays ineligible.
	Cooldown uint64 `json:"cooldown" yaml:"cooldown"`

	// Peers lists the node identifiers the default ring selector cycles
	// through.
	Peers []model.NodeID `json:"peers" yaml:"peers"`
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:              256,
		Policy:                model.PolicyPriority,
		TimeSlice:             4,
		PreemptionMargin:      10,
		FairShareWait:         0.5,
		DeadlockCheckInterval: 16,
		Migration: MigrationConfig{
			Interval:      32,
			LoadThreshold: 0.75,
			MaxPerPass:    3,
			Cooldown:      64,
		},
	}
}

// Validate returns an aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("scheduler.capacity must be > 0")
	}
	if c.TimeSlice == 0 {
		return fmt.Errorf("scheduler.timeSlice must be > 0")
	}
	if c.PreemptionMargin < 0 {
		return fmt.Errorf("scheduler.preemptionMargin must be >= 0")
	}
	if c.Migration.LoadThreshold < 0 || c.Migration.LoadThreshold > 1 {
		return fmt.Errorf("scheduler.migration.loadThreshold must be within [0,1]")
	}
	return nil
}
