package event

import (
	"time"

	"github.com/cogvm/cogvm/model"
)

// Kind identifies a lifecycle event category.
type Kind string

const (
	ProcessTerminated Kind = "process.terminated"
	ProcessFaulted    Kind = "process.faulted"
	ProcessMigrated   Kind = "process.migrated"
	DeadlineMissed    Kind = "deadline.missed"
	DeadlockDetected  Kind = "deadlock.detected"
	PageEvicted       Kind = "page.evicted"
	PageConsolidated  Kind = "page.consolidated"
	PageCompressed    Kind = "page.compressed"
)

// Event is a runtime lifecycle notification. Only the fields relevant to the
// kind are populated.
type Event struct {
	ID        string       `json:"id"`
	Kind      Kind         `json:"kind"`
	CreatedAt time.Time    `json:"createdAt"`
	Tick      uint64       `json:"tick,omitempty"`
	PID       uint64       `json:"pid,omitempty"`
	Node      model.NodeID `json:"node,omitempty"`
	Pids      []uint64     `json:"pids,omitempty"`
	Addr      uint64       `json:"addr,omitempty"`
	Tier      string       `json:"tier,omitempty"`
	Fault     string       `json:"fault,omitempty"`
}
