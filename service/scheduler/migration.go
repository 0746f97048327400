package scheduler

import (
	"github.com/cogvm/cogvm/model"
	"github.com/cogvm/cogvm/runtime/process"
)

// TargetSelector chooses the destination node for a process about to be
// migrated. Returning false skips the candidate.
type TargetSelector interface {
	Select(proc *process.Process) (model.NodeID, bool)
}

// RingSelector cycles through a fixed peer list, skipping the node the
// process already sits on. Selection is deterministic given the same call
// sequence.
type RingSelector struct {
	peers []model.NodeID
	next  int
}

func NewRingSelector(peers ...model.NodeID) *RingSelector {
	return &RingSelector{peers: peers}
}

// Select implements TargetSelector.
func (r *RingSelector) Select(proc *process.Process) (model.NodeID, bool) {
	for range r.peers {
		peer := r.peers[r.next%len(r.peers)]
		r.next++
		if peer != proc.Node {
			return peer, true
		}
	}
	return "", false
}

// migrationManager runs the periodic auto-migration pass: when local ready
// occupancy crosses the configured threshold it relocates up to MaxPerPass
// non-real-time candidates, each entering a tick cooldown afterwards.
type migrationManager struct {
	config   MigrationConfig
	selector TargetSelector
	cooldown map[uint64]uint64 // pid -> first tick eligible again
}

func newMigrationManager(config MigrationConfig, selector TargetSelector) *migrationManager {
	if selector == nil {
		selector = NewRingSelector(config.Peers...)
	}
	return &migrationManager{
		config:   config,
		selector: selector,
		cooldown: make(map[uint64]uint64),
	}
}

// eligible reports whether the candidate may migrate at tick.
func (m *migrationManager) eligible(proc *process.Process, tick uint64) bool {
	if proc.Realtime {
		return false
	}
	if until, ok := m.cooldown[proc.PID]; ok {
		if tick < until {
			return false
		}
		delete(m.cooldown, proc.PID)
	}
	return true
}

// pass selects candidates from the ready queue and migrates them through the
// supplied callback. Returns the number migrated.
func (m *migrationManager) pass(tick uint64, occupancy float64, candidates []*process.Process, migrate func(*process.Process, model.NodeID)) int {
	if occupancy <= m.config.LoadThreshold {
		return 0
	}
	moved := 0
	for _, proc := range candidates {
		if moved >= m.config.MaxPerPass {
			break
		}
		if !m.eligible(proc, tick) {
			continue
		}
		target, ok := m.selector.Select(proc)
		if !ok {
			continue
		}
		migrate(proc, target)
		m.cooldown[proc.PID] = tick + m.config.Cooldown
		moved++
	}
	return moved
}
