package scheduler

import (
	"sort"

	"github.com/cogvm/cogvm/runtime/process"
)

// pidIndexBits is the width of the slot-index part of a pid. The remaining
// high bits carry a monotonic generation counter, so pids are never reused
// even when their table slot is.
const pidIndexBits = 16

type tableSlot struct {
	generation uint64
	proc       *process.Process
}

// processTable is a fixed-slot arena of live process records. A pid encodes
// generation<<pidIndexBits | slotIndex; a stale pid fails the generation
// check on lookup instead of silently resolving to a recycled slot.
type processTable struct {
	capacity   int
	slots      []tableSlot
	free       []int // ascending slot indices
	generation uint64

	totalAdded uint64
	terminated uint64
}

func newProcessTable(capacity int) *processTable {
	t := &processTable{
		capacity: capacity,
		slots:    make([]tableSlot, capacity),
		free:     make([]int, capacity),
	}
	for i := range t.free {
		t.free[i] = i
	}
	return t
}

// add admits a process, assigning it a fresh pid. Fails with
// ErrResourceExhausted when every slot is occupied.
func (t *processTable) add(proc *process.Process) (uint64, error) {
	if len(t.free) == 0 {
		return 0, ErrResourceExhausted
	}
	idx := t.free[0]
	t.free = t.free[1:]
	t.generation++
	pid := t.generation<<pidIndexBits | uint64(idx)
	t.slots[idx] = tableSlot{generation: t.generation, proc: proc}
	proc.PID = pid
	t.totalAdded++
	return pid, nil
}

func (t *processTable) lookup(pid uint64) *process.Process {
	idx := int(pid & (1<<pidIndexBits - 1))
	if idx >= len(t.slots) {
		return nil
	}
	slot := &t.slots[idx]
	if slot.proc == nil || slot.generation != pid>>pidIndexBits {
		return nil
	}
	return slot.proc
}

// remove releases the slot held by pid. The record itself stays valid for
// callers already holding it.
func (t *processTable) remove(pid uint64) bool {
	idx := int(pid & (1<<pidIndexBits - 1))
	if idx >= len(t.slots) {
		return false
	}
	slot := &t.slots[idx]
	if slot.proc == nil || slot.generation != pid>>pidIndexBits {
		return false
	}
	slot.proc = nil
	t.terminated++
	pos := sort.SearchInts(t.free, idx)
	t.free = append(t.free, 0)
	copy(t.free[pos+1:], t.free[pos:])
	t.free[pos] = idx
	return true
}

// pids returns the pids of all live processes in ascending order.
func (t *processTable) pids() []uint64 {
	var ret []uint64
	for i := range t.slots {
		if t.slots[i].proc != nil {
			ret = append(ret, t.slots[i].proc.PID)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

func (t *processTable) size() int {
	return t.capacity - len(t.free)
}
