package memory

import (
	"sort"

	"github.com/cogvm/cogvm/model"
)

// Virtual address layout: generation<<16 | arena index. The generation
// counter increases on every insert, so an address is never reused while the
// manager lives and a stale address can never resolve to a recycled entry.
const (
	addrIndexBits = 16
	addrIndexMask = (1 << addrIndexBits) - 1
)

// Entry is a live page table entry: one per virtual address, owned
// exclusively by the page table.
type Entry struct {
	Addr   uint64     `json:"addr"`
	Tier   model.Tier `json:"tier"`
	Slot   int        `json:"slot"`
	Length int        `json:"length"`
	Group  string     `json:"group,omitempty"` // copy-on-write group id
	Meta   Metadata   `json:"meta"`
}

type tableSlot struct {
	generation uint64
	entry      *Entry
}

// pageTable maps virtual addresses to (tier, slot, metadata) through a
// generation-checked arena of entry slots.
type pageTable struct {
	slots      []tableSlot
	free       []int
	generation uint64
}

func newPageTable() *pageTable {
	return &pageTable{}
}

// insert registers an entry and assigns its fresh virtual address.
func (t *pageTable) insert(entry *Entry) uint64 {
	t.generation++
	var index int
	if n := len(t.free); n > 0 {
		index = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		index = len(t.slots)
		t.slots = append(t.slots, tableSlot{})
	}
	addr := t.generation<<addrIndexBits | uint64(index)
	entry.Addr = addr
	t.slots[index] = tableSlot{generation: t.generation, entry: entry}
	return addr
}

// resolve returns the live entry for an address, or false on a page fault.
func (t *pageTable) resolve(addr uint64) (*Entry, bool) {
	index := int(addr & addrIndexMask)
	if index >= len(t.slots) {
		return nil, false
	}
	slot := &t.slots[index]
	if slot.entry == nil || slot.generation != addr>>addrIndexBits {
		return nil, false
	}
	return slot.entry, true
}

// remove drops the entry for an address. The physical slot is not touched.
func (t *pageTable) remove(addr uint64) bool {
	index := int(addr & addrIndexMask)
	if index >= len(t.slots) {
		return false
	}
	slot := &t.slots[index]
	if slot.entry == nil || slot.generation != addr>>addrIndexBits {
		return false
	}
	slot.entry = nil
	t.free = append(t.free, index)
	return true
}

// addresses returns all live virtual addresses in ascending order.
func (t *pageTable) addresses() []uint64 {
	out := make([]uint64, 0, len(t.slots))
	for i := range t.slots {
		if t.slots[i].entry != nil {
			out = append(out, t.slots[i].entry.Addr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// entriesInTier returns the live entries of a tier, ordered by physical slot.
func (t *pageTable) entriesInTier(tier model.Tier) []*Entry {
	var out []*Entry
	for i := range t.slots {
		if e := t.slots[i].entry; e != nil && e.Tier == tier {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// entriesForSlot returns every entry aliasing a physical slot.
func (t *pageTable) entriesForSlot(tier model.Tier, slot int) []*Entry {
	var out []*Entry
	for i := range t.slots {
		if e := t.slots[i].entry; e != nil && e.Tier == tier && e.Slot == slot {
			out = append(out, e)
		}
	}
	return out
}

// size returns the number of live entries.
func (t *pageTable) size() int {
	return len(t.slots) - len(t.free)
}
