package memory

import (
	"sort"

	"github.com/cogvm/cogvm/model"
)

// pageStore owns the physical slots of every tier: a flat byte array of
// fixed-width slots plus a free-slot list per tier. Slots are referenced by
// index; ownership of the mapping lives in the page table.
type pageStore struct {
	slotSize int
	tiers    [5]*tierStore
}

type tierStore struct {
	capacity int
	data     []byte
	length   []int
	occupied []bool
	// free holds available slot indices in ascending order so allocation
	// order is reproducible.
	free []int
}

func newPageStore(cfg *Config) *pageStore {
	ret := &pageStore{slotSize: cfg.SlotSize}
	for _, tier := range model.Tiers() {
		capacity := cfg.TierCapacity(tier)
		ts := &tierStore{
			capacity: capacity,
			data:     make([]byte, capacity*cfg.SlotSize),
			length:   make([]int, capacity),
			occupied: make([]bool, capacity),
			free:     make([]int, capacity),
		}
		for i := 0; i < capacity; i++ {
			ts.free[i] = i
		}
		ret.tiers[tier] = ts
	}
	return ret
}

func (s *pageStore) tier(t model.Tier) *tierStore {
	return s.tiers[t]
}

// alloc pops the lowest free slot index of the tier.
func (s *pageStore) alloc(t model.Tier) (int, bool) {
	ts := s.tier(t)
	if len(ts.free) == 0 {
		return 0, false
	}
	slot := ts.free[0]
	ts.free = ts.free[1:]
	ts.occupied[slot] = true
	return slot, true
}

// freeSlot clears a slot and returns it to the tier's free list, keeping the
// list sorted.
func (s *pageStore) freeSlot(t model.Tier, slot int) {
	ts := s.tier(t)
	if slot < 0 || slot >= ts.capacity || !ts.occupied[slot] {
		return
	}
	offset := slot * s.slotSize
	for i := offset; i < offset+s.slotSize; i++ {
		ts.data[i] = 0
	}
	ts.length[slot] = 0
	ts.occupied[slot] = false
	at := sort.SearchInts(ts.free, slot)
	ts.free = append(ts.free, 0)
	copy(ts.free[at+1:], ts.free[at:])
	ts.free[at] = slot
}

// write stores data into a slot. The payload must fit the fixed slot width.
func (s *pageStore) write(t model.Tier, slot int, data []byte) error {
	if len(data) > s.slotSize {
		return ErrPayloadTooLarge
	}
	ts := s.tier(t)
	offset := slot * s.slotSize
	for i := 0; i < s.slotSize; i++ {
		ts.data[offset+i] = 0
	}
	copy(ts.data[offset:], data)
	ts.length[slot] = len(data)
	return nil
}

// read returns a copy of the slot contents; callers never receive a live
// alias into the store.
func (s *pageStore) read(t model.Tier, slot int) []byte {
	ts := s.tier(t)
	offset := slot * s.slotSize
	out := make([]byte, ts.length[slot])
	copy(out, ts.data[offset:offset+ts.length[slot]])
	return out
}

// copySlot duplicates src slot contents into dst slot within the same tier.
func (s *pageStore) copySlot(t model.Tier, src, dst int) {
	ts := s.tier(t)
	copy(ts.data[dst*s.slotSize:(dst+1)*s.slotSize], ts.data[src*s.slotSize:(src+1)*s.slotSize])
	ts.length[dst] = ts.length[src]
}

// utilization returns occupied and total slot counts of a tier.
func (s *pageStore) utilization(t model.Tier) (used, capacity int) {
	ts := s.tier(t)
	return ts.capacity - len(ts.free), ts.capacity
}

// hasFree reports whether the tier has at least one free slot.
func (s *pageStore) hasFree(t model.Tier) bool {
	return len(s.tier(t).free) > 0
}
