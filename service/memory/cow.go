package memory

import "github.com/cogvm/cogvm/model"

// CowGroup records the virtual addresses sharing one physical slot under
// copy-on-write. The central aliasing invariant: RefCount always equals the
// number of members, and every member resolves to the same slot until a write
// forces a private copy.
type CowGroup struct {
	ID       string              `json:"id"`
	Tier     model.Tier          `json:"tier"`
	Slot     int                 `json:"slot"`
	RefCount int                 `json:"refCount"`
	Members  map[uint64]struct{} `json:"-"`
}

type slotKey struct {
	tier model.Tier
	slot int
}

// cowRegistry indexes copy-on-write groups by id and by the shared slot.
type cowRegistry struct {
	groups map[string]*CowGroup
	bySlot map[slotKey]*CowGroup
}

func newCowRegistry() *cowRegistry {
	return &cowRegistry{
		groups: make(map[string]*CowGroup),
		bySlot: make(map[slotKey]*CowGroup),
	}
}

// enroll adds an address to the group guarding a slot, creating the group on
// first enrollment.
func (r *cowRegistry) enroll(id string, tier model.Tier, slot int, addr uint64) *CowGroup {
	key := slotKey{tier: tier, slot: slot}
	group, ok := r.bySlot[key]
	if !ok {
		group = &CowGroup{
			ID:      id,
			Tier:    tier,
			Slot:    slot,
			Members: make(map[uint64]struct{}),
		}
		r.groups[group.ID] = group
		r.bySlot[key] = group
	}
	if _, exists := group.Members[addr]; !exists {
		group.Members[addr] = struct{}{}
		group.RefCount++
	}
	return group
}

// leave removes an address from its group, dissolving the group once the last
// member is gone. It reports whether the group was dissolved.
func (r *cowRegistry) leave(group *CowGroup, addr uint64) bool {
	if _, ok := group.Members[addr]; !ok {
		return false
	}
	delete(group.Members, addr)
	group.RefCount--
	if group.RefCount > 0 {
		return false
	}
	delete(r.groups, group.ID)
	delete(r.bySlot, slotKey{tier: group.Tier, slot: group.Slot})
	return true
}

// dissolve drops a whole group, typically when its shared slot is evicted.
func (r *cowRegistry) dissolve(group *CowGroup) {
	delete(r.groups, group.ID)
	delete(r.bySlot, slotKey{tier: group.Tier, slot: group.Slot})
}

// lookup returns the group by id.
func (r *cowRegistry) lookup(id string) *CowGroup {
	return r.groups[id]
}
