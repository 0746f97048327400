package memory

import (
	"fmt"
	"sync"

	"github.com/cogvm/cogvm/internal/clock"
	"github.com/cogvm/cogvm/internal/idgen"
	"github.com/cogvm/cogvm/model"
)

// Event describes a page lifecycle change observed by the manager.
type Event struct {
	Kind string     `json:"kind"`
	Addr uint64     `json:"addr"`
	Tier model.Tier `json:"tier"`
	Slot int        `json:"slot"`
}

// Event kinds.
const (
	EventEvicted      = "evicted"
	EventConsolidated = "consolidated"
	EventCompressed   = "compressed"
	EventCowCopy      = "cow-copy"
)

// Listener is invoked after every page lifecycle event. Implementations can
// publish, log or collect metrics; they must not call back into the service.
type Listener func(event Event)

// Service is the memory manager facade composing the page table, the page
// store, the evictor and the consolidator. Public operations are safe for
// concurrent use; internally the manager follows a single-writer discipline
// behind one mutex.
type Service struct {
	mu       sync.Mutex
	config   Config
	store    *pageStore
	table    *pageTable
	cow      *cowRegistry
	listener Listener

	hits         uint64
	faults       uint64
	evictions    uint64
	consolidated uint64
	compressions uint64
	copyOnWrites uint64
}

// Option customises the memory service.
type Option func(s *Service)

// WithConfig overrides the default configuration.
func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// WithListener registers a page lifecycle listener.
func WithListener(listener Listener) Option {
	return func(s *Service) { s.listener = listener }
}

// New creates a memory manager.
func New(options ...Option) (*Service, error) {
	s := &Service{config: DefaultConfig()}
	for _, opt := range options {
		opt(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	s.store = newPageStore(&s.config)
	s.table = newPageTable()
	s.cow = newCowRegistry()
	return s, nil
}

// Allocate obtains a free slot in the tier, evicting the lowest-scoring page
// when the tier is full, writes data and returns a fresh virtual address.
func (s *Service) Allocate(tier model.Tier, data []byte, options ...MetadataOption) (uint64, error) {
	if !tier.Valid() {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTier, tier)
	}
	if len(data) > s.config.SlotSize {
		return 0, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(data), s.config.SlotSize)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, err := s.allocateSlot(tier, -1)
	if err != nil {
		return 0, err
	}
	if err := s.store.write(tier, slot, data); err != nil {
		s.store.freeSlot(tier, slot)
		return 0, err
	}
	now := clock.Now()
	entry := &Entry{
		Tier:   tier,
		Slot:   slot,
		Length: len(data),
		Meta: Metadata{
			Importance:   0.5,
			CreatedAt:    now,
			LastAccess:   now,
			LastModified: now,
		},
	}
	for _, opt := range options {
		opt(&entry.Meta)
	}
	return s.table.insert(entry), nil
}

// Read resolves the address and returns a copy of the page contents.
func (s *Service) Read(addr uint64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.table.resolve(addr)
	if !ok {
		s.faults++
		return nil, fmt.Errorf("%w: %#x", ErrPageFault, addr)
	}
	s.hits++
	entry.Meta.AccessCount++
	entry.Meta.LastAccess = clock.Now()
	return s.store.read(entry.Tier, entry.Slot), nil
}

// Write stores data at the address. When the entry shares its slot with
// other copy-on-write group members, the entry first receives a private copy
// so aliased readers stay unaffected.
func (s *Service) Write(addr uint64, data []byte) error {
	if len(data) > s.config.SlotSize {
		return fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(data), s.config.SlotSize)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.table.resolve(addr)
	if !ok {
		s.faults++
		return fmt.Errorf("%w: %#x", ErrPageFault, addr)
	}
	s.hits++
	if entry.Group != "" {
		group := s.cow.lookup(entry.Group)
		if group != nil && group.RefCount > 1 {
			if err := s.privateCopy(entry, group); err != nil {
				return err
			}
		}
	}
	if err := s.store.write(entry.Tier, entry.Slot, data); err != nil {
		return err
	}
	entry.Length = len(data)
	entry.Meta.LastModified = clock.Now()
	return nil
}

// privateCopy moves the entry onto its own freshly allocated slot, copying
// the shared contents and leaving the copy-on-write group. The source slot is
// shielded from eviction while it is still being read from.
func (s *Service) privateCopy(entry *Entry, group *CowGroup) error {
	slot, err := s.allocateSlot(entry.Tier, entry.Slot)
	if err != nil {
		return err
	}
	s.store.copySlot(entry.Tier, entry.Slot, slot)
	s.cow.leave(group, entry.Addr)
	entry.Slot = slot
	entry.Group = ""
	s.copyOnWrites++
	s.emit(Event{Kind: EventCowCopy, Addr: entry.Addr, Tier: entry.Tier, Slot: slot})
	return nil
}

// Free releases the address: the page table entry is removed and the slot
// returns to the tier free list once its last alias is gone. It reports
// whether the address was live.
func (s *Service) Free(addr uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.table.resolve(addr)
	if !ok {
		return false
	}
	release := true
	if entry.Group != "" {
		if group := s.cow.lookup(entry.Group); group != nil {
			release = s.cow.leave(group, addr)
		}
	}
	if release {
		s.store.freeSlot(entry.Tier, entry.Slot)
	}
	s.table.remove(addr)
	return true
}

// EnableCopyOnWrite enrols the address into the copy-on-write group guarding
// its physical slot, creating the group on first enrollment.
func (s *Service) EnableCopyOnWrite(addr uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.table.resolve(addr)
	if !ok {
		s.faults++
		return fmt.Errorf("%w: %#x", ErrPageFault, addr)
	}
	group := s.cow.enroll(idgen.New(), entry.Tier, entry.Slot, addr)
	entry.Group = group.ID
	return nil
}

// Share creates a second virtual address aliasing the same physical slot and
// enrols both addresses into the slot's copy-on-write group. A subsequent
// write through either address triggers a private copy for the writer.
func (s *Service) Share(addr uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.table.resolve(addr)
	if !ok {
		s.faults++
		return 0, fmt.Errorf("%w: %#x", ErrPageFault, addr)
	}
	now := clock.Now()
	alias := &Entry{
		Tier:   entry.Tier,
		Slot:   entry.Slot,
		Length: entry.Length,
		Meta: Metadata{
			Importance:   entry.Meta.Importance,
			Generality:   entry.Meta.Generality,
			Emotional:    entry.Meta.Emotional,
			IsProcedural: entry.Meta.IsProcedural,
			CreatedAt:    now,
			LastAccess:   now,
			LastModified: now,
		},
	}
	aliasAddr := s.table.insert(alias)
	group := s.cow.enroll(idgen.New(), entry.Tier, entry.Slot, entry.Addr)
	s.cow.enroll(group.ID, entry.Tier, entry.Slot, aliasAddr)
	entry.Group = group.ID
	alias.Group = group.ID
	return aliasAddr, nil
}

// GroupOf returns a snapshot of the copy-on-write group the address belongs
// to, or false when the address is unknown or not grouped.
func (s *Service) GroupOf(addr uint64) (CowGroup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.table.resolve(addr)
	if !ok || entry.Group == "" {
		return CowGroup{}, false
	}
	group := s.cow.lookup(entry.Group)
	if group == nil {
		return CowGroup{}, false
	}
	out := CowGroup{
		ID:       group.ID,
		Tier:     group.Tier,
		Slot:     group.Slot,
		RefCount: group.RefCount,
		Members:  make(map[uint64]struct{}, len(group.Members)),
	}
	for member := range group.Members {
		out.Members[member] = struct{}{}
	}
	return out, true
}

// Pages returns page-table entry snapshots in ascending address order.
func (s *Service) Pages() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	addrs := s.table.addresses()
	ret := make([]Entry, 0, len(addrs))
	for _, addr := range addrs {
		if entry, ok := s.table.resolve(addr); ok {
			ret = append(ret, *entry)
		}
	}
	return ret
}

// allocateSlot pops a free slot of the tier, falling back to eviction when
// none is free. excludeSlot shields one slot from eviction.
func (s *Service) allocateSlot(tier model.Tier, excludeSlot int) (int, error) {
	if slot, ok := s.store.alloc(tier); ok {
		return slot, nil
	}
	if !s.evict(tier, excludeSlot) {
		return 0, fmt.Errorf("%w: tier %v full with nothing evictable", ErrOutOfMemory, tier)
	}
	slot, ok := s.store.alloc(tier)
	if !ok {
		return 0, fmt.Errorf("%w: tier %v", ErrOutOfMemory, tier)
	}
	return slot, nil
}

// evict reclaims the lowest-scoring occupied slot of the tier, dropping every
// address that aliases it. Ties resolve to the lowest slot index.
func (s *Service) evict(tier model.Tier, excludeSlot int) bool {
	victim := selectVictim(s.table.entriesInTier(tier), clock.Now(), excludeSlot)
	if victim == nil {
		return false
	}
	slot := victim.Slot
	for _, entry := range s.table.entriesForSlot(tier, slot) {
		if entry.Group != "" {
			if group := s.cow.lookup(entry.Group); group != nil {
				s.cow.dissolve(group)
			}
		}
		s.table.remove(entry.Addr)
	}
	s.store.freeSlot(tier, slot)
	s.evictions++
	s.emit(Event{Kind: EventEvicted, Addr: victim.Addr, Tier: tier, Slot: slot})
	return true
}

func (s *Service) emit(event Event) {
	if s.listener != nil {
		s.listener(event)
	}
}
