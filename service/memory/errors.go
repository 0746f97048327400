package memory

import "errors"

// Sentinel errors returned by the memory manager. Callers detect conditions
// via errors.Is rather than string comparison.
var (
	// ErrOutOfMemory is returned when a tier is at capacity and eviction
	// yields nothing reclaimable.
	ErrOutOfMemory = errors.New("memory: out of memory")

	// ErrPageFault is returned when a virtual address does not resolve to a
	// live page table entry.
	ErrPageFault = errors.New("memory: page fault")

	// ErrInvalidTier indicates an unknown tier value.
	ErrInvalidTier = errors.New("memory: invalid tier")

	// ErrPayloadTooLarge indicates the payload exceeds the fixed slot width.
	ErrPayloadTooLarge = errors.New("memory: payload exceeds slot size")
)
