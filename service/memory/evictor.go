package memory

import (
	"time"
)

// Eviction scoring weights. Both adjustments are monotonic and bounded so a
// very stale or very hot page cannot dominate importance entirely.
const (
	recencyPenaltyPerHour = 0.01
	recencyPenaltyCap     = 0.5
	accessBonusPerHit     = 0.02
	accessBonusCap        = 0.3
)

// evictionScore ranks an occupied slot for reclamation: low importance, long
// idle time and few accesses make a slot cheap to drop.
func evictionScore(meta *Metadata, now time.Time) float64 {
	hours := now.Sub(meta.LastAccess).Hours()
	if hours < 0 {
		hours = 0
	}
	penalty := hours * recencyPenaltyPerHour
	if penalty > recencyPenaltyCap {
		penalty = recencyPenaltyCap
	}
	bonus := float64(meta.AccessCount) * accessBonusPerHit
	if bonus > accessBonusCap {
		bonus = accessBonusCap
	}
	return float64(meta.Importance) - penalty + bonus
}

// selectVictim picks the minimum-scoring entry, breaking ties by lowest
// physical slot index. Entries are expected pre-sorted by slot, which the
// page table guarantees, so the first minimum wins deterministically.
// excludeSlot shields a slot from eviction (used while a copy-on-write
// private copy reads from it); pass a negative value to consider all.
func selectVictim(entries []*Entry, now time.Time, excludeSlot int) *Entry {
	var victim *Entry
	var victimScore float64
	for _, entry := range entries {
		if entry.Slot == excludeSlot {
			continue
		}
		score := evictionScore(&entry.Meta, now)
		if victim == nil || score < victimScore {
			victim = entry
			victimScore = score
		}
	}
	return victim
}
