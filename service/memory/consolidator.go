package memory

import (
	"context"
	"fmt"

	"github.com/cogvm/cogvm/model"
	"github.com/cogvm/cogvm/tracing"
)

// Consolidate scans the working tier and promotes qualifying pages into their
// longer-retention target tiers. A page qualifies when its importance, access
// count or emotional weight clears the configured threshold; the target is
// semantic for highly general pages, procedural for procedural ones and
// episodic otherwise. At most BatchSize pages are promoted per call. It
// returns the number of promoted pages.
func (s *Service) Consolidate(ctx context.Context) int {
	_, span := tracing.StartSpan(ctx, "memory.Consolidate", "INTERNAL")
	defer tracing.EndSpan(span, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	count := s.consolidate(s.config.Consolidator.BatchSize)
	span.WithAttributes(map[string]string{"promoted": fmt.Sprintf("%d", count)})
	return count
}

// SleepConsolidate runs repeated unbounded consolidation passes, one per ten
// ticks of the requested duration (minimum one pass). After each pass,
// low-importance episodic pages are marked compressed and frequently used or
// highly important pages have their importance reinforced. It returns the
// total number of promoted pages.
func (s *Service) SleepConsolidate(ctx context.Context, duration uint64) int {
	_, span := tracing.StartSpan(ctx, "memory.SleepConsolidate", "INTERNAL")
	defer tracing.EndSpan(span, nil)

	passes := duration / 10
	if passes == 0 {
		passes = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for i := uint64(0); i < passes; i++ {
		total += s.consolidate(0)
		s.compress()
		s.reinforce()
	}
	span.WithAttributes(map[string]string{"promoted": fmt.Sprintf("%d", total)})
	return total
}

// consolidate promotes up to limit qualifying working-tier pages; limit <= 0
// means unbounded. Pages sharing a copy-on-write slot are skipped. The
// virtual address survives promotion: only the entry's tier and slot change.
func (s *Service) consolidate(limit int) int {
	count := 0
	for _, addr := range s.table.addresses() {
		if limit > 0 && count >= limit {
			break
		}
		entry, ok := s.table.resolve(addr)
		if !ok || entry.Tier != model.TierWorking || entry.Group != "" {
			continue
		}
		if !s.qualifies(&entry.Meta) {
			continue
		}
		target := s.targetTier(&entry.Meta)
		slot, err := s.allocateSlot(target, -1)
		if err != nil {
			// Target tier full with nothing evictable; leave the page where
			// it is and keep scanning.
			continue
		}
		data := s.store.read(model.TierWorking, entry.Slot)
		if err := s.store.write(target, slot, data); err != nil {
			s.store.freeSlot(target, slot)
			continue
		}
		s.store.freeSlot(model.TierWorking, entry.Slot)
		entry.Tier = target
		entry.Slot = slot
		s.consolidated++
		count++
		s.emit(Event{Kind: EventConsolidated, Addr: entry.Addr, Tier: target, Slot: slot})
	}
	return count
}

func (s *Service) qualifies(meta *Metadata) bool {
	cfg := &s.config.Consolidator
	if meta.Importance > cfg.ImportanceThreshold {
		return true
	}
	if meta.AccessCount > cfg.AccessThreshold {
		return true
	}
	if meta.Emotional != nil && *meta.Emotional > cfg.EmotionalThreshold {
		return true
	}
	return false
}

func (s *Service) targetTier(meta *Metadata) model.Tier {
	if meta.Generality != nil && *meta.Generality > s.config.Consolidator.GeneralityThreshold {
		return model.TierSemantic
	}
	if meta.IsProcedural {
		return model.TierProcedural
	}
	return model.TierEpisodic
}

// compress marks episodic pages below the importance threshold as compressed.
func (s *Service) compress() {
	threshold := s.config.Consolidator.CompressionThreshold
	for _, addr := range s.table.addresses() {
		entry, ok := s.table.resolve(addr)
		if !ok || entry.Tier != model.TierEpisodic || entry.Meta.Compressed {
			continue
		}
		if entry.Meta.Importance < threshold {
			entry.Meta.Compressed = true
			s.compressions++
			s.emit(Event{Kind: EventCompressed, Addr: entry.Addr, Tier: entry.Tier, Slot: entry.Slot})
		}
	}
}

// reinforce multiplies the importance of frequently accessed or already
// important pages by the reinforcement factor, clamped to 1.0. Semantic pages
// use the more conservative factor.
func (s *Service) reinforce() {
	cfg := &s.config.Consolidator
	for _, addr := range s.table.addresses() {
		entry, ok := s.table.resolve(addr)
		if !ok {
			continue
		}
		meta := &entry.Meta
		if meta.AccessCount <= cfg.ReinforceAccess && meta.Importance <= cfg.ReinforceImportance {
			continue
		}
		factor := cfg.ReinforceFactor
		if entry.Tier == model.TierSemantic {
			factor = cfg.SemanticReinforceFactor
		}
		meta.Importance = clamp01(meta.Importance * factor)
	}
}
