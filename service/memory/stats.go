package memory

import "github.com/cogvm/cogvm/model"

// TierStats reports the slot usage of one tier.
type TierStats struct {
	Used        int     `json:"used"`
	Capacity    int     `json:"capacity"`
	Utilization float64 `json:"utilization"`
}

// Stats is a point-in-time snapshot of the memory manager counters.
type Stats struct {
	TotalPages     int                  `json:"totalPages"`
	Tiers          map[string]TierStats `json:"tiers"`
	Hits           uint64               `json:"hits"`
	Faults         uint64               `json:"faults"`
	HitRate        float64              `json:"hitRate"`
	Evictions      uint64               `json:"evictions"`
	Consolidations uint64               `json:"consolidations"`
	Compressions   uint64               `json:"compressions"`
	CopyOnWrites   uint64               `json:"copyOnWrites"`
}

// Stats returns a snapshot of the manager counters and per-tier utilisation.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Stats{
		TotalPages:     s.table.size(),
		Tiers:          make(map[string]TierStats, 5),
		Hits:           s.hits,
		Faults:         s.faults,
		Evictions:      s.evictions,
		Consolidations: s.consolidated,
		Compressions:   s.compressions,
		CopyOnWrites:   s.copyOnWrites,
	}
	if total := s.hits + s.faults; total > 0 {
		out.HitRate = float64(s.hits) / float64(total)
	}
	for _, tier := range model.Tiers() {
		used, capacity := s.store.utilization(tier)
		out.Tiers[tier.String()] = TierStats{
			Used:        used,
			Capacity:    capacity,
			Utilization: float64(used) / float64(capacity),
		}
	}
	return out
}
