package memory

import (
	"fmt"

	"github.com/cogvm/cogvm/model"
)

// Config represents memory manager configuration. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// SlotSize is the fixed width, in bytes, of every physical slot.
	SlotSize int `json:"slotSize" yaml:"slotSize"`

	// Per-tier slot capacities.
	SensorySlots    int `json:"sensorySlots" yaml:"sensorySlots"`
	WorkingSlots    int `json:"workingSlots" yaml:"workingSlots"`
	EpisodicSlots   int `json:"episodicSlots" yaml:"episodicSlots"`
	SemanticSlots   int `json:"semanticSlots" yaml:"semanticSlots"`
	ProceduralSlots int `json:"proceduralSlots" yaml:"proceduralSlots"`

	Consolidator ConsolidatorConfig `json:"consolidator" yaml:"consolidator"`
}

// ConsolidatorConfig controls promotion out of the working tier and the
// extended sleep-mode passes.
type ConsolidatorConfig struct {
	// BatchSize bounds promotions per Consolidate call; ignored in sleep mode.
	BatchSize int `json:"batchSize" yaml:"batchSize"`

	// Qualification thresholds: a working-tier page qualifies when any of
	// importance, access count or emotional weight clears its threshold.
	ImportanceThreshold float32 `json:"importanceThreshold" yaml:"importanceThreshold"`
	AccessThreshold     uint32  `json:"accessThreshold" yaml:"accessThreshold"`
	EmotionalThreshold  float32 `json:"emotionalThreshold" yaml:"emotionalThreshold"`

	// GeneralityThreshold routes highly general pages to the semantic tier.
	GeneralityThreshold float32 `json:"generalityThreshold" yaml:"generalityThreshold"`

	// Sleep-mode tuning.
	CompressionThreshold    float32 `json:"compressionThreshold" yaml:"compressionThreshold"`
	ReinforceFactor         float32 `json:"reinforceFactor" yaml:"reinforceFactor"`
	SemanticReinforceFactor float32 `json:"semanticReinforceFactor" yaml:"semanticReinforceFactor"`
	ReinforceAccess         uint32  `json:"reinforceAccess" yaml:"reinforceAccess"`
	ReinforceImportance     float32 `json:"reinforceImportance" yaml:"reinforceImportance"`
}

// DefaultConfig returns the default memory manager configuration.
func DefaultConfig() Config {
	return Config{
		SlotSize:        256,
		SensorySlots:    64,
		WorkingSlots:    128,
		EpisodicSlots:   256,
		SemanticSlots:   256,
		ProceduralSlots: 128,
		Consolidator: ConsolidatorConfig{
			BatchSize:               16,
			ImportanceThreshold:     0.7,
			AccessThreshold:         10,
			EmotionalThreshold:      0.8,
			GeneralityThreshold:     0.8,
			CompressionThreshold:    0.3,
			ReinforceFactor:         1.10,
			SemanticReinforceFactor: 1.05,
			ReinforceAccess:         5,
			ReinforceImportance:     0.8,
		},
	}
}

// TierCapacity returns the configured slot capacity of a tier.
func (c *Config) TierCapacity(tier model.Tier) int {
	switch tier {
	case model.TierSensory:
		return c.SensorySlots
	case model.TierWorking:
		return c.WorkingSlots
	case model.TierEpisodic:
		return c.EpisodicSlots
	case model.TierSemantic:
		return c.SemanticSlots
	case model.TierProcedural:
		return c.ProceduralSlots
	}
	return 0
}

// Validate returns an aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c.SlotSize <= 0 {
		return fmt.Errorf("memory.slotSize must be > 0")
	}
	for _, tier := range model.Tiers() {
		if c.TierCapacity(tier) <= 0 {
			return fmt.Errorf("memory.%sSlots must be > 0", tier)
		}
	}
	if c.Consolidator.BatchSize <= 0 {
		return fmt.Errorf("memory.consolidator.batchSize must be > 0")
	}
	return nil
}
