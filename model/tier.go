package model

import "fmt"

// Tier identifies one of the five fixed-capacity memory pools. Each tier has
// its own slot pool and free list; tiers never share physical slots.
type Tier int

const (
	TierSensory Tier = iota
	TierWorking
	TierEpisodic
	TierSemantic
	TierProcedural
)

// Tiers returns all tiers in their canonical order.
func Tiers() []Tier {
	return []Tier{TierSensory, TierWorking, TierEpisodic, TierSemantic, TierProcedural}
}

func (t Tier) String() string {
	switch t {
	case TierSensory:
		return "sensory"
	case TierWorking:
		return "working"
	case TierEpisodic:
		return "episodic"
	case TierSemantic:
		return "semantic"
	case TierProcedural:
		return "procedural"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Valid reports whether t is one of the defined tiers.
func (t Tier) Valid() bool {
	return t >= TierSensory && t <= TierProcedural
}

// ParseTier converts a tier name to its Tier value.
func ParseTier(name string) (Tier, error) {
	switch name {
	case "sensory":
		return TierSensory, nil
	case "working":
		return TierWorking, nil
	case "episodic":
		return TierEpisodic, nil
	case "semantic":
		return TierSemantic, nil
	case "procedural":
		return TierProcedural, nil
	}
	return 0, fmt.Errorf("unknown tier: %q", name)
}
