package memory

import "time"

// Metadata carries the per-page attributes driving eviction scoring and
// consolidation routing.
type Metadata struct {
	Importance   float32   `json:"importance"` // clamped to [0,1]
	AccessCount  uint32    `json:"accessCount"`
	CreatedAt    time.Time `json:"createdAt"`
	LastAccess   time.Time `json:"lastAccess"`
	LastModified time.Time `json:"lastModified"`
	Generality   *float32  `json:"generality,omitempty"`
	Emotional    *float32  `json:"emotional,omitempty"`
	IsProcedural bool      `json:"isProcedural,omitempty"`
	Compressed   bool      `json:"compressed,omitempty"`
}

// MetadataOption customises page metadata at allocation time.
type MetadataOption func(m *Metadata)

// WithImportance sets the importance score, clamped to [0,1].
func WithImportance(importance float32) MetadataOption {
	return func(m *Metadata) {
		m.Importance = clamp01(importance)
	}
}

// WithGenerality sets the generality score used for semantic-tier routing.
func WithGenerality(generality float32) MetadataOption {
	return func(m *Metadata) {
		v := clamp01(generality)
		m.Generality = &v
	}
}

// WithEmotional sets the emotional weight.
func WithEmotional(emotional float32) MetadataOption {
	return func(m *Metadata) {
		v := clamp01(emotional)
		m.Emotional = &v
	}
}

// AsProcedural routes the page to the procedural tier on consolidation.
func AsProcedural() MetadataOption {
	return func(m *Metadata) {
		m.IsProcedural = true
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
