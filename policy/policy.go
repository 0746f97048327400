package policy

import (
	"context"
	"strings"
)

// Admission modes recognised by the scheduler.
const (
	ModeAsk  = "ask"  // ask before every submission
	ModeAuto = "auto" // admit automatically (default)
	ModeDeny = "deny" // refuse all submissions
)

// AskFunc is invoked when Mode==ask. Returning true admits the process, false
// rejects it. Implementations MAY mutate the policy (for example, switching
// to ModeAuto after the first approval).
type AskFunc func(
	ctx context.Context,
	program string, // program name of the submitted process
	p *Policy,
) bool

// Policy represents the admission settings applied to process submission.
//
//   - Mode controls the high-level behaviour (ask / auto / deny).
//   - AllowList, BlockList filter by program name regardless of Mode.
//   - Ask is only used when Mode==ask.
//
// A nil *Policy means "admit everything" and is therefore the zero-cost
// default.
type Policy struct {
	Mode      string   // ask / auto / deny      (default = auto)
	AllowList []string // whitelist (empty => all)
	BlockList []string // blacklist
	Ask       AskFunc  // used only when Mode==ask
}

// Config represents the declarative, serialisable part of a Policy (an
// AskFunc cannot be persisted).
type Config struct {
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	AllowList []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	BlockList []string `json:"block,omitempty" yaml:"block,omitempty"`
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{
		Mode:      p.Mode,
		AllowList: append([]string(nil), p.AllowList...),
		BlockList: append([]string(nil), p.BlockList...),
	}
}

// FromConfig converts a stored Config back to a runtime Policy (without
// AskFunc).
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{
		Mode:      c.Mode,
		AllowList: append([]string(nil), c.AllowList...),
		BlockList: append([]string(nil), c.BlockList...),
	}
}

// IsAllowed evaluates AllowList / BlockList. Both lists match by exact,
// case-insensitive comparison of the program name.
func (p *Policy) IsAllowed(program string) bool {
	if p == nil {
		return true
	}

	normalized := strings.ToLower(program)

	// BlockList has priority.
	for _, b := range p.BlockList {
		if normalized == strings.ToLower(b) {
			return false
		}
	}

	// AllowList – if empty everything is allowed, otherwise only the listed
	// entries.
	if len(p.AllowList) == 0 {
		return true
	}

	for _, a := range p.AllowList {
		if normalized == strings.ToLower(a) {
			return true
		}
	}

	return false
}

// Admit applies Mode on top of the list filters. It is the single entry point
// the scheduler consults before admitting a process.
func (p *Policy) Admit(ctx context.Context, program string) bool {
	if p == nil {
		return true
	}
	if !p.IsAllowed(program) {
		return false
	}
	switch p.Mode {
	case ModeDeny:
		return false
	case ModeAsk:
		if p.Ask == nil {
			return false
		}
		return p.Ask(ctx, program, p)
	}
	return true
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the *Policy when present.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
