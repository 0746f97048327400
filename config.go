package cogvm

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/cogvm/cogvm/model"
	"github.com/cogvm/cogvm/service/memory"
	"github.com/cogvm/cogvm/service/scheduler"
)

// Config is a serialisable representation of the runtime configuration. It
// can be populated from YAML or JSON; nested zero values inherit their
// package defaults.
type Config struct {
	Scheduler scheduler.Config `json:"scheduler" yaml:"scheduler"`
	Memory    memory.Config    `json:"memory" yaml:"memory"`
	Runtime   RuntimeConfig    `json:"runtime" yaml:"runtime"`

	// Policy names the scheduling discipline (priority, round-robin,
	// fair-share); parsed into Scheduler.Policy on wiring.
	Policy string `json:"policy" yaml:"policy"`
}

// RuntimeConfig controls the background tick loop and diagnostics.
type RuntimeConfig struct {
	// TickIntervalMs is the wall-clock spacing of ticks when the runtime is
	// started; manual Tick calls ignore it.
	TickIntervalMs int `json:"tickIntervalMs" yaml:"tickIntervalMs"`

	// DumpURL, when set, enables the snapshot dump service under this base
	// URL.
	DumpURL string `json:"dumpURL" yaml:"dumpURL"`
}

// TickInterval returns the configured tick spacing.
func (r *RuntimeConfig) TickInterval() time.Duration {
	return time.Duration(r.TickIntervalMs) * time.Millisecond
}

// DefaultConfig returns a Config with every section at its package default.
func DefaultConfig() *Config {
	return &Config{
		Scheduler: scheduler.DefaultConfig(),
		Memory:    memory.DefaultConfig(),
		Runtime:   RuntimeConfig{TickIntervalMs: 10},
	}
}

// Validate returns an aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	if err := c.Memory.Validate(); err != nil {
		return err
	}
	if c.Runtime.TickIntervalMs <= 0 {
		return fmt.Errorf("runtime.tickIntervalMs must be > 0")
	}
	if _, err := model.ParsePolicy(c.Policy); err != nil {
		return err
	}
	return nil
}

// ConfigFrom loads a YAML configuration document from URL, overlaying it on
// the defaults.
func ConfigFrom(ctx context.Context, URL string) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %v: %w", URL, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
