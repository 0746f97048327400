package cogvm

import (
	"context"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_Valid(t *testing.T) {
	assert.Nil(t, DefaultConfig().Validate())
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		description string
		mutate      func(*Config)
		valid       bool
	}{
		{
			description: "defaults",
			mutate:      func(*Config) {},
			valid:       true,
		},
		{
			description: "named policy",
			mutate:      func(c *Config) { c.Policy = "fair-share" },
			valid:       true,
		},
		{
			description: "unknown policy",
			mutate:      func(c *Config) { c.Policy = "lottery" },
			valid:       false,
		},
		{
			description: "zero tick interval",
			mutate:      func(c *Config) { c.Runtime.TickIntervalMs = 0 },
			valid:       false,
		},
		{
			description: "zero scheduler capacity",
			mutate:      func(c *Config) { c.Scheduler.Capacity = 0 },
			valid:       false,
		},
	}

	for _, testCase := range testCases {
		config := DefaultConfig()
		testCase.mutate(config)
		err := config.Validate()
		if testCase.valid {
			assert.Nil(t, err, testCase.description)
		} else {
			assert.NotNil(t, err, testCase.description)
		}
	}
}

func TestConfigFrom(t *testing.T) {
	URL := path.Join(t.TempDir(), "config.yaml")
	document := `
policy: round-robin
scheduler:
  capacity: 64
  timeSlice: 8
runtime:
  tickIntervalMs: 25
  dumpURL: /tmp/cogvm-dumps
`
	assert.Nil(t, os.WriteFile(URL, []byte(document), 0o644))

	config, err := ConfigFrom(context.Background(), URL)
	assert.Nil(t, err)
	assert.Equal(t, "round-robin", config.Policy)
	assert.Equal(t, 64, config.Scheduler.Capacity)
	assert.Equal(t, uint64(8), config.Scheduler.TimeSlice)
	assert.Equal(t, 25, config.Runtime.TickIntervalMs)
	assert.Equal(t, "/tmp/cogvm-dumps", config.Runtime.DumpURL)

	// Unset sections keep their defaults.
	assert.Equal(t, DefaultConfig().Memory, config.Memory)
}

func TestConfigFrom_InvalidDocument(t *testing.T) {
	URL := path.Join(t.TempDir(), "config.yaml")
	assert.Nil(t, os.WriteFile(URL, []byte("policy: lottery\n"), 0o644))
	_, err := ConfigFrom(context.Background(), URL)
	assert.NotNil(t, err)
}

func TestConfigFrom_MissingFile(t *testing.T) {
	_, err := ConfigFrom(context.Background(), path.Join(t.TempDir(), "absent.yaml"))
	assert.NotNil(t, err)
}
