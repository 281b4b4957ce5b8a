package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/logic-lock/pkg/algorithm"
	"github.com/fyerfyer/logic-lock/pkg/circuit"
	"github.com/fyerfyer/logic-lock/pkg/config"
)

func writeJob(t *testing.T, src string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "job.hcl")
	require.NoError(t, os.WriteFile(filename, []byte(src), 0644))
	return filename
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "input.bench", cfg.Input)
	assert.Equal(t, "output.bench", cfg.Output)
	assert.Equal(t, "output.v", cfg.Verilog)
	assert.Equal(t, "RLL", cfg.Algorithm)
	assert.Equal(t, 1000, cfg.Rounds)
	assert.Nil(t, cfg.Seed)

	// Sizing is mandatory
	assert.ErrorIs(t, cfg.Validate(), circuit.ErrConfiguration)
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load(writeJob(t, `
input      = "c17.bench"
output     = "c17_locked.bench"
algorithm  = "FLL"
percentage = 0.25
rounds     = 500
seed       = 7
workers    = 2
timeout    = "90s"
key_report = "c17.key.yaml"
verify     = true
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "c17.bench", cfg.Input)
	assert.Equal(t, "c17_locked.bench", cfg.Output)
	assert.Equal(t, "output.v", cfg.Verilog, "unset attributes keep their default")
	assert.Equal(t, "c17.key.yaml", cfg.KeyReport)
	assert.True(t, cfg.Verify)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 500, cfg.Rounds)
	assert.Equal(t, int64(7), cfg.SeedOr(0))
	assert.Equal(t, algorithm.Sizing{Percentage: 0.25}, cfg.Sizing())

	strategy, err := cfg.Strategy()
	require.NoError(t, err)
	assert.Equal(t, algorithm.FaultImpactStrategy, strategy)

	timeout, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, timeout)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.Error(t, err)

	_, err = config.Load(writeJob(t, `bits = "many"`))
	assert.Error(t, err)

	_, err = config.Load(writeJob(t, `colour = "blue"`))
	assert.Error(t, err, "unknown attributes are rejected")
}

func TestSeedOr(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, int64(99), cfg.SeedOr(99))

	zero := int64(0)
	cfg.Seed = &zero
	assert.Equal(t, int64(0), cfg.SeedOr(99), "an explicit zero seed is kept")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
		want   error
	}{
		{"bits", func(c *config.Config) { c.Bits = 8 }, nil},
		{"percentage", func(c *config.Config) { c.Percentage = 1 }, nil},
		{"both sizings", func(c *config.Config) { c.Bits = 8; c.Percentage = 0.5 }, circuit.ErrConfiguration},
		{"no input", func(c *config.Config) { c.Bits = 8; c.Input = "" }, circuit.ErrConfiguration},
		{"no output", func(c *config.Config) { c.Bits = 8; c.Output = "" }, circuit.ErrConfiguration},
		{"unknown algorithm", func(c *config.Config) { c.Bits = 8; c.Algorithm = "SLL" }, circuit.ErrValidation},
		{"negative bits", func(c *config.Config) { c.Bits = -3 }, circuit.ErrValidation},
		{"percentage too large", func(c *config.Config) { c.Percentage = 2 }, circuit.ErrValidation},
		{"zero rounds", func(c *config.Config) { c.Bits = 8; c.Rounds = 0 }, circuit.ErrValidation},
		{"negative workers", func(c *config.Config) { c.Bits = 8; c.Workers = -1 }, circuit.ErrValidation},
		{"bad timeout", func(c *config.Config) { c.Bits = 8; c.Timeout = "soon" }, circuit.ErrValidation},
		{"negative timeout", func(c *config.Config) { c.Bits = 8; c.Timeout = "-1s" }, circuit.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}
