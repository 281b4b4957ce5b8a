// Package config holds the settings of a locking job. Settings come from an
// optional HCL job file and are overridden by command line flags.
package config

import (
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/pkg/errors"

	"github.com/fyerfyer/logic-lock/pkg/algorithm"
	"github.com/fyerfyer/logic-lock/pkg/circuit"
)

// Defaults
const (
	DefaultInputFile   = "input.bench"
	DefaultOutputFile  = "output.bench"
	DefaultVerilogFile = "output.v"
	DefaultAlgorithm   = string(algorithm.RandomStrategy)
)

// Config describes one locking job
type Config struct {
	Input        string  `hcl:"input,optional"`
	Output       string  `hcl:"output,optional"`
	Verilog      string  `hcl:"verilog,optional"`
	VerilogGates bool    `hcl:"verilog_gates,optional"`
	Algorithm    string  `hcl:"algorithm,optional"`
	Bits         int     `hcl:"bits,optional"`
	Percentage   float64 `hcl:"percentage,optional"`
	Rounds       int     `hcl:"rounds,optional"`
	Seed         *int64  `hcl:"seed,optional"`
	Workers      int     `hcl:"workers,optional"`
	Timeout      string  `hcl:"timeout,optional"`
	KeyReport    string  `hcl:"key_report,optional"`
	MetricsFile  string  `hcl:"metrics_file,optional"`
	Verify       bool    `hcl:"verify,optional"`
}

// Default returns a configuration with the default file names and algorithm
func Default() *Config {
	return &Config{
		Input:     DefaultInputFile,
		Output:    DefaultOutputFile,
		Verilog:   DefaultVerilogFile,
		Algorithm: DefaultAlgorithm,
		Rounds:    algorithm.DefaultRounds,
	}
}

// Load reads an HCL job file on top of the defaults
func Load(filename string) (*Config, error) {
	cfg := Default()
	if err := hclsimple.DecodeFile(filename, nil, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to load job file %s", filename)
	}
	return cfg, nil
}

// Sizing returns the key sizing requested by the job
func (c *Config) Sizing() algorithm.Sizing {
	return algorithm.Sizing{Bits: c.Bits, Percentage: c.Percentage}
}

// Strategy returns the requested locking algorithm
func (c *Config) Strategy() (algorithm.Strategy, error) {
	return algorithm.ParseStrategy(c.Algorithm)
}

// TimeoutDuration parses the timeout; zero means no deadline
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d < 0 {
		return 0, errors.Wrapf(circuit.ErrValidation, "invalid timeout %q", c.Timeout)
	}
	return d, nil
}

// SeedOr returns the configured seed, or fallback when none was set
func (c *Config) SeedOr(fallback int64) int64 {
	if c.Seed == nil {
		return fallback
	}
	return *c.Seed
}

// Validate checks the job for missing, conflicting or out-of-range settings
func (c *Config) Validate() error {
	if c.Input == "" {
		return errors.Wrap(circuit.ErrConfiguration, "an input netlist is required")
	}
	if c.Output == "" {
		return errors.Wrap(circuit.ErrConfiguration, "an output netlist is required")
	}
	if _, err := c.Strategy(); err != nil {
		return err
	}
	if err := c.Sizing().Validate(); err != nil {
		return err
	}
	if c.Rounds <= 0 {
		return errors.Wrapf(circuit.ErrValidation, "rounds must be positive, got %d", c.Rounds)
	}
	if c.Workers < 0 {
		return errors.Wrapf(circuit.ErrValidation, "workers must not be negative, got %d", c.Workers)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}
