package utils

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// KeyReport records the secret key of a locked netlist together with where
// every key bit was inserted
type KeyReport struct {
	RunID     string       `yaml:"run_id"`
	Created   time.Time    `yaml:"created"`
	Circuit   string       `yaml:"circuit"`
	Algorithm string       `yaml:"algorithm"`
	Seed      int64        `yaml:"seed"`
	Rounds    int          `yaml:"rounds,omitempty"`
	Key       string       `yaml:"key"`
	Bits      []KeyBitInfo `yaml:"bits"`
	Verified  *bool        `yaml:"verified,omitempty"`
}

// KeyBitInfo describes one key gate
type KeyBitInfo struct {
	KeyInput string `yaml:"key_input"`
	Value    int    `yaml:"value"`
	Target   string `yaml:"target"`
	Gate     string `yaml:"gate"`
	GateType string `yaml:"gate_type"`
	Inverter string `yaml:"inverter,omitempty"`
}

// NewKeyReport creates a report stamped with a fresh run ID
func NewKeyReport(circuitName, algorithm string, seed int64) *KeyReport {
	return &KeyReport{
		RunID:     uuid.New().String(),
		Created:   time.Now().UTC(),
		Circuit:   circuitName,
		Algorithm: algorithm,
		Seed:      seed,
	}
}

// WriteKeyReport writes the report as YAML
func WriteKeyReport(filename string, report *KeyReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "failed to encode key report")
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write key report %s", filename)
	}
	return nil
}

// ReadKeyReport loads a report written by WriteKeyReport
func ReadKeyReport(filename string) (*KeyReport, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read key report %s", filename)
	}
	report := &KeyReport{}
	if err := yaml.Unmarshal(data, report); err != nil {
		return nil, errors.Wrapf(err, "failed to decode key report %s", filename)
	}
	return report, nil
}
