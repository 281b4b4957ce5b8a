package algorithm

import (
	"context"
	"math"
	"math/rand"
	"strings"

	"github.com/pkg/errors"

	"github.com/fyerfyer/logic-lock/pkg/circuit"
	"github.com/fyerfyer/logic-lock/pkg/metrics"
	"github.com/fyerfyer/logic-lock/pkg/utils"
)

// Strategy names a node selection algorithm
type Strategy string

const (
	RandomStrategy      Strategy = "RLL" // Random logic locking
	FaultImpactStrategy Strategy = "FLL" // Fault-analysis based logic locking
)

// ParseStrategy converts an algorithm name into a Strategy
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToUpper(s)) {
	case RandomStrategy:
		return RandomStrategy, nil
	case FaultImpactStrategy:
		return FaultImpactStrategy, nil
	default:
		return "", errors.Wrapf(circuit.ErrValidation, "unknown locking algorithm %q (want RLL or FLL)", s)
	}
}

// Sizing selects how many key bits to insert: either an exact count or a
// fraction of the candidate pool, never both.
type Sizing struct {
	Bits       int
	Percentage float64
}

// Validate checks that exactly one sizing mode is set and in range
func (s Sizing) Validate() error {
	switch {
	case s.Bits == 0 && s.Percentage == 0:
		return errors.Wrap(circuit.ErrConfiguration, "either a key bit count or a percentage is required")
	case s.Bits != 0 && s.Percentage != 0:
		return errors.Wrap(circuit.ErrConfiguration, "key bit count and percentage are mutually exclusive")
	case s.Bits < 0:
		return errors.Wrapf(circuit.ErrValidation, "key bit count must be positive, got %d", s.Bits)
	case s.Percentage != 0:
		return validatePercentage(s.Percentage)
	}
	return nil
}

func validatePercentage(p float64) error {
	if math.IsNaN(p) || p <= 0 || p > 1 {
		return errors.Wrapf(circuit.ErrValidation, "percentage must be in (0, 1], got %v", p)
	}
	return nil
}

// BitsFor returns the number of key bits p asks for on a pool of poolSize
func BitsFor(poolSize int, p float64) int {
	// The product carries binary rounding error: 100 * 0.07 is 7.000000000000001
	bits := int(math.Ceil(float64(poolSize)*p - 1e-9))
	if bits == 0 && poolSize > 0 && p > 0 {
		bits = 1
	}
	return bits
}

// Options configures a Locker
type Options struct {
	Seed    int64
	Rounds  int // Analysis rounds per key bit, FLL only
	Workers int // Analysis workers, FLL only; 0 means GOMAXPROCS
	Logger  *utils.Logger
	Metrics *metrics.Recorder
}

// KeyBit describes one inserted key gate by node names
type KeyBit struct {
	KeyInput string
	Target   string
	Gate     string
	GateType circuit.GateType
	Inverter string // Empty unless an inverter was spliced in
	Value    bool
}

// Result summarizes a locking run
type Result struct {
	Strategy Strategy
	Seed     int64
	Bits     []KeyBit
}

// Key returns the correct key in key input order
func (r *Result) Key() []bool {
	key := make([]bool, len(r.Bits))
	for i, b := range r.Bits {
		key[i] = b.Value
	}
	return key
}

// KeyString renders the key as a string of 0s and 1s
func (r *Result) KeyString() string {
	var builder strings.Builder
	for _, b := range r.Bits {
		if b.Value {
			builder.WriteByte('1')
		} else {
			builder.WriteByte('0')
		}
	}
	return builder.String()
}

// Locker inserts key gates into a circuit in place
type Locker interface {
	// LockNGates inserts keyBits key gates
	LockNGates(ctx context.Context, c *circuit.Circuit, keyBits int) (*Result, error)
	// LockByPercentage inserts ceil(pool * p) key gates, 0 < p <= 1
	LockByPercentage(ctx context.Context, c *circuit.Circuit, p float64) (*Result, error)
	// Lock dispatches on the sizing mode
	Lock(ctx context.Context, c *circuit.Circuit, sizing Sizing) (*Result, error)
}

// NewLocker creates the locker implementing the given strategy
func NewLocker(strategy Strategy, opts Options) (Locker, error) {
	switch strategy {
	case RandomStrategy:
		return NewRandomLocker(opts), nil
	case FaultImpactStrategy:
		return NewFaultLocker(opts), nil
	default:
		return nil, errors.Wrapf(circuit.ErrValidation, "unknown locking algorithm %q", strategy)
	}
}

// CandidatePool returns the nodes eligible for locking: primary inputs,
// primary outputs and plain gates, without lock logic or nodes already locked.
func CandidatePool(c *circuit.Circuit) []circuit.NodeID {
	seen := make(map[circuit.NodeID]bool)
	pool := make([]circuit.NodeID, 0, c.Len())
	add := func(ids []circuit.NodeID) {
		for _, id := range ids {
			if seen[id] || !c.Node(id).IsLockable() {
				continue
			}
			seen[id] = true
			pool = append(pool, id)
		}
	}
	add(c.Inputs())
	add(c.Outputs())
	add(c.Gates())
	return pool
}

// base carries what both strategies share: one random stream seeded once
// per locker, and the insertion step.
type base struct {
	strategy Strategy
	opts     Options
	rng      *rand.Rand
	logger   *utils.Logger
}

func newBase(strategy Strategy, opts Options) base {
	return base{
		strategy: strategy,
		opts:     opts,
		rng:      rand.New(rand.NewSource(opts.Seed)),
		logger:   utils.OrDiscard(opts.Logger).WithField("algorithm", string(strategy)),
	}
}

// insert locks target with the given key bit, choosing XOR or XNOR at random
func (b *base) insert(c *circuit.Circuit, target circuit.NodeID, key bool) (KeyBit, error) {
	gateType := circuit.XOR
	if b.rng.Intn(2) == 1 {
		gateType = circuit.XNOR
	}

	site, err := c.LockNode(target, key, gateType)
	if err != nil {
		return KeyBit{}, err
	}
	b.opts.Metrics.KeyBitInserted(string(b.strategy))

	bit := KeyBit{
		KeyInput: c.Node(site.KeyInput).Name,
		Target:   c.Node(site.Target).Name,
		Gate:     c.Node(site.Gate).Name,
		GateType: site.GateType,
		Value:    key,
	}
	if site.Inverter != circuit.None {
		bit.Inverter = c.Node(site.Inverter).Name
	}
	b.logger.Locking("locked %s with %s %s (key=%v, inverted=%v)", bit.Target, bit.GateType, bit.Gate, key, site.Inverted)
	return bit, nil
}

func (b *base) randomBit() bool {
	return b.rng.Intn(2) == 1
}

func (b *base) lock(ctx context.Context, l Locker, c *circuit.Circuit, sizing Sizing) (*Result, error) {
	if err := sizing.Validate(); err != nil {
		return nil, err
	}
	if sizing.Bits != 0 {
		return l.LockNGates(ctx, c, sizing.Bits)
	}
	return l.LockByPercentage(ctx, c, sizing.Percentage)
}

func (b *base) bitsByPercentage(c *circuit.Circuit, p float64) (int, error) {
	if err := validatePercentage(p); err != nil {
		return 0, err
	}
	pool := len(CandidatePool(c))
	if pool == 0 {
		b.logger.Warning("no lockable nodes left, nothing to lock")
		return 0, nil
	}
	bits := BitsFor(pool, p)
	b.logger.Info("Locking %.4g of %d candidate nodes: %d key bits", p, pool, bits)
	return bits, nil
}

func (b *base) emptyResult() *Result {
	return &Result{Strategy: b.strategy, Seed: b.opts.Seed, Bits: []KeyBit{}}
}

// prepare rejects a bad key bit count and circuits that cannot be locked safely
func prepare(c *circuit.Circuit, keyBits int) error {
	if keyBits <= 0 {
		return errors.Wrapf(circuit.ErrValidation, "key bit count must be positive, got %d", keyBits)
	}
	return c.Validate()
}
