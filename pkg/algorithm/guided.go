package algorithm

import (
	"context"

	"github.com/pkg/errors"

	"github.com/fyerfyer/logic-lock/pkg/circuit"
)

// FaultLocker greedily locks the node with the highest fault impact,
// re-analyzing the circuit after every insertion
type FaultLocker struct {
	base
	analyzer *FaultAnalyzer
}

// NewFaultLocker creates a fault-impact guided locker
func NewFaultLocker(opts Options) *FaultLocker {
	if opts.Rounds == 0 {
		opts.Rounds = DefaultRounds
	}
	fl := &FaultLocker{base: newBase(FaultImpactStrategy, opts)}
	fl.analyzer = NewFaultAnalyzer(opts.Rounds, fl.logger)
	if opts.Workers > 0 {
		fl.analyzer.Workers = opts.Workers
	}
	fl.analyzer.Metrics = opts.Metrics
	return fl
}

// Lock dispatches on the sizing mode
func (fl *FaultLocker) Lock(ctx context.Context, c *circuit.Circuit, sizing Sizing) (*Result, error) {
	return fl.lock(ctx, fl, c, sizing)
}

// LockByPercentage locks ceil(pool * p) nodes
func (fl *FaultLocker) LockByPercentage(ctx context.Context, c *circuit.Circuit, p float64) (*Result, error) {
	bits, err := fl.bitsByPercentage(c, p)
	if err != nil {
		return nil, err
	}
	if bits == 0 {
		return fl.emptyResult(), nil
	}
	return fl.LockNGates(ctx, c, bits)
}

// LockNGates inserts keyBits key gates one at a time. Each round runs a fresh
// analysis of the current circuit, lock gates included, and locks the best
// ranked node that is still lockable. Stops early with a warning when no
// lockable node remains.
func (fl *FaultLocker) LockNGates(ctx context.Context, c *circuit.Circuit, keyBits int) (*Result, error) {
	if err := prepare(c, keyBits); err != nil {
		return nil, err
	}

	result := &Result{Strategy: FaultImpactStrategy, Seed: fl.opts.Seed, Bits: make([]KeyBit, 0, keyBits)}
	for i := 0; i < keyBits; i++ {
		if err := ctx.Err(); err != nil {
			return result, errors.Wrapf(err, "locking interrupted after %d of %d key bits", i, keyBits)
		}

		ranking, err := fl.analyzer.Run(ctx, c, fl.opts.Seed)
		if err != nil {
			return result, err
		}

		target := selectTarget(c, ranking)
		if target == circuit.None {
			fl.logger.Warning("key bits (%d) exceed the number of lockable nodes, locked %d", keyBits, i)
			break
		}

		bit, err := fl.insert(c, target, fl.randomBit())
		if err != nil {
			return result, err
		}
		result.Bits = append(result.Bits, bit)
		fl.logger.Debug("Key bit %d/%d: %s", i+1, keyBits, bit.Target)
	}

	fl.logger.Info("Key: %s", result.KeyString())
	return result, nil
}

// selectTarget returns the best ranked node that may still be locked
func selectTarget(c *circuit.Circuit, ranking Ranking) circuit.NodeID {
	for _, impact := range ranking {
		if c.Node(impact.Node).IsLockable() {
			return impact.Node
		}
	}
	return circuit.None
}
