package algorithm

import (
	"context"

	"github.com/pkg/errors"

	"github.com/fyerfyer/logic-lock/pkg/circuit"
)

// RandomLocker picks key gate locations uniformly at random
type RandomLocker struct {
	base
}

// NewRandomLocker creates a random locker
func NewRandomLocker(opts Options) *RandomLocker {
	return &RandomLocker{base: newBase(RandomStrategy, opts)}
}

// Lock dispatches on the sizing mode
func (rl *RandomLocker) Lock(ctx context.Context, c *circuit.Circuit, sizing Sizing) (*Result, error) {
	return rl.lock(ctx, rl, c, sizing)
}

// LockByPercentage locks ceil(pool * p) randomly chosen nodes
func (rl *RandomLocker) LockByPercentage(ctx context.Context, c *circuit.Circuit, p float64) (*Result, error) {
	bits, err := rl.bitsByPercentage(c, p)
	if err != nil {
		return nil, err
	}
	if bits == 0 {
		return rl.emptyResult(), nil
	}
	return rl.LockNGates(ctx, c, bits)
}

// LockNGates shuffles the candidate pool and locks the first keyBits nodes.
// A request larger than the pool is clamped with a warning.
func (rl *RandomLocker) LockNGates(ctx context.Context, c *circuit.Circuit, keyBits int) (*Result, error) {
	if err := prepare(c, keyBits); err != nil {
		return nil, err
	}

	pool := CandidatePool(c)
	rl.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	n := keyBits
	if n > len(pool) {
		rl.logger.Warning("key bits (%d) exceed the number of lockable nodes (%d), locking %d", keyBits, len(pool), len(pool))
		n = len(pool)
	}

	key := make([]bool, n)
	for i := range key {
		key[i] = rl.randomBit()
	}

	result := &Result{Strategy: RandomStrategy, Seed: rl.opts.Seed, Bits: make([]KeyBit, 0, n)}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return result, errors.Wrapf(err, "locking interrupted after %d of %d key bits", i, n)
		}
		bit, err := rl.insert(c, pool[i], key[i])
		if err != nil {
			return result, err
		}
		result.Bits = append(result.Bits, bit)
	}

	rl.logger.Info("Key: %s", result.KeyString())
	return result, nil
}
