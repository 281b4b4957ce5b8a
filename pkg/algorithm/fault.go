package algorithm

import (
	"context"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/fyerfyer/logic-lock/pkg/circuit"
	"github.com/fyerfyer/logic-lock/pkg/metrics"
	"github.com/fyerfyer/logic-lock/pkg/utils"
)

// DefaultRounds is the number of random input patterns per analysis
const DefaultRounds = 1000

// Impact holds the fault impact counters of one node
type Impact struct {
	Node      circuit.NodeID
	Patterns0 uint64 // Patterns where stuck-at-0 changed at least one output
	Outputs0  uint64 // Output bits changed by stuck-at-0, over all patterns
	Patterns1 uint64 // Same for stuck-at-1
	Outputs1  uint64
}

// Score combines the counters into the fault impact metric
func (i Impact) Score() uint64 {
	return i.Patterns0*i.Outputs0 + i.Patterns1*i.Outputs1
}

// Ranking lists every node by descending fault impact. Nodes with equal
// score keep their circuit order.
type Ranking []Impact

// FaultAnalyzer scores every node by how much a stuck-at fault on it
// disturbs the primary outputs over random input patterns
type FaultAnalyzer struct {
	Rounds  int
	Workers int
	Logger  *utils.Logger
	Metrics *metrics.Recorder
}

// NewFaultAnalyzer creates a new analyzer running the given number of rounds
func NewFaultAnalyzer(rounds int, logger *utils.Logger) *FaultAnalyzer {
	return &FaultAnalyzer{
		Rounds:  rounds,
		Workers: runtime.GOMAXPROCS(0),
		Logger:  utils.OrDiscard(logger),
	}
}

// Run analyzes the circuit. The random patterns come from a private stream
// seeded with seed, so identical (circuit, rounds, seed) give identical
// rankings regardless of the number of workers.
func (fa *FaultAnalyzer) Run(ctx context.Context, c *circuit.Circuit, seed int64) (Ranking, error) {
	if fa.Rounds <= 0 {
		return nil, errors.Wrapf(circuit.ErrValidation, "rounds must be positive, got %d", fa.Rounds)
	}
	logger := utils.OrDiscard(fa.Logger)
	start := time.Now()

	patterns := randomPatterns(rand.New(rand.NewSource(seed)), fa.Rounds, c.NumInputs())

	baseline := make([][]circuit.TriState, len(patterns))
	sim := NewSimulator(c)
	for r, pattern := range patterns {
		values, err := sim.Evaluate(pattern, nil)
		if err != nil {
			return nil, err
		}
		baseline[r] = values.Outputs(c)
		logger.Simulation("pattern %d: %v -> %v", r, pattern, baseline[r])
	}
	fa.Metrics.AddSimulations("none", len(patterns))

	impacts := make([]Impact, c.Len())
	for i := range impacts {
		impacts[i].Node = circuit.NodeID(i)
	}

	workers := fa.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(impacts) {
		workers = len(impacts)
	}

	// Each worker owns a contiguous block of nodes and writes only their
	// counters, so scheduling cannot change the result.
	g, gctx := errgroup.WithContext(ctx)
	chunk := (len(impacts) + workers - 1) / max(workers, 1)
	for lo := 0; lo < len(impacts); lo += chunk {
		hi := min(lo+chunk, len(impacts))
		block := impacts[lo:hi]
		g.Go(func() error {
			return analyzeBlock(gctx, c, patterns, baseline, block)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	fa.Metrics.AddSimulations("sa0", len(patterns)*len(impacts))
	fa.Metrics.AddSimulations("sa1", len(patterns)*len(impacts))

	ranking := Ranking(impacts)
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Score() > ranking[j].Score()
	})

	elapsed := time.Since(start)
	fa.Metrics.ObserveAnalysis(elapsed)
	logger.Analysis("analyzed %d nodes over %d patterns in %v", len(impacts), len(patterns), elapsed)
	if len(ranking) > 0 {
		top := ranking[0]
		logger.Analysis("highest impact: %s score=%d", c.Node(top.Node).Name, top.Score())
	}
	return ranking, nil
}

func analyzeBlock(ctx context.Context, c *circuit.Circuit, patterns, baseline [][]circuit.TriState, block []Impact) error {
	sim := NewSimulator(c)
	for r, pattern := range patterns {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "fault analysis interrupted")
		}
		for i := range block {
			diff0, err := faultyDiff(sim, pattern, baseline[r], block[i].Node, circuit.False)
			if err != nil {
				return err
			}
			diff1, err := faultyDiff(sim, pattern, baseline[r], block[i].Node, circuit.True)
			if err != nil {
				return err
			}
			block[i].record(diff0, diff1)
		}
	}
	return nil
}

// faultyDiff simulates the pattern with node stuck at value and counts the
// output positions that differ from the fault-free outputs.
func faultyDiff(sim *Simulator, pattern, baseline []circuit.TriState, node circuit.NodeID, value circuit.TriState) (uint64, error) {
	values, err := sim.Evaluate(pattern, &Fault{Node: node, Value: value})
	if err != nil {
		return 0, err
	}
	var diff uint64
	for i, out := range sim.outputs {
		if values[out] != baseline[i] {
			diff++
		}
	}
	return diff, nil
}

func (i *Impact) record(diff0, diff1 uint64) {
	if diff0 > 0 {
		i.Patterns0++
		i.Outputs0 += diff0
	}
	if diff1 > 0 {
		i.Patterns1++
		i.Outputs1 += diff1
	}
}

// randomPatterns draws rounds input vectors of width uniformly random bits
func randomPatterns(rng *rand.Rand, rounds, width int) [][]circuit.TriState {
	patterns := make([][]circuit.TriState, rounds)
	for r := range patterns {
		pattern := make([]circuit.TriState, width)
		for i := range pattern {
			pattern[i] = circuit.FromBool(rng.Intn(2) == 1)
		}
		patterns[r] = pattern
	}
	return patterns
}
