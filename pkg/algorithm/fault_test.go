package algorithm_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/logic-lock/pkg/algorithm"
	"github.com/fyerfyer/logic-lock/pkg/circuit"
)

func impactOf(t *testing.T, ranking algorithm.Ranking, id circuit.NodeID) algorithm.Impact {
	t.Helper()
	for _, impact := range ranking {
		if impact.Node == id {
			return impact
		}
	}
	t.Fatalf("node %d missing from ranking", id)
	return algorithm.Impact{}
}

func TestImpactScore(t *testing.T) {
	impact := algorithm.Impact{Patterns0: 3, Outputs0: 5, Patterns1: 2, Outputs1: 7}
	assert.Equal(t, uint64(3*5+2*7), impact.Score())
}

func TestFaultAnalyzerAnd(t *testing.T) {
	const rounds = 200
	c := parse(t, andBench)
	a, b, f := nodeID(t, c, "a"), nodeID(t, c, "b"), nodeID(t, c, "f")

	ranking, err := algorithm.NewFaultAnalyzer(rounds, nil).Run(context.Background(), c, 7)
	require.NoError(t, err)
	require.Len(t, ranking, c.Len())

	fi, ai, bi := impactOf(t, ranking, f), impactOf(t, ranking, a), impactOf(t, ranking, b)

	// The output flips under exactly one polarity on every pattern
	assert.Equal(t, uint64(rounds), fi.Patterns0+fi.Patterns1)
	assert.Equal(t, fi.Patterns0, fi.Outputs0)
	assert.Equal(t, fi.Patterns1, fi.Outputs1)

	// Stuck-at-0 on an AND input is observable exactly when the output is 1
	assert.Equal(t, fi.Patterns0, ai.Patterns0)
	assert.Equal(t, fi.Patterns0, bi.Patterns0)
	// Stuck-at-1 on one input is observable when it is 0 and the other is 1,
	// and those patterns are disjoint between a and b
	assert.LessOrEqual(t, ai.Patterns1+bi.Patterns1, fi.Patterns1)

	assert.Equal(t, f, ranking[0].Node, "the output has the highest impact")
	for i := 1; i < len(ranking); i++ {
		assert.GreaterOrEqual(t, ranking[i-1].Score(), ranking[i].Score())
	}
}

func TestFaultAnalyzerReproducible(t *testing.T) {
	c := parse(t, simpleBench)
	ctx := context.Background()

	first, err := algorithm.NewFaultAnalyzer(300, nil).Run(ctx, c, 42)
	require.NoError(t, err)
	second, err := algorithm.NewFaultAnalyzer(300, nil).Run(ctx, c, 42)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same seed gave different rankings (-first +second):\n%s", diff)
	}

	for _, workers := range []int{1, 2, 3, 16} {
		analyzer := algorithm.NewFaultAnalyzer(300, nil)
		analyzer.Workers = workers
		got, err := analyzer.Run(ctx, c, 42)
		require.NoError(t, err)
		if diff := cmp.Diff(first, got); diff != "" {
			t.Errorf("%d workers changed the ranking (-want +got):\n%s", workers, diff)
		}
	}
}

func TestFaultAnalyzerTiesKeepCircuitOrder(t *testing.T) {
	// Two identical, independent cones score the same
	c := parse(t, `
INPUT(a)
INPUT(b)
OUTPUT(x)
OUTPUT(y)
x = BUF(a)
y = BUF(b)
`)
	ranking, err := algorithm.NewFaultAnalyzer(64, nil).Run(context.Background(), c, 1)
	require.NoError(t, err)

	// Every node flips its own output on every pattern under one polarity
	for _, impact := range ranking {
		assert.Equal(t, uint64(64), impact.Patterns0+impact.Patterns1)
	}
	for i := 1; i < len(ranking); i++ {
		if ranking[i-1].Score() == ranking[i].Score() {
			assert.Less(t, ranking[i-1].Node, ranking[i].Node)
		}
	}
}

func TestFaultAnalyzerSeesLockLogic(t *testing.T) {
	c := parse(t, andBench)
	site, err := c.LockNode(nodeID(t, c, "f"), true, circuit.XOR)
	require.NoError(t, err)

	ranking, err := algorithm.NewFaultAnalyzer(100, nil).Run(context.Background(), c, 3)
	require.NoError(t, err)
	require.Len(t, ranking, c.Len())

	key := impactOf(t, ranking, site.KeyInput)
	assert.Equal(t, uint64(100), key.Patterns0+key.Patterns1, "a key bit at the output always matters")
}

func TestFaultAnalyzerErrors(t *testing.T) {
	c := parse(t, andBench)

	_, err := algorithm.NewFaultAnalyzer(0, nil).Run(context.Background(), c, 1)
	assert.ErrorIs(t, err, circuit.ErrValidation)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = algorithm.NewFaultAnalyzer(100, nil).Run(ctx, c, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
