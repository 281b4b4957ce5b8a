package metrics_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/logic-lock/pkg/metrics"
)

func TestNilRecorder(t *testing.T) {
	var r *metrics.Recorder
	r.AddSimulations("sa0", 10)
	r.KeyBitInserted("RLL")
	r.ObserveAnalysis(time.Second)
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "never.prom")))
}

func TestRecorderTextfile(t *testing.T) {
	r := metrics.NewRecorder()
	r.AddSimulations("none", 100)
	r.AddSimulations("sa0", 400)
	r.AddSimulations("sa0", 0)
	r.KeyBitInserted("RLL")
	r.KeyBitInserted("RLL")
	r.ObserveAnalysis(5 * time.Millisecond)

	families, err := r.Registry().Gather()
	require.NoError(t, err)
	assert.Len(t, families, 4)

	filename := filepath.Join(t.TempDir(), "run.prom")
	require.NoError(t, r.WriteTextfile(filename))
	data, err := os.ReadFile(filename)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `logiclock_simulations_total{fault="none"} 100`)
	assert.Contains(t, text, `logiclock_simulations_total{fault="sa0"} 400`)
	assert.Contains(t, text, `logiclock_key_bits_inserted_total{strategy="RLL"} 2`)
	assert.Contains(t, text, `logiclock_fault_analysis_runs_total 1`)
	assert.Contains(t, text, `logiclock_fault_analysis_duration_seconds_count 1`)
}
