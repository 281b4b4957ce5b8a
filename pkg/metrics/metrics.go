// Package metrics records counters about a locking run in a private
// Prometheus registry that can be dumped to a text file for node exporters.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	StrategyLabel = "strategy"
	FaultLabel    = "fault"
)

// Recorder holds the collectors of one run. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	simulations      *prometheus.CounterVec
	keyBits          *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	analysisRuns     prometheus.Counter
}

// NewRecorder creates a recorder with all collectors registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		simulations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logiclock_simulations_total",
				Help: "Monotonic count of circuit simulations, by injected fault",
			},
			[]string{FaultLabel},
		),
		keyBits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logiclock_key_bits_inserted_total",
				Help: "Monotonic count of key gates inserted, by locking strategy",
			},
			[]string{StrategyLabel},
		),
		analysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "logiclock_fault_analysis_duration_seconds",
				Help:    "Duration of one fault impact analysis pass",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),
		analysisRuns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "logiclock_fault_analysis_runs_total",
				Help: "Monotonic count of fault impact analysis passes",
			},
		),
	}
	r.registry.MustRegister(r.simulations, r.keyBits, r.analysisDuration, r.analysisRuns)
	return r
}

// Registry exposes the underlying registry, e.g. for tests
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// AddSimulations counts n simulations run with the given fault label
// ("none", "sa0" or "sa1")
func (r *Recorder) AddSimulations(fault string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.simulations.WithLabelValues(fault).Add(float64(n))
}

// KeyBitInserted counts one inserted key gate
func (r *Recorder) KeyBitInserted(strategy string) {
	if r == nil {
		return
	}
	r.keyBits.WithLabelValues(strategy).Inc()
}

// ObserveAnalysis records the duration of one analysis pass
func (r *Recorder) ObserveAnalysis(d time.Duration) {
	if r == nil {
		return
	}
	r.analysisRuns.Inc()
	r.analysisDuration.Observe(d.Seconds())
}

// WriteTextfile writes the current metric values in the Prometheus text format
func (r *Recorder) WriteTextfile(filename string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(filename, r.registry); err != nil {
		return errors.Wrapf(err, "failed to write metrics to %s", filename)
	}
	return nil
}
