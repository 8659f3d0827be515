// Package metrics registers the checker's Prometheus series and dumps them
// to a textfile collector file, the idiomatic shape for a one-shot batch
// job: there is no long-running process to scrape, so each run writes its
// own metrics.prom for node_exporter to pick up on its next sweep.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/elevio/tracecheck/internal/domain"
)

const namespace = "tracecheck"

var (
	registry = prometheus.NewRegistry()

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Violations recorded by category for the most recent checker run.",
		},
		[]string{"category"},
	)

	runtimeSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "runtime_seconds",
		Help:      "Runtime of the replayed trace (its last log tick), in simulated seconds.",
	})

	weightedWaitSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "weighted_wait_seconds",
		Help:      "Priority-weighted average passenger wait time for the most recent run.",
	})

	energyWatt = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "energy_watt",
		Help:      "Accumulated motion and door energy for the most recent run.",
	})

	accepted = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "accepted",
		Help:      "1 if the most recent run had zero violations, 0 otherwise.",
	})
)

func init() {
	registry.MustRegister(errorsTotal, runtimeSeconds, weightedWaitSeconds, energyWatt, accepted)
}

// RecordCategory increments the error counter for category by count.
func RecordCategory(category domain.ErrCategory, count int) {
	errorsTotal.WithLabelValues(string(category)).Add(float64(count))
}

// RecordRun publishes a run's final statistics as gauges.
func RecordRun(run domain.RunSnapshot) {
	runtimeSeconds.Set(run.RuntimeSec)
	weightedWaitSeconds.Set(run.WeightedWait)
	energyWatt.Set(run.EnergyWatt)
	if run.Accepted {
		accepted.Set(1)
	} else {
		accepted.Set(0)
	}
}

// WriteTextfile dumps the registry to path in the node_exporter textfile
// collector format. prometheus.WriteToTextfile writes a temporary file and
// renames it over path, so the collector never reads a partially written
// file.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("writing prometheus textfile %q: %w", path, err)
	}
	return nil
}
