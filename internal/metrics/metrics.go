// Package metrics exposes prometheus counters for import runs.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	rowsTotal *prometheus.CounterVec
	runsTotal *prometheus.CounterVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		rowsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timetrack",
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Rows processed by the importer, by outcome.",
		}, []string{"outcome", "mode"}),
		runsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timetrack",
			Subsystem: "import",
			Name:      "runs_total",
			Help:      "Finished import runs, by result.",
		}, []string{"result", "mode"}),
	}
})

// RunCounts is the subset of an import result the counters need.
type RunCounts struct {
	Imported int
	Skipped  int
	Errors   int
	Synced   int
}

// ObserveRun records one finished run. failed runs only bump the run counter.
func ObserveRun(counts RunCounts, dryRun, failed bool) {
	m := metricsSingleton()
	mode := modeLabel(dryRun)
	if failed {
		m.runsTotal.WithLabelValues("failed", mode).Inc()
		return
	}
	m.runsTotal.WithLabelValues("ok", mode).Inc()
	m.rowsTotal.WithLabelValues("imported", mode).Add(float64(counts.Imported))
	m.rowsTotal.WithLabelValues("skipped", mode).Add(float64(counts.Skipped))
	m.rowsTotal.WithLabelValues("errored", mode).Add(float64(counts.Errors))
	m.rowsTotal.WithLabelValues("synced", mode).Add(float64(counts.Synced))
}

func modeLabel(dryRun bool) string {
	if dryRun {
		return "dry_run"
	}
	return "write"
}
