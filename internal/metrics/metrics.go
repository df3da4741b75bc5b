package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "offcache"

var (
	registerOnce sync.Once

	hits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hits_total",
		Help:      "Reads that returned a valid cached entry",
	})
	misses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "misses_total",
		Help:      "Reads that found nothing usable, by reason",
	}, []string{"reason"})
	writes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "writes_total",
		Help:      "Entries written to the store",
	})
	writeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "write_errors_total",
		Help:      "Entry writes rejected by the store",
	})
	cleanups = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lazy_cleanups_total",
		Help:      "Invalid entries deleted when read",
	})
	cleared = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cleared_entries_total",
		Help:      "Entries removed by clear-all",
	})
)

// Register adds the cache collectors to the default registry (idempotent).
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(hits, misses, writes, writeErrors, cleanups, cleared)
	})
}

// Recorder feeds offline.Service events into the collectors above.
type Recorder struct{}

func (Recorder) Hit()               { hits.Inc() }
func (Recorder) Miss(reason string) { misses.WithLabelValues(reason).Inc() }
func (Recorder) Write()             { writes.Inc() }
func (Recorder) WriteError()        { writeErrors.Inc() }
func (Recorder) Cleanup()           { cleanups.Inc() }
func (Recorder) Cleared(n int)      { cleared.Add(float64(n)) }
