package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "popquery"

// Collector records engine activity. A nil *Collector is valid and records
// nothing, which keeps metrics optional for library callers and tests.
type Collector struct {
	preprocessSeconds *prometheus.HistogramVec
	queries           *prometheus.CounterVec
	cacheHits         prometheus.Counter
	records           prometheus.Gauge
	cells             prometheus.Gauge
}

// New creates a Collector and registers it with reg
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		preprocessSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "preprocess_duration_seconds",
			Help:      "Time spent building the query index.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"variant", "outcome"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Population queries answered, by variant and outcome.",
		}, []string{"variant", "outcome"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_cache_hits_total",
			Help:      "Queries answered from the result cache.",
		}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "census_records",
			Help:      "Number of census records loaded.",
		}),
		cells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grid_cells",
			Help:      "Number of cells in the current grid.",
		}),
	}
	reg.MustRegister(c.preprocessSeconds, c.queries, c.cacheHits, c.records, c.cells)
	return c
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObservePreprocess records one preprocessing run
func (c *Collector) ObservePreprocess(variant string, rows, cols int, d time.Duration, err error) {
	if c == nil {
		return
	}
	c.preprocessSeconds.WithLabelValues(variant, outcome(err)).Observe(d.Seconds())
	if err == nil {
		c.cells.Set(float64(rows * cols))
	}
}

// ObserveQuery records one query
func (c *Collector) ObserveQuery(variant string, err error) {
	if c == nil {
		return
	}
	c.queries.WithLabelValues(variant, outcome(err)).Inc()
}

// CacheHit records a query served from the cache
func (c *Collector) CacheHit() {
	if c == nil {
		return
	}
	c.cacheHits.Inc()
}

// SetRecords records the size of the loaded census data
func (c *Collector) SetRecords(n int) {
	if c == nil {
		return
	}
	c.records.Set(float64(n))
}
