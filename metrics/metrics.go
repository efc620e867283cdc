// Package metrics records server metrics with Prometheus. All methods are safe on a nil *Recorder.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docserve"

// Recorder holds the Prometheus collectors of the server.
type Recorder struct {
	reg            *prom.Registry
	requests       *prom.CounterVec
	requestLatency *prom.HistogramVec
	fetchLatency   *prom.HistogramVec
	fetchResults   *prom.CounterVec
	compileLatency prom.Histogram
	invalidations  prom.Counter
	warmed         prom.Gauge
}

// New creates a Recorder and registers its collectors with reg.
// If reg is nil, a new registry is used.
func New(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		reg: reg,
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		requestLatency: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prom.DefBuckets,
		}, []string{"route"}),
		fetchLatency: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "source_fetch_duration_seconds",
			Help:      "Duration of content source fetches by kind",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"}),
		fetchResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetch_results_total",
			Help:      "Content source fetches by kind and outcome",
		}, []string{"kind", "result"}),
		compileLatency: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Duration of Markdown compilation",
			Buckets:   prom.DefBuckets,
		}),
		invalidations: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations_total",
			Help:      "Content cache invalidations",
		}),
		warmed: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "warmed_articles",
			Help:      "Articles fetched by the last cache warm-up",
		}),
	}
	reg.MustRegister(r.requests, r.requestLatency, r.fetchLatency, r.fetchResults, r.compileLatency, r.invalidations, r.warmed)
	return r
}

// ObserveRequest records a served HTTP request.
func (r *Recorder) ObserveRequest(route, method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.requestLatency.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveFetch records a content source fetch. Result is "ok", "not_found" or "error".
func (r *Recorder) ObserveFetch(kind, result string, d time.Duration) {
	if r == nil {
		return
	}
	r.fetchLatency.WithLabelValues(kind).Observe(d.Seconds())
	r.fetchResults.WithLabelValues(kind, result).Inc()
}

// ObserveCompile records a Markdown compilation.
func (r *Recorder) ObserveCompile(d time.Duration) {
	if r == nil {
		return
	}
	r.compileLatency.Observe(d.Seconds())
}

// IncInvalidations counts a cache invalidation.
func (r *Recorder) IncInvalidations() {
	if r == nil {
		return
	}
	r.invalidations.Inc()
}

// SetWarmed records the number of articles fetched by a warm-up.
func (r *Recorder) SetWarmed(n int) {
	if r == nil {
		return
	}
	r.warmed.Set(float64(n))
}

// CacheStats are the counters of a groupcache group.
type CacheStats struct {
	Gets      int64 // lookups, including hits
	Hits      int64
	Evictions int64
	Bytes     int64 // current size
	Items     int64 // current entries
}

// RegisterCache exports the statistics of the named cache. stats is called on every scrape.
func (r *Recorder) RegisterCache(name string, stats func() CacheStats) error {
	if r == nil {
		return nil
	}
	labels := prom.Labels{"cache": name}
	counter := func(metric, help string, value func(CacheStats) int64) prom.Collector {
		return prom.NewCounterFunc(prom.CounterOpts{
			Namespace:   namespace,
			Name:        metric,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return float64(value(stats())) })
	}
	gauge := func(metric, help string, value func(CacheStats) int64) prom.Collector {
		return prom.NewGaugeFunc(prom.GaugeOpts{
			Namespace:   namespace,
			Name:        metric,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return float64(value(stats())) })
	}
	for _, c := range []prom.Collector{
		counter("cache_gets_total", "Cache lookups", func(s CacheStats) int64 { return s.Gets }),
		counter("cache_hits_total", "Cache hits", func(s CacheStats) int64 { return s.Hits }),
		counter("cache_evictions_total", "Cache evictions", func(s CacheStats) int64 { return s.Evictions }),
		gauge("cache_bytes", "Bytes held by the cache", func(s CacheStats) int64 { return s.Bytes }),
		gauge("cache_items", "Entries held by the cache", func(s CacheStats) int64 { return s.Items }),
	} {
		if err := r.reg.Register(c); err != nil {
			return fmt.Errorf("RegisterCache %s: %w", name, err)
		}
	}
	return nil
}

// Handler serves the metrics of the registry.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
