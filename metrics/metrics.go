// Package metrics exposes Prometheus collectors for conversion runs.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache lookup results.
const (
	LookupExact     = "exact"
	LookupFuzzy     = "fuzzy"
	LookupMiss      = "miss"
	LookupDuplicate = "duplicate"
	LookupResumed   = "resumed"
)

// Item outcomes.
const (
	ItemSucceeded = "succeeded"
	ItemMalformed = "malformed"
	ItemExhausted = "exhausted"
)

var (
	cacheLookupsTotal   *prometheus.CounterVec
	serviceCallsTotal   *prometheus.CounterVec
	serviceCallDuration *prometheus.HistogramVec
	itemsTotal          *prometheus.CounterVec
	tokensTotal         *prometheus.CounterVec
	documentsTotal      *prometheus.CounterVec
	activeWorkers       prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "themeconv_cache_lookups_total",
				Help: "Fragment lookups before transformation, labeled by result.",
			},
			[]string{"result"},
		)

		serviceCallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "themeconv_service_calls_total",
				Help: "Calls to the transformation service, labeled by mode and status.",
			},
			[]string{"mode", "status"},
		)

		serviceCallDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "themeconv_service_call_duration_seconds",
				Help:    "Histogram of transformation service call latencies, labeled by mode.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"mode"},
		)

		itemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "themeconv_items_total",
				Help: "Per-fragment outcomes within pipeline rounds, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		tokensTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "themeconv_tokens_total",
				Help: "Tokens consumed by the transformation service, labeled by direction.",
			},
			[]string{"direction"},
		)

		documentsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "themeconv_documents_total",
				Help: "Documents processed by the orchestrator, labeled by status.",
			},
			[]string{"status"},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "themeconv_active_workers",
				Help: "Number of workers currently processing a document.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveLookup counts a cache lookup result.
func ObserveLookup(result string) {
	Init()
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveServiceCall records one call to the transformation service.
func ObserveServiceCall(mode string, err error, duration time.Duration) {
	Init()
	status := "ok"
	if err != nil {
		status = "error"
	}
	serviceCallsTotal.WithLabelValues(mode, status).Inc()
	serviceCallDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// ObserveItem counts a fragment outcome.
func ObserveItem(outcome string) {
	Init()
	itemsTotal.WithLabelValues(outcome).Inc()
}

// ObserveTokens adds token counts.
func ObserveTokens(input, output int) {
	Init()
	if input > 0 {
		tokensTotal.WithLabelValues("input").Add(float64(input))
	}
	if output > 0 {
		tokensTotal.WithLabelValues("output").Add(float64(output))
	}
}

// ObserveDocument counts a finished document.
func ObserveDocument(err error) {
	Init()
	status := "ok"
	if err != nil {
		status = "error"
	}
	documentsTotal.WithLabelValues(status).Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	Init()
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	Init()
	activeWorkers.Dec()
}
