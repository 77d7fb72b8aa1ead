// Package metrics holds the Prometheus collectors shared by the picker
// components.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "mediapicker"

// Provider request outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeEmpty      = "empty"
	OutcomeBadStatus  = "bad_status"
	OutcomeBadBody    = "bad_body"
	OutcomeNoResponse = "no_response"
)

var (
	// Registry holds the picker collectors. It is separate from the default
	// registry so tests and embedders control exposition.
	Registry = prometheus.NewRegistry()

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "TTL cache lookups by kind and result.",
		},
		[]string{"kind", "result"},
	)

	providerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Provider requests by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	providerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "request_duration_seconds",
			Help:      "Provider round-trip latency.",
			Buckets:   prometheus.ExponentialBuckets(0.025, 2, 9), // 25ms to ~6.4s
		},
		[]string{"kind"},
	)

	normalizeRejects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "rejected_total",
			Help:      "Provider records dropped during normalization.",
		},
		[]string{"kind", "reason"},
	)

	staleResults = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "stale_results_total",
			Help:      "Fetch results discarded because a newer selection was issued.",
		},
	)
)

func init() {
	Registry.MustRegister(cacheLookups, providerRequests, providerDuration, normalizeRejects, staleResults)
}

func RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(kind, result).Inc()
}

func RecordProviderRequest(kind, outcome string, d time.Duration) {
	providerRequests.WithLabelValues(kind, outcome).Inc()
	providerDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func RecordReject(kind, reason string) {
	normalizeRejects.WithLabelValues(kind, reason).Inc()
}

func RecordStale() {
	staleResults.Inc()
}

// CacheLookups exposes the lookup counter for a kind/result pair.
func CacheLookups(kind, result string) prometheus.Counter {
	return cacheLookups.WithLabelValues(kind, result)
}

// ProviderRequests exposes the request counter for a kind/outcome pair.
func ProviderRequests(kind, outcome string) prometheus.Counter {
	return providerRequests.WithLabelValues(kind, outcome)
}

func Rejects(kind, reason string) prometheus.Counter {
	return normalizeRejects.WithLabelValues(kind, reason)
}

func StaleResults() prometheus.Counter {
	return staleResults
}

// WriteText gathers Registry and writes it to w in the Prometheus text
// exposition format.
func WriteText(w io.Writer) error {
	families, err := Registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
