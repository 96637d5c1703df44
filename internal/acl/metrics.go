package acl

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains ACL authorizer metrics.
type Metrics struct {
	registerer prometheus.Registerer

	// decisionTotal counts authorization decisions.
	decisionTotal *prometheus.CounterVec

	// evaluationDuration measures decision latency.
	evaluationDuration prometheus.Histogram

	// cacheHits counts verdict cache hits.
	cacheHits prometheus.Counter

	// cacheMisses counts verdict cache misses.
	cacheMisses prometheus.Counter

	// reloadTotal counts reload attempts by result.
	reloadTotal *prometheus.CounterVec

	// ruleCount tracks the number of active rules.
	ruleCount prometheus.Gauge
}

// NewMetrics creates new authorizer metrics registered with
// prometheus.DefaultRegisterer so they are automatically exposed on
// the default /metrics endpoint.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer creates a new Metrics instance with a custom
// registerer. This is useful for registering metrics with the admin
// server's registry so they appear on its /metrics endpoint.
func NewMetricsWithRegisterer(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "authorizer"
	}

	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		registerer: registerer,
	}

	m.decisionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acl",
			Name:      "decision_total",
			Help:      "Total number of authorization decisions",
		},
		[]string{"verdict", "cached"},
	)

	m.evaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "acl",
			Name:      "evaluation_duration_seconds",
			Help:      "Authorization evaluation duration in seconds",
			Buckets:   []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		},
	)

	m.cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acl",
			Name:      "cache_hits_total",
			Help:      "Total number of verdict cache hits",
		},
	)

	m.cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acl",
			Name:      "cache_misses_total",
			Help:      "Total number of verdict cache misses",
		},
	)

	m.reloadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acl",
			Name:      "reload_total",
			Help:      "Total number of rule reload attempts",
		},
		[]string{"result"},
	)

	m.ruleCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "acl",
			Name:      "rule_count",
			Help:      "Number of active ACL rules",
		},
	)

	// Register all metrics with the provided registerer, ignoring duplicates.
	collectors := []prometheus.Collector{
		m.decisionTotal,
		m.evaluationDuration,
		m.cacheHits,
		m.cacheMisses,
		m.reloadTotal,
		m.ruleCount,
	}
	for _, c := range collectors {
		_ = registerer.Register(c)
	}

	return m
}

// Init pre-initializes common label combinations with zero values so
// that metrics appear in /metrics output immediately after startup.
// Prometheus *Vec types only emit metric lines after WithLabelValues()
// is called at least once. This method is idempotent and safe to call
// multiple times.
func (m *Metrics) Init() {
	if m == nil {
		return
	}
	for _, verdict := range []string{"allow", "deny"} {
		for _, cached := range []string{"true", "false"} {
			m.decisionTotal.WithLabelValues(verdict, cached)
		}
	}
	for _, result := range []string{"changed", "unchanged", "failure"} {
		m.reloadTotal.WithLabelValues(result)
	}
}

// RecordDecision records an authorization decision.
func (m *Metrics) RecordDecision(allowed, cached bool, duration time.Duration) {
	if m == nil || m.decisionTotal == nil {
		return
	}
	verdict := "deny"
	if allowed {
		verdict = "allow"
	}
	cachedLabel := "false"
	if cached {
		cachedLabel = "true"
	}
	m.decisionTotal.WithLabelValues(verdict, cachedLabel).Inc()
	m.evaluationDuration.Observe(duration.Seconds())
}

// RecordCacheHit records a verdict cache hit.
func (m *Metrics) RecordCacheHit() {
	if m == nil || m.cacheHits == nil {
		return
	}
	m.cacheHits.Inc()
}

// RecordCacheMiss records a verdict cache miss.
func (m *Metrics) RecordCacheMiss() {
	if m == nil || m.cacheMisses == nil {
		return
	}
	m.cacheMisses.Inc()
}

// RecordReload records a reload attempt result.
func (m *Metrics) RecordReload(result string) {
	if m == nil || m.reloadTotal == nil {
		return
	}
	m.reloadTotal.WithLabelValues(result).Inc()
}

// SetRuleCount sets the active rule count.
func (m *Metrics) SetRuleCount(count int) {
	if m == nil || m.ruleCount == nil {
		return
	}
	m.ruleCount.Set(float64(count))
}
