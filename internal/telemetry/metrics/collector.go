// Package metrics exposes Prometheus counters for analysis runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "mapcheck"

// Skip reasons.
const (
	ReasonUnresolvable = "unresolvable"
	ReasonNotMapping   = "not_registration"
)

// Collector records analysis metrics on its own registry.
//
// Metrics:
//   - mapcheck_sites_analyzed_total: registration sites dispatched to rules
//   - mapcheck_sites_skipped_total: sites excluded from every rule, by reason
//   - mapcheck_findings_total: findings reported, by rule id
//   - mapcheck_site_duration_seconds: time spent on one site
//
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	sitesAnalyzed prometheus.Counter
	sitesSkipped  *prometheus.CounterVec
	findings      *prometheus.CounterVec
	siteDuration  prometheus.Histogram
}

// NewCollector creates a collector registered on registry. If registry is
// nil, a fresh one is created.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		sitesAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sites_analyzed_total",
			Help:      "Total number of mapping registration sites analyzed",
		}),
		sitesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "sites_skipped_total",
				Help:      "Total number of registration sites skipped",
			},
			[]string{"reason"},
		),
		findings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "findings_total",
				Help:      "Total number of findings reported",
			},
			[]string{"rule"},
		),
		siteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "site_duration_seconds",
			Help:      "Duration of one registration site analysis in seconds",
			// Sites are small; 10µs to ~80ms
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14),
		}),
	}

	registry.MustRegister(
		c.sitesAnalyzed,
		c.sitesSkipped,
		c.findings,
		c.siteDuration,
	)

	return c
}

// Registry returns the registry the metrics are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}

	return c.registry
}

// SiteAnalyzed records one dispatched site and its duration.
func (c *Collector) SiteAnalyzed(duration time.Duration) {
	if c == nil {
		return
	}

	c.sitesAnalyzed.Inc()
	c.siteDuration.Observe(duration.Seconds())
}

// SiteSkipped records one site excluded from all rules.
func (c *Collector) SiteSkipped(reason string) {
	if c == nil {
		return
	}

	c.sitesSkipped.WithLabelValues(reason).Inc()
}

// Finding records one reported finding.
func (c *Collector) Finding(rule string) {
	if c == nil {
		return
	}

	c.findings.WithLabelValues(rule).Inc()
}
