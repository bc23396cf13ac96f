// Package metrics exposes validation and HTTP metrics in the Prometheus format.
//
// Metrics:
//   - yamlcheck_validations_total: verdicts by code ("ok" for passing documents)
//   - yamlcheck_validation_duration_seconds: time spent producing one verdict
//   - yamlcheck_line_lookups_total: line lookups by result (found, missing)
//   - yamlcheck_rule_reloads_total: rules file reloads by result (ok, error)
//   - yamlcheck_http_requests_total: API requests by route, method and status
//   - yamlcheck_http_request_duration_seconds: API request latency by route
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "yamlcheck"

// Collector owns the registry and all metric vectors. It implements validation.Observer.
type Collector struct {
	registry *prometheus.Registry

	validationsTotal   *prometheus.CounterVec
	validationDuration prometheus.Histogram
	lineLookupsTotal   *prometheus.CounterVec
	ruleReloadsTotal   *prometheus.CounterVec
	httpRequestsTotal  *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewCollector creates and registers all metrics. If registry is nil a fresh one is created.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,

		validationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "validations_total",
				Help:      "Total number of validation verdicts by error code",
			},
			[]string{"code"},
		),

		validationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "validation_duration_seconds",
				Help:      "Time spent validating one document",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), // 100us to ~1.6s
			},
		),

		lineLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "line_lookups_total",
				Help:      "Line number lookups for failing keys by result",
			},
			[]string{"result"},
		),

		ruleReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "rule_reloads_total",
				Help:      "Rules file reloads by result",
			},
			[]string{"result"},
		),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"route", "method", "status"},
		),

		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of API requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	registry.MustRegister(
		c.validationsTotal,
		c.validationDuration,
		c.lineLookupsTotal,
		c.ruleReloadsTotal,
		c.httpRequestsTotal,
		c.httpDuration,
	)

	return c
}

// Registry returns the registry the collector registered with.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveVerdict records one verdict and how long it took.
func (c *Collector) ObserveVerdict(code string, elapsed time.Duration) {
	c.validationsTotal.WithLabelValues(code).Inc()
	c.validationDuration.Observe(elapsed.Seconds())
}

// ObserveLineLookup records whether a failing key was found in the source text.
func (c *Collector) ObserveLineLookup(found bool) {
	result := "missing"
	if found {
		result = "found"
	}
	c.lineLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveRuleReload records a rules file reload.
func (c *Collector) ObserveRuleReload(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.ruleReloadsTotal.WithLabelValues(result).Inc()
}

// ObserveRequest records one API request. route is the mux path template, never the raw URL.
func (c *Collector) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	c.httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
