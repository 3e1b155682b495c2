// Package metrics exposes Prometheus collectors for the tourbook API: HTTP
// traffic, payloads rejected by the validation gate and outgoing mail.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus collectors of one API instance.
type Collector struct {
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	requestsInFlight   prometheus.Gauge
	validationFailures *prometheus.CounterVec
	emailsTotal        *prometheus.CounterVec
	gatherer           prometheus.Gatherer
}

// Options configures Prometheus metrics collection
type Options struct {
	// DurationBuckets defines histogram buckets for request duration (in seconds)
	DurationBuckets []float64

	// Namespace prefixes every metric name. Default: "tourbook"
	Namespace string
}

// DefaultOptions returns the options used by cmd/api.
func DefaultOptions() Options {
	return Options{
		DurationBuckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		Namespace:       "tourbook",
	}
}

// New creates and registers the collectors with registerer. Passing nil uses
// the process-wide default registry.
func New(opts Options, registerer prometheus.Registerer) *Collector {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	} else if g, ok := registerer.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: opts.Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency distribution",
				Buckets:   opts.DurationBuckets,
			},
			[]string{"method", "path"},
		),
		requestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: opts.Namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being served",
			},
		),
		validationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Name:      "validation_failures_total",
				Help:      "Payloads rejected by the validation gate, per contract",
			},
			[]string{"schema"},
		),
		emailsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Name:      "emails_total",
				Help:      "Outgoing emails by template and outcome",
			},
			[]string{"template", "outcome"},
		),
		gatherer: gatherer,
	}

	registerer.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.requestsInFlight,
		c.validationFailures,
		c.emailsTotal,
	)
	return c
}

// Mount installs the tracking middleware on router and serves the exposition
// format at metricsPath.
//
//	collector := metrics.New(metrics.DefaultOptions(), nil)
//	collector.Mount(r, "/metrics")
func (c *Collector) Mount(router chi.Router, metricsPath string) {
	router.Use(c.Middleware)
	router.Handle(metricsPath, c.Handler())
}

// Handler serves the collected metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// ValidationFailed counts a payload rejected by the named contract.
func (c *Collector) ValidationFailed(schemaName string) {
	c.validationFailures.WithLabelValues(schemaName).Inc()
}

// EmailSent counts an email handed to the mail transport. outcome is "sent"
// or "failed".
func (c *Collector) EmailSent(template, outcome string) {
	c.emailsTotal.WithLabelValues(template, outcome).Inc()
}

// Middleware tracks HTTP request metrics
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.requestsInFlight.Inc()
		defer c.requestsInFlight.Dec()

		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		// The route pattern is only known once chi has routed the request.
		routePattern := getRoutePattern(r)

		c.requestsTotal.WithLabelValues(
			r.Method,
			routePattern,
			strconv.Itoa(ww.statusCode),
		).Inc()

		c.requestDuration.WithLabelValues(
			r.Method,
			routePattern,
		).Observe(time.Since(start).Seconds())
	})
}

// getRoutePattern normalizes "/api/v1/tours/5c88" to "/api/v1/tours/{id}" to
// keep label cardinality bounded.
func getRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return "unmatched"
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
