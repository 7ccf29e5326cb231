package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/blobdrop/internal"
)

// DefaultMetricsNamespace is used when no namespace is configured.
const DefaultMetricsNamespace = "blobdrop"

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Registry receives the collectors and backs Handler.
	// Default: a fresh prometheus.Registry.
	Registry *prometheus.Registry

	// ConstLabels are added to all metrics.
	ConstLabels prometheus.Labels

	// Namespace prefixes metric names (default: "blobdrop").
	Namespace string

	// Buckets are the request duration histogram buckets.
	// Default: prometheus.DefBuckets
	Buckets []float64
}

// MetricsOption configures MetricsConfig.
type MetricsOption func(*MetricsConfig)

// WithMetricsNamespace sets the metrics namespace.
func WithMetricsNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		if namespace != "" {
			c.Namespace = namespace
		}
	}
}

// WithMetricsRegistry sets the Prometheus registry.
func WithMetricsRegistry(registry *prometheus.Registry) MetricsOption {
	return func(c *MetricsConfig) {
		if registry != nil {
			c.Registry = registry
		}
	}
}

// WithMetricsConstLabels sets constant labels for all metrics.
func WithMetricsConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithMetricsBuckets sets the duration histogram buckets.
func WithMetricsBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		if len(buckets) > 0 {
			c.Buckets = buckets
		}
	}
}

// Metrics holds the service's Prometheus collectors.
//
// Collected:
//   - <ns>_http_requests_total{method,route,status}
//   - <ns>_http_request_duration_seconds{method,route}
//   - <ns>_uploads_total{outcome}
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	uploadsTotal    *prometheus.CounterVec
}

// NewMetrics registers the collectors on the configured registry.
// Registering twice on the same registry panics, as promauto does.
func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := MetricsConfig{
		Namespace: DefaultMetricsNamespace,
		Buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	factory := promauto.With(cfg.Registry)

	return &Metrics{
		registry: cfg.Registry,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests handled",
			ConstLabels: cfg.ConstLabels,
		}, []string{"method", "route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}, []string{"method", "route"}),

		uploadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "uploads_total",
			Help:        "Upload attempts by outcome",
			ConstLabels: cfg.ConstLabels,
		}, []string{"outcome"}),
	}
}

// Middleware records request count and duration.
// The route label is chi's matched pattern, so wildcard paths share one series.
func (m *Metrics) Middleware() internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			start := time.Now()
			err := next(c)

			r := c.Request()
			route := routePattern(r)
			status := c.ResponseWriter().Status()
			if err != nil && !c.Written() {
				status = http.StatusInternalServerError
			}

			m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()

			return err
		}
	}
}

// RecordUpload counts one upload attempt with the given outcome.
func (m *Metrics) RecordUpload(outcome string) {
	m.uploadsTotal.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
