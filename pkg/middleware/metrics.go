package middleware

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/upform/pkg/client"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "upform").
	Namespace string

	// Subsystem is the metrics subsystem (default: "client").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "upform",
		Subsystem: "client",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the request metrics recorded by the middleware.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec
	inFlight        prometheus.Gauge
}

// NewMetrics creates and registers the request metrics. Metrics already
// registered under the same names are reused, so several clients can share
// one registry.
//
// Metrics collected:
//   - upform_client_requests_total: Counter of requests by method and status
//   - upform_client_request_duration_seconds: Histogram of request duration
//   - upform_client_request_errors_total: Counter of failures by method and error type
//   - upform_client_requests_in_flight: Gauge of requests awaiting a response
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}

	return &Metrics{
		requestsTotal: register(config.Registry, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "requests_total",
			Help:        "Total number of form submissions sent",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "status"})),

		requestDuration: register(config.Registry, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "request_duration_seconds",
			Help:        "Form submission round trip duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"method"})),

		requestErrors: register(config.Registry, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "request_errors_total",
			Help:        "Total number of failed form submissions",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "error_type"})),

		inFlight: register(config.Registry, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "requests_in_flight",
			Help:        "Number of form submissions awaiting a response",
			ConstLabels: config.ConstLabels,
		})),
	}
}

// register registers c, returning the existing collector when an
// identical one is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if stderrors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Middleware returns client middleware recording into m.
func (m *Metrics) Middleware() client.Middleware {
	return func(next client.Doer) client.Doer {
		return client.DoerFunc(func(req *http.Request) (*http.Response, error) {
			method := req.Method

			m.inFlight.Inc()
			start := time.Now()
			resp, err := next.Do(req)
			m.inFlight.Dec()
			m.requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

			if err != nil {
				m.requestsTotal.WithLabelValues(method, "error").Inc()
				m.requestErrors.WithLabelValues(method, categorizeError(err)).Inc()
				return resp, err
			}

			m.requestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
			if resp.StatusCode >= 400 {
				m.requestErrors.WithLabelValues(method, categorizeStatus(resp.StatusCode)).Inc()
			}
			return resp, nil
		})
	}
}

// Prometheus creates client middleware that records request metrics.
//
// Example:
//
//	c := client.New(cfg, client.WithMiddleware(
//	    middleware.Prometheus(middleware.WithNamespace("myapp")),
//	))
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) client.Middleware {
	return NewMetrics(opts...).Middleware()
}

// categorizeError returns a low-cardinality label for a transport error.
func categorizeError(err error) string {
	var netErr net.Error
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case stderrors.Is(err, context.Canceled):
		return "canceled"
	case stderrors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return "network"
	}
}

// categorizeStatus returns a label for an error status code.
func categorizeStatus(status int) string {
	switch {
	case status == http.StatusUnprocessableEntity:
		return "validation"
	case status == http.StatusUnauthorized:
		return "unauthorized"
	case status == http.StatusForbidden:
		return "forbidden"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusTooManyRequests:
		return "rate_limit"
	case status >= 500:
		return "server"
	default:
		return "client"
	}
}
