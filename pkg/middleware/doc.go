// Package middleware provides observability middleware for the upform
// HTTP client.
//
// This package includes:
//   - OpenTelemetry tracing with trace context propagation
//   - Prometheus request metrics
//
// Both return a client.Middleware and are installed with
// client.WithMiddleware. The first middleware given is outermost:
//
//	c := client.New(cfg, client.WithMiddleware(
//	    middleware.OpenTelemetry(),
//	    middleware.Prometheus(),
//	))
//
// # OpenTelemetry Middleware
//
// Every request gets a client span named "upform <METHOD>" carrying the
// method, URL, request id and response status. The trace context is
// injected into the outgoing headers so the server can continue the trace.
//
//	middleware.OpenTelemetry(
//	    middleware.WithTracerName("signup-form"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.Method != http.MethodOptions
//	    }),
//	)
//
// # Prometheus Metrics
//
//   - upform_client_requests_total: Requests by method and status
//   - upform_client_request_duration_seconds: Round trip duration histogram
//   - upform_client_request_errors_total: Failures by method and error type
//   - upform_client_requests_in_flight: Requests awaiting a response
//
// Expose them alongside the rest of the application's metrics:
//
//	http.Handle("/metrics", promhttp.Handler())
package middleware
