package middleware

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/upform/pkg/client"
)

// Default tracer name for form submissions.
const defaultTracerName = "upform"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "upform").
	TracerName string

	// Provider supplies the tracer. Default: the global tracer provider.
	Provider trace.TracerProvider

	// Propagator injects the trace context into request headers.
	// Default: the global text map propagator.
	Propagator propagation.TextMapPropagator

	// Filter determines which requests to trace.
	// Return true to trace the request, false to skip.
	// If nil, all requests are traced.
	Filter func(req *http.Request) bool

	// AttributeExtractor adds custom attributes for each traced request.
	AttributeExtractor func(req *http.Request) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(provider trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.Provider = provider
	}
}

// WithPropagator sets the propagator used for header injection.
func WithPropagator(p propagation.TextMapPropagator) OTelOption {
	return func(c *OTelConfig) {
		c.Propagator = p
	}
}

// WithRequestFilter sets a filter function for requests.
func WithRequestFilter(filter func(req *http.Request) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(req *http.Request) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates client middleware that traces every submission.
//
// The middleware:
//   - Starts a client span per request with method, URL and request id
//   - Injects the trace context into the outgoing headers
//   - Records the response status, marking 4xx/5xx and transport errors
//
// The tracer comes from the global provider unless WithTracerProvider is
// given. Configure it in main() before submitting:
//
//	otel.SetTracerProvider(tp)
//	otel.SetTextMapPropagator(propagation.TraceContext{})
func OpenTelemetry(opts ...OTelOption) client.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Provider == nil {
		config.Provider = otel.GetTracerProvider()
	}
	if config.Propagator == nil {
		config.Propagator = otel.GetTextMapPropagator()
	}
	tracer := config.Provider.Tracer(config.TracerName)

	return func(next client.Doer) client.Doer {
		return client.DoerFunc(func(req *http.Request) (*http.Response, error) {
			if config.Filter != nil && !config.Filter(req) {
				return next.Do(req)
			}

			attrs := []attribute.KeyValue{
				attribute.String("http.request.method", req.Method),
				attribute.String("url.full", req.URL.String()),
				attribute.String("server.address", req.URL.Host),
			}
			if id := req.Header.Get(client.RequestIDHeader); id != "" {
				attrs = append(attrs, attribute.String("upform.request_id", id))
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(req)...)
			}

			ctx, span := tracer.Start(req.Context(), spanName(req),
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			req = req.Clone(ctx)
			config.Propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

			resp, err := next.Do(req)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return resp, err
			}

			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
			if resp.StatusCode >= 400 {
				span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
			}
			return resp, nil
		})
	}
}

// spanName creates a span name for the request.
func spanName(req *http.Request) string {
	return fmt.Sprintf("upform %s", req.Method)
}
