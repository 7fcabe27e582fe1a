package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/upform/internal/config"
	"github.com/vango-dev/upform/internal/errors"
	"github.com/vango-dev/upform/pkg/client"
	"github.com/vango-dev/upform/pkg/form"
	"github.com/vango-dev/upform/pkg/middleware"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	baseURL    string
	logLevel   string
}

// loadConfig reads the configuration and applies flag overrides.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}

	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger creates the process logger and installs it as the default.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)
	return logger
}

// newClient builds the submission client with the configured middleware.
// Metrics are registered on reg.
func newClient(cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) *client.Client {
	var mw []client.Middleware
	if cfg.Tracing.Enabled {
		otel.SetTextMapPropagator(propagation.TraceContext{})
		mw = append(mw, middleware.OpenTelemetry(middleware.WithTracerName(cfg.Tracing.TracerName)))
	}
	if cfg.Metrics.Enabled {
		mw = append(mw, middleware.Prometheus(
			middleware.WithNamespace(cfg.Metrics.Namespace),
			middleware.WithRegistry(reg),
		))
	}
	return client.New(cfg.ClientConfig(),
		client.WithMiddleware(mw...),
		client.WithLogger(logger.With("component", "client")),
	)
}

// readRecord loads a YAML or JSON record from path. "-" reads stdin.
func readRecord(path string, stdin io.Reader) (form.Record, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Newf(errors.CategoryConfig, "read %s", path).Wrap(err)
	}

	record := form.Record{}
	if err := yaml.Unmarshal(data, &record); err != nil {
		return nil, errors.Newf(errors.CategoryConfig, "parse %s", path).
			Wrap(err).
			WithSuggestion("The data file must be a YAML or JSON object")
	}
	return record, nil
}

// applySets applies key=value assignments to record.
func applySets(record form.Record, sets []string) error {
	for _, set := range sets {
		key, raw, ok := strings.Cut(set, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("invalid --set %q, expected key=value", set)
		}
		record[key] = parseValue(raw, record[key])
	}
	return nil
}

// parseValue converts typed input to a field value. Input for string
// fields is kept verbatim; anything else is read as a YAML scalar so that
// numbers and booleans keep their type.
func parseValue(raw string, current any) any {
	if _, ok := current.(string); ok {
		return raw
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// parseHeaders converts "Key: Value" or "Key=Value" pairs to a header set.
func parseHeaders(pairs []string) (http.Header, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	h := make(http.Header, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			key, value, ok = strings.Cut(pair, "=")
		}
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --header %q, expected \"Key: Value\"", pair)
		}
		h.Add(key, strings.TrimSpace(value))
	}
	return h, nil
}

// printFieldErrors prints field errors in key order.
func printFieldErrors(w io.Writer, f *form.State) {
	errs := f.Errors()
	keys := make([]string, 0, len(errs))
	for key := range errs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		info(w, "%s: %s", key, errs[key])
	}
}
