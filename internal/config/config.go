package config

import (
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/upform/internal/errors"
	"github.com/vango-dev/upform/pkg/client"
	"github.com/vango-dev/upform/pkg/form"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "upform.yaml"

	// DefaultTimeout bounds each submission.
	DefaultTimeout = "30s"

	// DefaultServeAddr is where `upform serve` listens.
	DefaultServeAddr = "localhost:8080"

	// DefaultNamespace is the default metrics namespace and tracer name.
	DefaultNamespace = "upform"
)

// Config represents the upform.yaml configuration.
type Config struct {
	// BaseURL is prefixed to relative submission URLs.
	BaseURL string `yaml:"base_url,omitempty"`

	// Headers are sent with every submission.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Timeout bounds each submission, as a Go duration ("10s").
	Timeout string `yaml:"timeout,omitempty"`

	// UserAgent overrides the client's default User-Agent.
	UserAgent string `yaml:"user_agent,omitempty"`

	// ClearErrors selects when field errors are cleared: "before" the
	// request is dispatched or "on-success".
	ClearErrors string `yaml:"clear_errors,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `yaml:"metrics,omitempty"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `yaml:"tracing,omitempty"`

	// Serve contains demo server configuration.
	Serve ServeConfig `yaml:"serve,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// MetricsConfig contains Prometheus configuration.
type MetricsConfig struct {
	// Enabled installs the metrics middleware on the client.
	Enabled bool `yaml:"enabled"`

	// Namespace is the metrics namespace.
	Namespace string `yaml:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry configuration.
type TracingConfig struct {
	// Enabled installs the tracing middleware on the client.
	Enabled bool `yaml:"enabled"`

	// TracerName is the name of the tracer.
	TracerName string `yaml:"tracer_name,omitempty"`
}

// ServeConfig contains demo server configuration.
type ServeConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr,omitempty"`
}

// New creates a configuration with default values.
func New() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		ClearErrors: form.ClearBeforeDispatch.String(),
		LogLevel:    "info",
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultNamespace,
		},
		Serve: ServeConfig{
			Addr: DefaultServeAddr,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for upform.yaml in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path. JSON files
// are accepted as well.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithDetail("No " + filepath.Base(path) + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or pass flags instead")
		}
		return nil, errors.New(errors.CodeConfigNotFound).Wrap(err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeInvalidConfig).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid YAML")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New(errors.CodeInvalidConfig).Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeInvalidConfig).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Timeout == "" {
		c.Timeout = DefaultTimeout
	}
	if c.ClearErrors == "" {
		c.ClearErrors = form.ClearBeforeDispatch.String()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultNamespace
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultServeAddr
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return errors.New(errors.CodeInvalidConfig).
				WithField("base_url").
				WithDetail("base_url must be an absolute http or https URL, got " + c.BaseURL)
		}
	}

	if d, err := time.ParseDuration(c.Timeout); err != nil || d < 0 {
		return errors.New(errors.CodeInvalidConfig).
			WithField("timeout").
			WithDetail("timeout must be a non-negative duration such as 10s, got " + c.Timeout)
	}

	if _, ok := parseClearPolicy(c.ClearErrors); !ok {
		return errors.New(errors.CodeInvalidConfig).
			WithField("clear_errors").
			WithDetail("clear_errors must be \"before\" or \"on-success\", got " + c.ClearErrors)
	}

	if _, ok := parseLevel(c.LogLevel); !ok {
		return errors.New(errors.CodeInvalidConfig).
			WithField("log_level").
			WithDetail("log_level must be one of debug, info, warn, error, got " + c.LogLevel)
	}

	return nil
}

// TimeoutDuration returns the parsed timeout, or zero when it is invalid.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// ClientConfig returns the transport configuration for client.New.
func (c *Config) ClientConfig() client.Config {
	var headers http.Header
	if len(c.Headers) > 0 {
		headers = make(http.Header, len(c.Headers))
		for k, v := range c.Headers {
			headers.Set(k, v)
		}
	}
	return client.Config{
		BaseURL:   c.BaseURL,
		Headers:   headers,
		Timeout:   c.TimeoutDuration(),
		UserAgent: c.UserAgent,
	}
}

// ClearPolicy returns the configured error clearing policy.
func (c *Config) ClearPolicy() form.ClearPolicy {
	p, _ := parseClearPolicy(c.ClearErrors)
	return p
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseClearPolicy(s string) (form.ClearPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case form.ClearBeforeDispatch.String():
		return form.ClearBeforeDispatch, true
	case form.ClearOnSuccess.String():
		return form.ClearOnSuccess, true
	default:
		return form.ClearBeforeDispatch, false
	}
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Exists checks if a config file exists in the directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find upform.yaml.
// Returns the directory containing it, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeConfigNotFound).
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the nearest upform.yaml at or
// above the working directory. A missing file yields the defaults.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return New(), nil
	}
	return Load(root)
}
