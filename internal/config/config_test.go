package config

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/upform/internal/errors"
	"github.com/vango-dev/upform/pkg/client"
	"github.com/vango-dev/upform/pkg/form"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %q, want %q", cfg.Timeout, DefaultTimeout)
	}
	if cfg.ClearPolicy() != form.ClearBeforeDispatch {
		t.Errorf("ClearPolicy = %v, want before", cfg.ClearPolicy())
	}
	if cfg.Level() != slog.LevelInfo {
		t.Errorf("Level = %v, want info", cfg.Level())
	}
	if cfg.Serve.Addr != DefaultServeAddr {
		t.Errorf("Serve.Addr = %q, want %q", cfg.Serve.Addr, DefaultServeAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	// Test loading non-existent config
	_, err := Load(tmpDir)
	if err == nil {
		t.Fatal("Expected error for missing config")
	}
	if !stderrors.Is(err, errors.New(errors.CodeConfigNotFound)) {
		t.Errorf("expected %s, got %v", errors.CodeConfigNotFound, err)
	}

	writeConfig(t, tmpDir, `
base_url: https://api.example.com
headers:
  Authorization: Bearer abc
timeout: 5s
clear_errors: on-success
log_level: debug
metrics:
  enabled: true
tracing:
  enabled: true
  tracer_name: signup
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.ClearPolicy() != form.ClearOnSuccess {
		t.Errorf("ClearPolicy = %v, want on-success", cfg.ClearPolicy())
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Level = %v, want debug", cfg.Level())
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.TracerName != "signup" {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if cfg.Dir() != tmpDir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), tmpDir)
	}

	want := client.Config{
		BaseURL: "https://api.example.com",
		Headers: http.Header{"Authorization": []string{"Bearer abc"}},
		Timeout: 5 * time.Second,
	}
	if diff := cmp.Diff(want, cfg.ClientConfig()); diff != "" {
		t.Errorf("ClientConfig mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upform.json")
	if err := os.WriteFile(path, []byte(`{"base_url": "http://localhost:9000", "timeout": "1m"}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.BaseURL != "http://localhost:9000" || cfg.TimeoutDuration() != time.Minute {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"bad yaml", "base_url: [", ""},
		{"relative base url", "base_url: /api", "base_url"},
		{"unsupported scheme", "base_url: ftp://example.com", "base_url"},
		{"bad timeout", "timeout: soon", "timeout"},
		{"negative timeout", "timeout: -1s", "timeout"},
		{"bad clear policy", "clear_errors: never", "clear_errors"},
		{"bad log level", "log_level: loud", "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, err := Load(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Code != errors.CodeInvalidConfig {
				t.Fatalf("expected %s, got %v", errors.CodeInvalidConfig, err)
			}
			if e.Field != tt.field {
				t.Errorf("Field = %q, want %q", e.Field, tt.field)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	cfg := New()
	cfg.BaseURL = "https://example.com"
	cfg.ClearErrors = "on-success"
	cfg.Serve.Addr = ":9999"

	if err := cfg.Save(); err == nil {
		t.Error("Save without a path should fail")
	}

	path := filepath.Join(dir, ConfigFileName)
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "clear_errors: on-success") {
		t.Errorf("saved yaml missing clear_errors:\n%s", data)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded, cmp.AllowUnexported(Config{})); diff != "" {
		t.Errorf("reloaded config mismatch (-want +got):\n%s", diff)
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "log_level: warn\n")

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot() error: %v", err)
	}
	want, _ := filepath.Abs(root)
	if got != want {
		t.Errorf("FindProjectRoot() = %q, want %q", got, want)
	}
}

func TestLoadFromWorkingDir_DefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := LoadFromWorkingDir()
	if err != nil {
		t.Fatalf("LoadFromWorkingDir() error: %v", err)
	}
	if cfg.Path() != "" || cfg.Timeout != DefaultTimeout {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}
