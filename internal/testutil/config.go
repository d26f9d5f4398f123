// Package testutil provides test utilities and helpers for securecell tests.
//
// This package contains shared test infrastructure: a configuration
// builder, a capturing logger and redaction assertions.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/systmms/securecell/internal/config"
)

// TestConfigBuilder provides a fluent API for building test configurations.
//
// Example usage:
//
//	path := NewTestConfig(t).
//	    WithPolicy("sealed").
//	    WithStress(2, 1, 1, 100*time.Millisecond).
//	    Write()
type TestConfigBuilder struct {
	def     *config.Definition
	tempDir string
	t       *testing.T
}

// NewTestConfig creates a new TestConfigBuilder starting from an empty
// version 0 definition.
func NewTestConfig(t *testing.T) *TestConfigBuilder {
	t.Helper()

	return &TestConfigBuilder{
		def:     &config.Definition{},
		tempDir: t.TempDir(), // Auto-cleanup by testing framework
		t:       t,
	}
}

// WithPolicy sets the default lock policy.
func (b *TestConfigBuilder) WithPolicy(name string) *TestConfigBuilder {
	b.def.Policy = name
	return b
}

// WithLogging sets the logging section.
func (b *TestConfigBuilder) WithLogging(debug, noColor bool) *TestConfigBuilder {
	b.def.Logging = config.LoggingConfig{Debug: debug, NoColor: noColor}
	return b
}

// WithMetrics enables the metrics endpoint on port.
func (b *TestConfigBuilder) WithMetrics(port int, path string) *TestConfigBuilder {
	b.def.Metrics = config.MetricsConfig{Enabled: true, Port: port, Path: path}
	return b
}

// WithStress sets the stress defaults.
func (b *TestConfigBuilder) WithStress(writers, togglers, readers int, d time.Duration) *TestConfigBuilder {
	b.def.Stress = config.StressConfig{
		Writers:  writers,
		Togglers: togglers,
		Readers:  readers,
		Duration: d,
	}
	return b
}

// Build returns the definition without writing it.
func (b *TestConfigBuilder) Build() *config.Definition {
	return b.def
}

// Write writes the configuration to securecell.yaml in a temporary
// directory and returns the path.
func (b *TestConfigBuilder) Write() string {
	b.t.Helper()

	data, err := yaml.Marshal(b.def)
	if err != nil {
		b.t.Fatalf("Failed to marshal test config: %v", err)
	}
	return writeFile(b.t, b.tempDir, data)
}

// WriteTestConfig writes a hand-written YAML string to a temporary file.
func WriteTestConfig(t *testing.T, yamlContent string) string {
	t.Helper()

	return writeFile(t, t.TempDir(), []byte(yamlContent))
}

// MissingConfigPath returns a config path that does not exist.
func MissingConfigPath(t *testing.T) string {
	t.Helper()

	return filepath.Join(t.TempDir(), config.DefaultPath)
}

func writeFile(t *testing.T, dir string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, config.DefaultPath)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}
