package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	scerrors "github.com/systmms/securecell/internal/errors"
	"github.com/systmms/securecell/internal/logging"
	"github.com/systmms/securecell/internal/metrics"
	"github.com/systmms/securecell/pkg/cell"
)

// DefaultPath is used when --config is not given.
const DefaultPath = "securecell.yaml"

//go:embed schema.json
var schema []byte

// Config holds the runtime configuration
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the securecell.yaml structure
type Definition struct {
	Version int           `yaml:"version"`
	Policy  string        `yaml:"policy,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Stress  StressConfig  `yaml:"stress,omitempty"`
}

// LoggingConfig mirrors the --debug and --no-color flags
type LoggingConfig struct {
	Debug   bool `yaml:"debug,omitempty"`
	NoColor bool `yaml:"noColor,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint started by the stress command
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Port    int    `yaml:"port,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// StressConfig holds defaults for the stress command
type StressConfig struct {
	Writers    int           `yaml:"writers,omitempty"`
	Togglers   int           `yaml:"togglers,omitempty"`
	Readers    int           `yaml:"readers,omitempty"`
	Iterations int           `yaml:"iterations,omitempty"`
	Duration   time.Duration `yaml:"duration,omitempty"`
}

// Default returns the definition used when no configuration file exists.
func Default() *Definition {
	def := newDefinition()
	def.applyDefaults()
	return def
}

// newDefinition returns the defaults a file is decoded over, so keys the
// file sets (including an explicit 0) replace them and absent keys keep them.
func newDefinition() *Definition {
	srv := metrics.DefaultServerConfig()
	return &Definition{
		Policy: cell.PolicyFlag.String(),
		Metrics: MetricsConfig{
			Port: srv.Port,
			Path: srv.Path,
		},
		Stress: StressConfig{
			Writers:  4,
			Togglers: 2,
			Readers:  2,
		},
	}
}

// applyDefaults fills what depends on other keys: a run bounded by neither
// duration nor iterations gets a duration.
func (d *Definition) applyDefaults() {
	if d.Stress.Duration == 0 && d.Stress.Iterations == 0 {
		d.Stress.Duration = 2 * time.Second
	}
}

// LockPolicy returns the configured lock policy
func (d *Definition) LockPolicy() (cell.Policy, error) {
	p, err := cell.ParsePolicy(d.Policy)
	if err != nil {
		return cell.PolicyFlag, scerrors.ConfigError{
			Field:      "policy",
			Value:      d.Policy,
			Message:    "unknown lock policy",
			Suggestion: "Use one of: " + policyList(),
			Err:        err,
		}
	}
	return p, nil
}

// ServerConfig converts the metrics section for metrics.NewServer
func (d *Definition) ServerConfig() metrics.ServerConfig {
	cfg := metrics.DefaultServerConfig()
	cfg.Enabled = d.Metrics.Enabled
	cfg.Port = d.Metrics.Port
	if d.Metrics.Path != "" {
		cfg.Path = d.Metrics.Path
	}
	return cfg
}

// Load reads and parses the configuration file. A missing file is an error.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return scerrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "configuration file not found",
				Suggestion: "Create " + DefaultPath + " or pass --config",
				Err:        err,
			}
		}
		return scerrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	def, err := Parse(data)
	if err != nil {
		return err
	}
	c.Definition = def
	return nil
}

// LoadOrDefault is Load, except that a missing file yields Default().
func (c *Config) LoadOrDefault() error {
	if _, err := os.Stat(c.Path); os.IsNotExist(err) {
		if c.Logger != nil {
			c.Logger.Debug("No configuration at %s, using defaults", c.Path)
		}
		c.Definition = Default()
		return nil
	}
	return c.Load()
}

// Parse validates data against the embedded schema and decodes it.
func Parse(data []byte) (*Definition, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, scerrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
			Err:        err,
		}
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}

	def := newDefinition()
	if err := yaml.Unmarshal(data, def); err != nil {
		return nil, scerrors.ConfigError{
			Message:    "configuration does not match expected types",
			Suggestion: "Durations use Go syntax such as 500ms or 2s",
			Err:        err,
		}
	}
	def.applyDefaults()
	return def, nil
}

// Validate checks a decoded document against the configuration schema
func Validate(doc interface{}) error {
	// Convert data to JSON for validation
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal data for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		field := ""
		for _, desc := range result.Errors() {
			if field == "" {
				field = desc.Field()
			}
			errorMessages = append(errorMessages, desc.String())
		}
		return scerrors.ConfigError{
			Field:      field,
			Message:    "schema validation failed:\n  - " + strings.Join(errorMessages, "\n  - "),
			Suggestion: "Run 'securecell policies' to list valid lock policies",
		}
	}

	return nil
}

func policyList() string {
	names := make([]string, 0, len(cell.Policies()))
	for _, p := range cell.Policies() {
		names = append(names, p.String())
	}
	return strings.Join(names, ", ")
}
