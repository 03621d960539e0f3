package streamtool

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config holds the tunable pipeline settings. All fields have working
// defaults; a config file only needs the keys it changes.
type Config struct {
	Marker         string              `yaml:"marker"`
	DefaultTimeout Duration            `yaml:"default_timeout"`
	ToolTimeouts   map[string]Duration `yaml:"tool_timeouts"`
	ContextWindow  int                 `yaml:"context_window"`
	MaxHistory     int                 `yaml:"max_history"`
	MaxConcurrency int                 `yaml:"max_concurrency"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Marker:         DefaultMarker,
		DefaultTimeout: Duration(30 * time.Second),
		ContextWindow:  3000,
		MaxHistory:     256,
		MaxConcurrency: 10,
	}
}

// LoadConfig reads a YAML config file, filling unset keys from the defaults.
// A missing file is not an error: the defaults are returned.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Marker == "" {
		cfg.Marker = DefaultMarker
	}
	return cfg, nil
}

// RegistryOptions renders the config as registry options.
func (c *Config) RegistryOptions() []RegistryOption {
	return []RegistryOption{
		WithDefaultTimeout(time.Duration(c.DefaultTimeout)),
		WithMaxConcurrency(c.MaxConcurrency),
	}
}

// StreamOptions renders the config as stream options.
func (c *Config) StreamOptions() []StreamOption {
	return []StreamOption{
		WithMarker(c.Marker),
		WithContextWindow(c.ContextWindow),
		WithMaxHistory(c.MaxHistory),
	}
}

// TimeoutFor returns the per-tool timeout override, or zero when the tool
// should use the default.
func (c *Config) TimeoutFor(tool string) time.Duration {
	return time.Duration(c.ToolTimeouts[tool])
}
