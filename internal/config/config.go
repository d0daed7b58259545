package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// Config holds configuration options for the rendering process
type Config struct {
	// BaseFontSize is the root font size in px used to resolve rem and em
	BaseFontSize float64 `yaml:"base_font_size"`

	// MaxVariableIterations caps the fixed-point var() resolution passes
	MaxVariableIterations int `yaml:"max_variable_iterations"`

	// KeepComments leaves HTML comments (e.g. Outlook conditionals) in place
	KeepComments bool `yaml:"keep_comments"`

	// KeepDoctype skips rewriting the DOCTYPE to XHTML 1.0 Transitional
	KeepDoctype bool `yaml:"keep_doctype"`

	// KeepEventHandlers leaves onload and onerror attributes in place
	KeepEventHandlers bool `yaml:"keep_event_handlers"`

	// TargetEmailClient selects the compatibility profile used for warnings,
	// empty means generic
	TargetEmailClient string `yaml:"target_email_client"`

	Logging LoggingConfig `yaml:"logging"`
}

// Default returns a configuration suitable for most email clients
func Default() Config {
	return Config{
		BaseFontSize:          16,
		MaxVariableIterations: 10,
		TargetEmailClient:     "generic",
		Logging:               LoggingConfig{Level: "normal"},
	}
}

// Validate checks that values are usable
func (c Config) Validate() error {
	var errs []error
	if c.BaseFontSize <= 0 {
		errs = append(errs, fmt.Errorf("base_font_size must be positive, got %v", c.BaseFontSize))
	}
	if c.MaxVariableIterations <= 0 {
		errs = append(errs, fmt.Errorf("max_variable_iterations must be positive, got %d", c.MaxVariableIterations))
	}
	if c.TargetEmailClient != "" && !IsKnownClient(c.TargetEmailClient) {
		errs = append(errs, fmt.Errorf("unknown target_email_client %q (valid: %v)", c.TargetEmailClient, KnownClients()))
	}
	if err := c.Logging.validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func unmarshalConfig(data []byte, cfg *Config) error {
	// only fields we defined are accepted
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode configuration data: %w", err)
	}
	return nil
}

// Parse superimposes YAML data on top of the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		if err := unmarshalConfig(data, &cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Load reads the configuration file at path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file %s: %w", path, err)
	}
	return cfg, nil
}

// Dump serializes cfg as YAML
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
