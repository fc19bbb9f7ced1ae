// Package config loads the optional streaks configuration file.
//
// Every setting has a command-line equivalent; the file only supplies
// defaults. Flags set explicitly on the command line take precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultName   = "default"
	DefaultFormat = "text"
)

// Config holds persistent defaults for the CLI.
type Config struct {
	// DB is the path to the SQLite state cache. Empty disables the cache.
	DB string `yaml:"db"`

	// Name selects the stored state inside DB.
	Name string `yaml:"name"`

	// ExcludeBroken drops streaks that broke before the current period.
	ExcludeBroken bool `yaml:"exclude_broken"`

	// NFC normalizes input items to Unicode NFC.
	NFC bool `yaml:"nfc"`

	// Format is the output format: text | json.
	Format string `yaml:"format"`

	// Prom is the path of a Prometheus textfile written after each run.
	Prom string `yaml:"prom"`
}

// Default returns a Config pre-populated with default values.
func Default() *Config {
	return &Config{
		Name:   DefaultName,
		Format: DefaultFormat,
	}
}

// Load reads and parses the YAML config file at path.
// Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// validate checks required fields and allowed values.
func validate(cfg *Config) error {
	if cfg.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	switch cfg.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown format %q", cfg.Format)
	}
	return nil
}
