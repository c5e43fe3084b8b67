// Package config loads application settings and time-of-use tariff
// definitions. Application settings merge three layers: built-in
// defaults, an optional YAML file, and NEMCLI_* environment variables,
// with the environment taking precedence.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Output  OutputConfig  `yaml:"output" envconfig:"OUTPUT"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"omitempty,oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"omitempty,oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"omitempty,oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// OutputConfig controls where and how result files are written
type OutputConfig struct {
	Dir            string `yaml:"dir" envconfig:"DIR"`
	Format         string `yaml:"format" envconfig:"FORMAT" validate:"omitempty,oneof=csv xlsx both none"`
	IncludeDetails bool   `yaml:"include_details" envconfig:"INCLUDE_DETAILS"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/nemcli.log",
		},
		Output: OutputConfig{
			Dir:    "output",
			Format: "csv",
		},
	}
}

// Load builds the effective configuration. configFile may be empty, in
// which case only defaults and environment variables apply.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configFile, err)
		}
	}

	if err := envconfig.Process("NEMCLI", cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
