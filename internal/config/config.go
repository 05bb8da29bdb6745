// Package config loads acrocord configuration from file, environment
// variables, and command-line flags. It is decoupled from CLI concerns so
// that embedding programs can load the same configuration.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/eurobios-mews-labs/acrocord/internal/adapter"
)

// TargetConfig holds database target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // postgres, duckdb

	// File-based databases (DuckDB)
	Path string `koanf:"path"` // file path or ":memory:"

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`

	// Common
	Schema string `koanf:"schema"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`
}

// Config holds the full acrocord configuration.
type Config struct {
	StatePath string        `koanf:"state_path"`
	WriteMode string        `koanf:"write_mode"` // replace or append
	Verbose   bool          `koanf:"verbose"`
	Target    *TargetConfig `koanf:"target"`
}

// Default configuration values.
const (
	DefaultStateFile  = ".acrocord/state.db"
	DefaultTargetType = "duckdb"
	DefaultSchema     = "main"
	DefaultWriteMode  = "replace"
)

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.StatePath == "" {
		c.StatePath = DefaultStateFile
	}
	if c.WriteMode == "" {
		c.WriteMode = DefaultWriteMode
	}
	if c.Target == nil {
		c.Target = &TargetConfig{}
	}
	c.Target.ApplyDefaults()
}

// ApplyDefaults fills unset target fields based on the target type.
func (t *TargetConfig) ApplyDefaults() {
	if t.Type == "" {
		t.Type = DefaultTargetType
	}
	if t.Schema == "" {
		t.Schema = DefaultSchema
	}
	switch strings.ToLower(t.Type) {
	case "duckdb":
		if t.Path == "" {
			t.Path = ":memory:"
		}
	case "postgres":
		if t.Port == 0 {
			t.Port = 5432
		}
		if t.Host == "" {
			t.Host = "localhost"
		}
	}
}

// Validate checks cross-field consistency of the full configuration.
func (c *Config) Validate() error {
	switch strings.ToLower(c.WriteMode) {
	case "replace", "append":
	default:
		return fmt.Errorf("write_mode must be replace or append, got %q", c.WriteMode)
	}
	if c.Target == nil {
		return fmt.Errorf("target configuration is required")
	}
	return c.Target.Validate()
}

// AdapterWriteMode maps the configured write mode onto the adapter enum.
func (c *Config) AdapterWriteMode() adapter.WriteMode {
	if strings.EqualFold(c.WriteMode, "append") {
		return adapter.Append
	}
	return adapter.Replace
}

// Validate checks the target against the adapter registry.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(t.Type) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.List(),
		}
	}
	return nil
}

// ToAdapterConfig converts the target into the adapter connection settings.
func (t *TargetConfig) ToAdapterConfig() adapter.Config {
	return adapter.Config{
		Type:     t.Type,
		Path:     t.Path,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Options:  t.Options,
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with the environment variable's value.
// Unset variables are left as-is.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if val := os.Getenv(name); val != "" {
			return val
		}
		return match
	})
}

// ExpandEnvVars expands ${VAR} references in credential and location
// fields, so secrets can stay out of the config file.
func (t *TargetConfig) ExpandEnvVars() {
	t.Host = expandEnvVars(t.Host)
	t.User = expandEnvVars(t.User)
	t.Password = expandEnvVars(t.Password)
	t.Database = expandEnvVars(t.Database)
	t.Path = expandEnvVars(t.Path)
}
