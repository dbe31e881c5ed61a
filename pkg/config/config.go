// Package config is the ambient YAML-backed configuration layer for the
// illustrative demo host in cmd/demo. The lix engine packages (pkg/engine,
// pkg/router, pkg/rewrite, pkg/validate, pkg/executor) take no
// configuration of their own — every knob they need arrives as a function
// argument or as part of engine.ExecuteRequest — so this package only
// holds the settings of a concrete HostCallbacks implementation: where the
// SQLite file lives, a schema seed file, a log level, and whether to
// corroborate rewritten writes. The field comments say which of these
// cmd/demo reads.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DemoConfig configures cmd/demo's illustrative HostCallbacks
// implementation.
type DemoConfig struct {
	// SQLitePath is the path to the SQLite database file the demo host
	// opens via modernc.org/sqlite. An empty string means an in-memory
	// database.
	SQLitePath string `yaml:"sqlitePath" json:"sqlitePath"`

	// SchemaSeedPath names a .sql seed file. cmd/demo does not read it: the
	// demo always seeds a freshly opened database from its built-in seed
	// SQL (the state tables and one stored_schema row).
	SchemaSeedPath string `yaml:"schemaSeedPath" json:"schemaSeedPath"`

	// LogLevel is one of "debug", "info", "warn", "error"; Validate rejects
	// any other value. cmd/demo does not otherwise read it, so its output
	// is the same at every level. The lix engine itself does no logging.
	LogLevel string `yaml:"logLevel" json:"logLevel"`

	// CorroborateWrites, when true, runs every rewritten write statement
	// through pkg/parser's advisory TiDB grammar check and logs a warning
	// on mismatch instead of silently ignoring it.
	CorroborateWrites bool `yaml:"corroborateWrites" json:"corroborateWrites"`
}

// DefaultDemoConfig returns the configuration cmd/demo falls back to when
// no config file is given.
func DefaultDemoConfig() *DemoConfig {
	return &DemoConfig{
		SQLitePath:        "",
		SchemaSeedPath:    "",
		LogLevel:          "info",
		CorroborateWrites: true,
	}
}

// LoadFromYAML reads and parses a DemoConfig from filename.
func LoadFromYAML(filename string) (*DemoConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultDemoConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToYAML writes c to filename as YAML.
func (c *DemoConfig) SaveToYAML(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks that c is usable by cmd/demo.
func (c *DemoConfig) Validate() error {
	if c.LogLevel == "" {
		return fmt.Errorf("logLevel is required")
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("unrecognized logLevel %q", c.LogLevel)
	}
	return nil
}
