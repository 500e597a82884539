// Package emulator wires the parser, evaluator, pipeline and storage
// collaborators together behind a single Engine entry point (spec §1,
// §5: Engine.Execute(ctx, sqlText, params) -> Result).
package emulator

import (
	"github.com/BurntSushi/toml"
)

// Config holds the engine's startup settings, loadable from a TOML file.
type Config struct {
	// DefaultDatabase is created and selected as the current database
	// when the Engine starts, so a query that omits a schema qualifier
	// has somewhere to resolve against (spec §3 "current database").
	DefaultDatabase string `toml:"default_database"`
	// LogLevel is a logrus level name ("debug", "info", "warn", "error").
	LogLevel string `toml:"log_level"`
	// MaxRows caps the number of rows a single SELECT may return. Zero
	// means unbounded. This guards against an unbounded in-memory result
	// set; it is not a query optimizer limit (Non-goal: optimization).
	MaxRows int `toml:"max_rows"`
}

// DefaultConfig returns the Config used when none is supplied.
func DefaultConfig() *Config {
	return &Config{
		DefaultDatabase: "main",
		LogLevel:        "info",
		MaxRows:         0,
	}
}

// LoadConfig reads a Config from a TOML file at path.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
