// Package config loads the optional TOML file that tunes engine
// safety limits and tracing. A class file runs fine with no config
// file at all; every field has a zero-config default.
package config

import (
	"github.com/BurntSushi/toml"

	"classvm/pkg/diagnostic"
)

// Limits bounds resources the engine would otherwise let a malformed
// or adversarial class file exhaust.
type Limits struct {
	MaxCodeSize  int `toml:"max_code_size"`
	MaxCallDepth int `toml:"max_call_depth"`
}

// Trace controls whether a run records an execution trace and where
// it's flushed.
type Trace struct {
	Enabled bool   `toml:"enabled"`
	Sink    string `toml:"sink"`
}

// Config is the top-level shape of the TOML file.
type Config struct {
	Limits Limits `toml:"limits"`
	Trace  Trace  `toml:"trace"`
}

// DefaultMaxCodeSize and DefaultMaxCallDepth apply when no config file
// is given, or when a file omits that section.
const (
	DefaultMaxCodeSize  = 65536
	DefaultMaxCallDepth = 4096
)

// Default returns a Config with zero-config defaults: tracing off,
// generous but finite limits.
func Default() Config {
	return Config{
		Limits: Limits{
			MaxCodeSize:  DefaultMaxCodeSize,
			MaxCallDepth: DefaultMaxCallDepth,
		},
	}
}

// Load reads and decodes the TOML file at path, filling in defaults
// for any field the file leaves at its zero value.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, diagnostic.IOf(err, "config: failed to read %s", path)
	}
	if cfg.Limits.MaxCodeSize == 0 {
		cfg.Limits.MaxCodeSize = DefaultMaxCodeSize
	}
	if cfg.Limits.MaxCallDepth == 0 {
		cfg.Limits.MaxCallDepth = DefaultMaxCallDepth
	}
	return cfg, nil
}
