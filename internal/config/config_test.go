package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultHasNoTracing(t *testing.T) {
	cfg := Default()
	if cfg.Trace.Enabled {
		t.Error("default config should not enable tracing")
	}
	if cfg.Limits.MaxCodeSize != DefaultMaxCodeSize {
		t.Errorf("MaxCodeSize = %d, want %d", cfg.Limits.MaxCodeSize, DefaultMaxCodeSize)
	}
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load(\"\") = %+v, want %+v", cfg, Default())
	}
}

func TestLoadParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "classvm.toml")
	contents := `
[limits]
max_code_size = 1024
max_call_depth = 16

[trace]
enabled = true
sink = "out.gob"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Limits.MaxCodeSize != 1024 {
		t.Errorf("MaxCodeSize = %d, want 1024", cfg.Limits.MaxCodeSize)
	}
	if cfg.Limits.MaxCallDepth != 16 {
		t.Errorf("MaxCallDepth = %d, want 16", cfg.Limits.MaxCallDepth)
	}
	if !cfg.Trace.Enabled || cfg.Trace.Sink != "out.gob" {
		t.Errorf("Trace = %+v, want enabled with sink out.gob", cfg.Trace)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/classvm.toml"); err == nil {
		t.Error("expected an error loading a nonexistent config file")
	}
}
