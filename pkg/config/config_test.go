package config

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Format != FormatDeps {
		t.Errorf("Format = %q, want %q", cfg.Format, FormatDeps)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if !cfg.OpenBrowser {
		t.Error("OpenBrowser should default to true")
	}
	if cfg.WebMode || cfg.Watch || cfg.Check || cfg.JSONLogs {
		t.Error("boolean modes should default to false")
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("SCC_ANALYZER_PORT", "9999")
	t.Setenv("SCC_ANALYZER_FORMAT", "pairs")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999 from env", cfg.Port)
	}
	if cfg.Format != FormatPairs {
		t.Errorf("Format = %q, want pairs from env", cfg.Format)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("SCC_ANALYZER_PORT", "9999")

	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	DefineFlags(f)
	if err := f.Parse([]string{"--port", "7777", "--input", "graph.deps"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 7777 {
		t.Errorf("Port = %d, want 7777 from flag", cfg.Port)
	}
	if cfg.Input != "graph.deps" {
		t.Errorf("Input = %q, want graph.deps", cfg.Input)
	}
}

func TestLoadUnchangedFlagKeepsEnv(t *testing.T) {
	t.Setenv("SCC_ANALYZER_PORT", "9999")

	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	DefineFlags(f)
	if err := f.Parse(nil); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want env value 9999 to survive default flag", cfg.Port)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{Input: "graph.deps", Format: FormatDeps, Dir: ".", Port: 8080}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid file input", func(c *Config) {}, false},
		{"valid command input", func(c *Config) { c.Input = ""; c.Command = "go mod graph" }, false},
		{"no input at all", func(c *Config) { c.Input = "" }, true},
		{"both input and command", func(c *Config) { c.Command = "go mod graph" }, true},
		{"bad format", func(c *Config) { c.Format = "xml" }, true},
		{"bad port", func(c *Config) { c.Port = 0 }, true},
		{"watch without file", func(c *Config) { c.Input = ""; c.Command = "go mod graph"; c.Watch = true }, true},
		{"bad verbosity", func(c *Config) { c.Verbosity = "loud" }, true},
		{"quiet verbosity", func(c *Config) { c.Verbosity = "quiet" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
