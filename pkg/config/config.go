package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Formats accepted for dependency input files.
const (
	FormatDeps  = "deps"  // target: dep dep, or a -> b arrows
	FormatPairs = "pairs" // one "from to" pair per line, go mod graph style
)

// Config holds all configuration for the analyzer.
type Config struct {
	Input       string `koanf:"input"`     // dependency file to analyze
	Format      string `koanf:"format"`    // input file format
	Command     string `koanf:"command"`   // command emitting pairs, instead of a file
	Dir         string `koanf:"dir"`       // working directory for the command
	WebMode     bool   `koanf:"web"`       // serve the web explorer
	Port        int    `koanf:"port"`      // web server port
	Watch       bool   `koanf:"watch"`     // re-analyze when the input changes
	OpenBrowser bool   `koanf:"open"`      // open the explorer after startup
	Check       bool   `koanf:"check"`     // exit with status 2 when cycles exist
	Verbosity   string `koanf:"verbosity"` // quiet, verbose, or debug
	JSONLogs    bool   `koanf:"json"`      // emit logs as JSON
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"input":     "",
		"format":    FormatDeps,
		"command":   "",
		"dir":       ".",
		"web":       false,
		"port":      8080,
		"watch":     false,
		"open":      true,
		"check":     false,
		"verbosity": "",
		"json":      false,
	}
}

// DefineFlags registers the analyzer's flags on f with defaults matching the
// configuration defaults, so unchanged flags never shadow file or env values.
func DefineFlags(f *pflag.FlagSet) {
	f.String("input", "", "dependency file to analyze")
	f.String("format", FormatDeps, "input format: deps or pairs")
	f.String("command", "", "command whose output is parsed as pairs, e.g. 'go mod graph'")
	f.String("dir", ".", "working directory for --command")
	f.Bool("web", false, "serve the interactive explorer")
	f.Int("port", 8080, "port for the web server")
	f.Bool("watch", false, "watch the input file and re-analyze on change")
	f.Bool("open", true, "open the browser when the web server starts")
	f.Bool("check", false, "exit with status 2 when cyclic components exist")
	f.String("verbosity", "", "log verbosity: quiet, verbose, or debug")
	f.Bool("json", false, "emit logs as JSON")
}

// Load loads configuration from defaults, config file, environment variables,
// and flags. Priority: Flags > Env > Config File > Defaults.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional) - scc-analyzer.toml
	// Ignored when the file does not exist.
	_ = k.Load(file.Provider("scc-analyzer.toml"), toml.Parser())

	// 3. Environment Variables
	// Prefix: SCC_ANALYZER_ (e.g., SCC_ANALYZER_PORT=9090)
	if err := k.Load(env.Provider("SCC_ANALYZER_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "SCC_ANALYZER_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects configurations the analyzer cannot act on.
func (c *Config) Validate() error {
	if c.Input == "" && c.Command == "" {
		return fmt.Errorf("either an input file or a command is required")
	}
	if c.Input != "" && c.Command != "" {
		return fmt.Errorf("input file and command are mutually exclusive")
	}
	if c.Format != FormatDeps && c.Format != FormatPairs {
		return fmt.Errorf("unknown format %q, want %s or %s", c.Format, FormatDeps, FormatPairs)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Watch && c.Input == "" {
		return fmt.Errorf("watch mode needs an input file")
	}
	switch c.Verbosity {
	case "", "quiet", "verbose", "debug":
	default:
		return fmt.Errorf("unknown verbosity %q", c.Verbosity)
	}
	return nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
