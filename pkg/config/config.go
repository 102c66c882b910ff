package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/graphcompare/pkg/model"
)

const (
	// DefaultFile is read from the working directory when present
	DefaultFile = "graphcompare.toml"
	// EnvPrefix prefixes environment overrides, e.g. GRAPHCOMPARE_LOG_LEVEL=debug
	EnvPrefix = "GRAPHCOMPARE_"
)

// Report formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config holds all configuration for the application
type Config struct {
	ConfigFile    string        `koanf:"config"`
	VerboseCnt    int           `koanf:"verbose"`
	LogLevel      string        `koanf:"log-level"`
	LogJSON       bool          `koanf:"log-json"`
	Format        string        `koanf:"format"`
	NoColor       bool          `koanf:"no-color"`
	AlwaysExtract bool          `koanf:"always-extract"`
	Levels        int           `koanf:"levels"`
	Watch         bool          `koanf:"watch"`
	WebMode       bool          `koanf:"web"`
	Port          int           `koanf:"port"`
	DirA          string        `koanf:"dir-a"`
	DirB          string        `koanf:"dir-b"`
	Jobs          int           `koanf:"jobs"`
	QuietPeriod   time.Duration `koanf:"quiet-period"`
	MaxWait       time.Duration `koanf:"max-wait"`
}

func defaults() map[string]any {
	return map[string]any{
		"config":         DefaultFile,
		"verbose":        0,
		"log-level":      "",
		"log-json":       false,
		"format":         FormatText,
		"no-color":       false,
		"always-extract": false,
		"levels":         model.FlowLevels,
		"watch":          false,
		"web":            false,
		"port":           8080,
		"dir-a":          "",
		"dir-b":          "",
		"jobs":           4,
		"quiet-period":   300 * time.Millisecond,
		"max-wait":       2 * time.Second,
	}
}

// RegisterFlags defines the command-line flags Load understands
func RegisterFlags(f *pflag.FlagSet) {
	f.String("config", DefaultFile, "Path to the TOML config file")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.String("log-level", "", "Log level: trace, debug, info, warn, error (overrides -v)")
	f.Bool("log-json", false, "Write logs as JSON")
	f.StringP("format", "f", FormatText, "Report format: text, json, yaml")
	f.Bool("no-color", false, "Disable colored text output")
	f.Bool("always-extract", false, "Diff flow sets even when the graphs are not isomorphic")
	f.Int("levels", model.FlowLevels, "Depth of the flow hierarchy")
	f.BoolP("watch", "w", false, "Re-run the comparison when an input changes")
	f.Bool("web", false, "Serve the comparison over HTTP")
	f.IntP("port", "p", 8080, "Port for --web")
	f.String("dir-a", "", "Directory of graphs for side A (batch mode)")
	f.String("dir-b", "", "Directory of graphs for side B (batch mode)")
	f.IntP("jobs", "j", 4, "Comparisons to run in parallel in batch mode")
	f.Duration("quiet-period", 300*time.Millisecond, "Watch mode: wait this long after the last change")
	f.Duration("max-wait", 2*time.Second, "Watch mode: never delay a re-run longer than this")
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file. The default file is optional, an explicit one is not.
	path, explicit := DefaultFile, false
	if f != nil && f.Changed("config") {
		path, _ = f.GetString("config")
		explicit = true
	} else if v, ok := os.LookupEnv(EnvPrefix + "CONFIG"); ok {
		path, explicit = v, true
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// 3. Environment Variables
	// Prefix: GRAPHCOMPARE_ (e.g., GRAPHCOMPARE_ALWAYS_EXTRACT=true)
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", "-")
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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks option values and combinations
func (c *Config) Validate() error {
	var errs []error

	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		errs = append(errs, fmt.Errorf("unknown format %q (want text, json or yaml)", c.Format))
	}
	if c.Levels < 1 || c.Levels > model.FlowLevels {
		errs = append(errs, fmt.Errorf("levels must be between 1 and %d, got %d", model.FlowLevels, c.Levels))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if (c.DirA == "") != (c.DirB == "") {
		errs = append(errs, errors.New("dir-a and dir-b must be given together"))
	}
	if c.Jobs < 1 {
		errs = append(errs, fmt.Errorf("jobs must be at least 1, got %d", c.Jobs))
	}
	if c.QuietPeriod <= 0 {
		errs = append(errs, fmt.Errorf("quiet-period must be positive, got %v", c.QuietPeriod))
	}
	if c.MaxWait < c.QuietPeriod {
		errs = append(errs, fmt.Errorf("max-wait (%v) must not be shorter than quiet-period (%v)", c.MaxWait, c.QuietPeriod))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// BatchMode reports whether directories rather than files are compared
func (c *Config) BatchMode() bool {
	return c.DirA != "" && c.DirB != ""
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]any
}

func makeMapProvider(m map[string]any) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]any, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
