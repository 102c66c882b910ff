package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("graphcompare", pflag.ContinueOnError)
	RegisterFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}
	return f
}

// inTempDir keeps a graphcompare.toml in the package directory from
// leaking into tests
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load(newFlags(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Format != FormatText || cfg.Levels != 5 || cfg.Port != 8080 || cfg.Jobs != 4 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.QuietPeriod != 300*time.Millisecond || cfg.MaxWait != 2*time.Second {
		t.Errorf("watch defaults = %v/%v", cfg.QuietPeriod, cfg.MaxWait)
	}
	if cfg.AlwaysExtract || cfg.Watch || cfg.WebMode || cfg.BatchMode() {
		t.Errorf("boolean defaults = %+v", cfg)
	}
}

func TestLoadNilFlagSet(t *testing.T) {
	inTempDir(t)
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load(nil) error = %v", err)
	}
	if cfg.Levels != 5 {
		t.Errorf("Levels = %d", cfg.Levels)
	}
}

func TestLoadPriority(t *testing.T) {
	dir := inTempDir(t)
	toml := `
format = "yaml"
port = 9000
levels = 4
quiet-period = "1s"
max-wait = "5s"
always-extract = true
`
	if err := os.WriteFile(filepath.Join(dir, DefaultFile), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GRAPHCOMPARE_PORT", "9100")
	t.Setenv("GRAPHCOMPARE_LOG_LEVEL", "debug")

	cfg, err := Load(newFlags(t, "--levels", "3", "-vv"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"format from file", cfg.Format, FormatYAML},
		{"always-extract from file", cfg.AlwaysExtract, true},
		{"quiet-period from file", cfg.QuietPeriod, time.Second},
		{"port from env over file", cfg.Port, 9100},
		{"log-level from env", cfg.LogLevel, "debug"},
		{"levels from flag over file", cfg.Levels, 3},
		{"verbose count", cfg.VerboseCnt, 2},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadExplicitConfigFile(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(path, []byte(`format = "json"`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(newFlags(t, "--config", path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Format != FormatJSON {
		t.Errorf("Format = %q, want json", cfg.Format)
	}

	if _, err := Load(newFlags(t, "--config", filepath.Join(dir, "missing.toml"))); err == nil {
		t.Error("Load() with a missing explicit config file should fail")
	}
}

func TestLoadBrokenConfigFile(t *testing.T) {
	dir := inTempDir(t)
	if err := os.WriteFile(filepath.Join(dir, DefaultFile), []byte("format = "), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(newFlags(t)); err == nil {
		t.Error("Load() with an unparsable config file should fail")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{Format: FormatText, Levels: 5, Port: 8080, Jobs: 1, QuietPeriod: time.Millisecond, MaxWait: time.Second}
	}

	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"format", func(c *Config) { c.Format = "xml" }, "unknown format"},
		{"levels low", func(c *Config) { c.Levels = 0 }, "levels"},
		{"levels high", func(c *Config) { c.Levels = 6 }, "levels"},
		{"port", func(c *Config) { c.Port = 0 }, "invalid port"},
		{"half batch", func(c *Config) { c.DirA = "a" }, "dir-a and dir-b"},
		{"jobs", func(c *Config) { c.Jobs = 0 }, "jobs"},
		{"quiet period", func(c *Config) { c.QuietPeriod = 0 }, "quiet-period"},
		{"max wait", func(c *Config) { c.MaxWait = 0 }, "max-wait"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestBatchMode(t *testing.T) {
	cfg := Config{DirA: "a", DirB: "b"}
	if !cfg.BatchMode() {
		t.Error("BatchMode() = false with both directories")
	}
}
