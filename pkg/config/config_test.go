package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/stackgraph/pkg/cache"
	"github.com/matzehuels/stackgraph/pkg/errors"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stackgraph.toml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.DataDir != "profiles" || cfg.Port != 8888 || cfg.Address != "" || cfg.Debug {
		t.Errorf("Default() = %+v", cfg)
	}
	if cfg.Export.MaxDegree != 6 {
		t.Errorf("MaxDegree = %d, want 6", cfg.Export.MaxDegree)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
	if got := cfg.ListenAddr(); got != ":8888" {
		t.Errorf("ListenAddr() = %q, want :8888", got)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
datadir = "/var/profiles"
address = "127.0.0.1"
port = 9000
debug = true

[export]
max_degree = 10
stack_fraction = 0.01
sample_type = "cpu"

[cache]
backend = "file"
dir = "/tmp/sg"
ttl = "1h30m"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.DataDir != "/var/profiles" || cfg.Address != "127.0.0.1" || cfg.Port != 9000 || !cfg.Debug {
		t.Errorf("top-level = %+v", cfg)
	}
	if cfg.Export.MaxDegree != 10 || cfg.Export.StackFraction != 0.01 || cfg.Export.SampleType != "cpu" {
		t.Errorf("export = %+v", cfg.Export)
	}
	if cfg.Cache.Backend != "file" || cfg.Cache.TTL != 90*time.Minute {
		t.Errorf("cache = %+v", cfg.Cache)
	}

	opts := cfg.ExportOptions()
	if opts.MaxDegree != 10 || opts.Source.SampleType != "cpu" {
		t.Errorf("ExportOptions() = %+v", opts)
	}
	if co := cfg.CacheOptions(); co.Backend != cache.BackendFile || co.Dir != "/tmp/sg" {
		t.Errorf("CacheOptions() = %+v", co)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `port = 9999`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataDir != DefaultDataDir || cfg.Export.MaxDegree != 6 || cfg.Cache.TTL != cache.TTLExport {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		code errors.Code
	}{
		{"syntax", `port = `, errors.ErrCodeInvalidInput},
		{"unknown key", `colour = "red"`, errors.ErrCodeInvalidInput},
		{"bad port", `port = 70000`, errors.ErrCodeInvalidInput},
		{"bad backend", "[cache]\nbackend = \"memcached\"", errors.ErrCodeInvalidInput},
		{"redis without addr", "[cache]\nbackend = \"redis\"", errors.ErrCodeInvalidInput},
		{"fraction", "[export]\nstack_fraction = 2.0", errors.ErrCodeInvalidInput},
		{"sample type", "[export]\nsample_type = \"no spaces\"", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.text))
			if !errors.Is(err, tt.code) {
				t.Errorf("Load(%q) error = %v, want %s", tt.text, err, tt.code)
			}
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestDecodeUnknownKeysListed(t *testing.T) {
	cfg := Default()
	err := Decode("[export]\nmax_depth = 3", &cfg)
	if err == nil || !strings.Contains(err.Error(), "export.max_depth") {
		t.Errorf("Decode error = %v, want export.max_depth mentioned", err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/cache"); got != filepath.Join(home, "cache") {
		t.Errorf("expandHome(~/cache) = %q", got)
	}
	if got := expandHome("/abs"); got != "/abs" {
		t.Errorf("expandHome(/abs) = %q", got)
	}
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "examples", "config.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DataDir != "examples/profiles" || cfg.Address != "127.0.0.1" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Cache.Backend != cache.BackendFile || cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}
