// Package config loads stackgraph settings from a TOML file.
//
// A missing section or key keeps its default, so an empty file is a valid
// configuration. Command-line flags are applied on top by the CLI.
//
//	datadir = "profiles"
//	port    = 8888
//
//	[export]
//	max_degree     = 6
//	stack_fraction = 0.0
//
//	[cache]
//	backend = "file"
//	dir     = "~/.cache/stackgraph"
//	ttl     = "24h"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stackgraph/pkg/cache"
	"github.com/matzehuels/stackgraph/pkg/errors"
	"github.com/matzehuels/stackgraph/pkg/export"
	"github.com/matzehuels/stackgraph/pkg/loader"
)

// Defaults of the viewer.
const (
	DefaultDataDir = "profiles"
	DefaultPort    = 8888
)

// Config holds all settings of the CLI and the viewer.
type Config struct {
	DataDir string `toml:"datadir"`
	Address string `toml:"address"`
	Port    int    `toml:"port"`
	Debug   bool   `toml:"debug"`

	Export Export `toml:"export"`
	Cache  Cache  `toml:"cache"`
}

// Export holds the payload options.
type Export struct {
	MaxDegree     int     `toml:"max_degree"`
	StackFraction float64 `toml:"stack_fraction"`
	SampleType    string  `toml:"sample_type"`
	ThreadLabel   string  `toml:"thread_label"`
}

// Cache selects the export cache backend.
type Cache struct {
	Backend   string        `toml:"backend"`
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr"`
	RedisDB   int           `toml:"redis_db"`
	Prefix    string        `toml:"prefix"`
	TTL       time.Duration `toml:"ttl"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DataDir: DefaultDataDir,
		Port:    DefaultPort,
		Export:  Export{MaxDegree: export.DefaultMaxDegree},
		Cache:   Cache{Backend: cache.BackendNone, TTL: cache.TTLExport},
	}
}

// Load reads path over the defaults and validates the result. Unknown keys
// are rejected so typos do not pass silently.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.FromFS(err, path)
	}
	if err := Decode(string(data), &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}
	return cfg, cfg.Validate()
}

// Decode parses TOML text into cfg, leaving absent keys untouched.
func Decode(text string, cfg *Config) error {
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

var backends = []string{cache.BackendNone, cache.BackendFile, cache.BackendRedis}

// Validate reports the first invalid setting as an INVALID_INPUT error.
func (c Config) Validate() error {
	switch {
	case c.DataDir == "":
		return errors.New(errors.ErrCodeInvalidInput, "datadir cannot be empty")
	case c.Port < 1 || c.Port > 65535:
		return errors.New(errors.ErrCodeInvalidInput, "port %d out of range", c.Port)
	case c.Export.StackFraction < 0 || c.Export.StackFraction > 1:
		return errors.New(errors.ErrCodeInvalidInput, "stack_fraction %g not in [0, 1]", c.Export.StackFraction)
	case c.Export.SampleType != "" && errors.ValidateWeightName(c.Export.SampleType) != nil:
		return errors.ValidateWeightName(c.Export.SampleType)
	case c.Cache.Backend != "" && !slices.Contains(backends, c.Cache.Backend):
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (want one of %s)",
			c.Cache.Backend, strings.Join(backends, ", "))
	case c.Cache.Backend == cache.BackendRedis && c.Cache.RedisAddr == "":
		return errors.New(errors.ErrCodeInvalidInput, "redis cache needs redis_addr")
	case c.Cache.TTL < 0:
		return errors.New(errors.ErrCodeInvalidInput, "negative cache ttl")
	}
	return nil
}

// ListenAddr returns the host:port the viewer binds to.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}

// ExportOptions converts the export section to payload options.
func (c Config) ExportOptions() export.Options {
	return export.Options{
		MaxDegree:     c.Export.MaxDegree,
		StackFraction: c.Export.StackFraction,
		Source: loader.Options{
			SampleType:  c.Export.SampleType,
			ThreadLabel: c.Export.ThreadLabel,
		},
	}
}

// CacheOptions converts the cache section to backend options. A leading "~/"
// in the directory expands to the home directory.
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:   c.Cache.Backend,
		Dir:       expandHome(c.Cache.Dir),
		RedisAddr: c.Cache.RedisAddr,
		RedisDB:   c.Cache.RedisDB,
		Prefix:    c.Cache.Prefix,
	}
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
