package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackgraph/pkg/buildinfo"
	"github.com/matzehuels/stackgraph/pkg/cache"
	"github.com/matzehuels/stackgraph/pkg/config"
	"github.com/matzehuels/stackgraph/pkg/datadir"
	"github.com/matzehuels/stackgraph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "stackgraph"

	// configFileName is looked up in the user config directory when --config
	// is not given.
	configFileName = "config.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any command runs; see loadConfig.
	Config config.Config

	configPath string
	datadir    string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Stackgraph turns sampled call stacks into weighted call graphs",
		Long: `Stackgraph loads sampled call-stack profiles (stack literals or pprof),
aggregates them into a weighted call graph, and ranks, exports or serves it
as an interactive node-link diagram.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			if err := c.loadConfig(cmd); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/stackgraph/config.toml if present)")
	root.PersistentFlags().StringVar(&c.datadir, "datadir", "", "profile directory (default from config, else \"profiles\")")

	// Register all subcommands
	root.AddCommand(c.topCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file, if any, and applies persistent flags on
// top of it.
func (c *CLI) loadConfig(cmd *cobra.Command) error {
	path := c.configPath
	if path == "" {
		if p, err := defaultConfigPath(); err == nil {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		c.Config = cfg
		c.Logger.Debug("loaded config", "path", path)
	}
	if cmd.Flags().Changed("datadir") {
		c.Config.DataDir = c.datadir
	}
	if c.Config.Debug {
		c.SetLogLevel(LogDebug)
	}
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. With noCache the
// configured backend is ignored.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	var store cache.Cache
	if !noCache {
		var err error
		if store, err = cache.Open(ctx, c.cacheOptions()); err != nil {
			return nil, err
		}
	}
	// Entries written by another build may use a different payload layout.
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Version+":")
	r := pipeline.NewRunner(store, keyer, c.Logger, datadir.New(c.Config.DataDir))
	r.TTL = c.Config.Cache.TTL
	return r, nil
}

// cacheOptions returns the configured cache options, defaulting the file
// backend's directory to cacheDir.
func (c *CLI) cacheOptions() cache.Options {
	opts := c.Config.CacheOptions()
	if opts.Backend == cache.BackendFile && opts.Dir == "" {
		if dir, err := cacheDir(); err == nil {
			opts.Dir = dir
		}
	}
	return opts
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/stackgraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// defaultConfigPath returns $XDG_CONFIG_HOME/stackgraph/config.toml.
func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, configFileName), nil
}
