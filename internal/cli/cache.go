package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackgraph/pkg/cache"
	"github.com/matzehuels/stackgraph/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the export and render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheInfoCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached payload and diagram",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.cacheOptions()
			store, err := cache.Open(cmd.Context(), opts)
			if err != nil {
				return errors.Wrap(errors.ErrCodeIO, err, "open cache")
			}
			defer store.Close()

			clearer, ok := store.(cache.Clearer)
			if !ok {
				printInfo("Cache backend %q keeps nothing to clear", opts.Backend)
				return nil
			}
			count, err := clearer.Clear(cmd.Context())
			if err != nil {
				return err
			}

			printSuccess("Cleared %d cached entries", count)
			switch opts.Backend {
			case cache.BackendFile:
				printDetail("Directory: %s", opts.Dir)
			case cache.BackendRedis:
				printDetail("Redis: %s db %d", opts.RedisAddr, opts.RedisDB)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.cacheOptions()
			dir := opts.Dir
			if dir == "" {
				var err error
				if dir, err = cacheDir(); err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

// cacheInfoCommand creates the "cache info" subcommand.
func (c *CLI) cacheInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the configured cache backend and its size",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.cacheOptions()
			printKeyValue("backend", opts.Backend)
			printKeyValue("ttl", c.Config.Cache.TTL.String())
			switch opts.Backend {
			case cache.BackendFile:
				fc, err := cache.NewFileCache(opts.Dir)
				if err != nil {
					return err
				}
				entries, size, err := fc.Stats()
				if err != nil {
					return errors.FromFS(err, opts.Dir)
				}
				printKeyValue("directory", opts.Dir)
				printKeyValue("entries", fmt.Sprintf("%d (%s)", entries, formatSize(size)))
			case cache.BackendRedis:
				printKeyValue("address", opts.RedisAddr)
				printKeyValue("db", fmt.Sprint(opts.RedisDB))
				if opts.Prefix != "" {
					printKeyValue("prefix", opts.Prefix)
				}
			}
			return nil
		},
	}
}
