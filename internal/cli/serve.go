package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackgraph/pkg/config"
	"github.com/matzehuels/stackgraph/pkg/observability/promhooks"
	"github.com/matzehuels/stackgraph/pkg/server"
)

// serveCommand creates the serve command, which runs the web viewer over the
// data directory until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		exp       exportFlags
		port      int
		address   string
		debug     bool
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive call graph viewer",
		Long: `Serve the profiles of the data directory over HTTP. Open the printed URL
to pick a profile; /metrics exposes Prometheus metrics.`,
		Example: `  stackgraph serve --datadir ./profiles
  stackgraph serve --address 0.0.0.0 --port 9000 --debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("address") {
				cfg.Address = address
			}
			if debug {
				cfg.Debug = true
				c.SetLogLevel(LogDebug)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.serve(cmd, cfg, exp, !noMetrics)
		},
	}

	exp.register(cmd)
	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "port to listen on")
	cmd.Flags().StringVar(&address, "address", "", "address to bind (default all interfaces)")
	cmd.Flags().BoolVar(&debug, "debug", false, "log every request")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not expose /metrics")

	return cmd
}

func (c *CLI) serve(cmd *cobra.Command, cfg config.Config, exp exportFlags, metrics bool) error {
	ctx := cmd.Context()
	opts := server.Options{Export: cfg.ExportOptions(), Logger: c.Logger}
	if err := exp.apply(cmd, &opts.Export); err != nil {
		return err
	}

	if metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		promhooks.New(reg).Install()
		opts.Metrics = promhooks.Handler(reg)
	}

	c.Config = cfg
	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	printInfo("Open %s", StyleLink.Render("http://"+displayAddr(cfg)))
	printKeyValue("profiles", runner.Dir.Root)
	printKeyValue("cache", cfg.Cache.Backend)
	return server.New(runner, opts).ListenAndServe(ctx, cfg.ListenAddr())
}

// displayAddr is the address users can open, which differs from the bind
// address when binding to all interfaces.
func displayAddr(cfg config.Config) string {
	if cfg.Address == "" || cfg.Address == "0.0.0.0" {
		cfg.Address = "localhost"
	}
	return cfg.ListenAddr()
}
