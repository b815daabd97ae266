package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackgraph/pkg/errors"
	"github.com/matzehuels/stackgraph/pkg/export"
	"github.com/matzehuels/stackgraph/pkg/pipeline"
)

// exportCommand creates the export command, which writes the visualization
// payload of a profile as JSON, DOT or SVG.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		src      sourceFlags
		exp      exportFlags
		format   string
		output   string
		maxNodes int
		detailed bool
		refresh  bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export the call graph of a profile",
		Long: `Load a profile, prune it to a node-link payload and write it as JSON
({nodes, edges, stacks}), Graphviz DOT or a rendered SVG diagram.

Nodes with more than --max-degree edges are dropped from the edge list.`,
		Example: `  stackgraph export profiles/app.prof
  stackgraph export cpu.pb.gz -f svg -o cpu.svg --max-nodes 40
  stackgraph export app.prof --stack-fraction 0.01 -o app.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateFormat(format, pipeline.Formats); err != nil {
				return err
			}
			format = strings.ToLower(format)
			if maxNodes < 0 {
				return errors.New(errors.ErrCodeInvalidInput, "--max-nodes must not be negative")
			}

			opts := pipeline.Options{Export: c.Config.ExportOptions(), Refresh: refresh}
			source, err := src.options(opts.Export.Source)
			if err != nil {
				return err
			}
			opts.Export.Source = source
			if err := exp.apply(cmd, &opts.Export); err != nil {
				return err
			}
			opts.DOT.MaxNodes = maxNodes
			opts.DOT.Detailed = detailed

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			res, err := runner.ExportPath(ctx, args[0], opts)
			if err != nil {
				return err
			}

			var out []byte
			cached := res.CacheHit
			switch format {
			case pipeline.FormatJSON:
				out = res.JSON
			case pipeline.FormatDOT:
				out = []byte(runner.DOT(res, opts))
			case pipeline.FormatSVG:
				spin := newSpinner(ctx, cmd.ErrOrStderr(), "Rendering SVG...")
				spin.Start()
				out, cached, err = runner.SVG(ctx, res, opts)
				spin.Stop()
				if err != nil {
					return err
				}
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(out)
				return err
			}
			if err := writeOutput(format, output, res, out); err != nil {
				return err
			}

			printSuccess("Exported %s", args[0])
			printFile(output)
			printStats(res.Stats, cached)
			return nil
		},
	}

	src.register(cmd)
	exp.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatJSON, fmt.Sprintf("output format %v", pipeline.Formats))
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().IntVar(&maxNodes, "max-nodes", 0, "dot/svg: keep only the N hottest nodes (0 keeps all)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "dot/svg: add thread and weight breakdown to labels")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "skip cache lookups")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func writeOutput(format, path string, res *pipeline.Result, out []byte) error {
	if format == pipeline.FormatJSON {
		return export.WriteJSONFile(res.Payload, path)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.FromFS(err, path)
	}
	return nil
}
