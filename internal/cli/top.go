package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackgraph/pkg/callgraph"
	"github.com/matzehuels/stackgraph/pkg/errors"
	"github.com/matzehuels/stackgraph/pkg/loader"
)

// topCommand creates the top command, which ranks nodes and edges.
func (c *CLI) topCommand() *cobra.Command {
	var (
		src    sourceFlags
		nodes  int
		edges  int
		weight string
	)

	cmd := &cobra.Command{
		Use:   "top FILE",
		Short: "Show the heaviest frames and calls of a profile",
		Long: `Load a profile and print the frames and caller→callee edges with the
largest accumulated weight. Ties keep the order in which frames were first seen.`,
		Example: `  stackgraph top profiles/app.prof
  stackgraph top cpu.pb.gz --weight cpu --nodes 20 --edges 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateWeightName(weight); err != nil {
				return err
			}
			opts, err := src.options(c.Config.ExportOptions().Source)
			if err != nil {
				return err
			}

			prog := newProgress(loggerFromContext(cmd.Context()))
			g, err := loader.LoadPath(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Loaded %d frames from %d stacks", g.NodeCount(), g.StackCount()))

			out := cmd.OutOrStdout()
			total := g.Total(weight)
			if nodes > 0 {
				fmt.Fprintln(out, StyleTitle.Render("Top frames by "+weight))
				fmt.Fprintln(out, nodeTable(g.TopNodes(weight, nodes), weight, total))
			}
			if edges > 0 {
				fmt.Fprintln(out, StyleTitle.Render("Top calls by "+weight))
				fmt.Fprintln(out, edgeTable(g.TopEdges(weight, edges), weight, total))
			}
			printTotals(out, g, weight, total)
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().IntVarP(&nodes, "nodes", "n", 10, "number of frames to show")
	cmd.Flags().IntVarP(&edges, "edges", "e", 10, "number of edges to show")
	cmd.Flags().StringVarP(&weight, "weight", "w", callgraph.DimCalls, "weight dimension to rank by")

	return cmd
}

func newTable(headers ...string) *table.Table {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return headerStyle.Padding(0, 1)
			case col == 1:
				return base.Foreground(colorCyan).Align(lipgloss.Right)
			case col == 2:
				return base.Foreground(colorGray).Align(lipgloss.Right)
			}
			return base
		})
}

func nodeTable(nodes []*callgraph.Node, weight string, total int64) string {
	t := newTable("#", weight, "share", "function", "location", "thread")
	for i, n := range nodes {
		a := n.Attrs
		t.Row(
			strconv.Itoa(i+1),
			strconv.FormatInt(n.Weights.Get(weight), 10),
			share(n.Weights.Get(weight), total),
			a.FunctionName,
			fmt.Sprintf("%s:%d", a.FileName, a.LineNumber),
			a.ThreadName,
		)
	}
	return t.Render()
}

func edgeTable(edges []*callgraph.Edge, weight string, total int64) string {
	t := newTable("#", weight, "share", "caller", "", "callee")
	for i, e := range edges {
		t.Row(
			strconv.Itoa(i+1),
			strconv.FormatInt(e.Weights.Get(weight), 10),
			share(e.Weights.Get(weight), total),
			e.Parent.Attrs.FunctionName,
			iconArrow,
			e.Child.Attrs.FunctionName,
		)
	}
	return t.Render()
}

func printTotals(w io.Writer, g *callgraph.CallGraph, weight string, total int64) {
	fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("  %d frames · %d edges · %d stacks · %s total %d",
		g.NodeCount(), g.EdgeCount(), g.StackCount(), weight, total)))
}

func share(v, total int64) string {
	if total <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(v)/float64(total))
}
