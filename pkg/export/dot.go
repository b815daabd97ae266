package export

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stackgraph/pkg/callgraph"
	"github.com/matzehuels/stackgraph/pkg/observability"
)

// DOTOptions configures node-link diagram rendering.
type DOTOptions struct {
	// Detailed adds the thread name and weight breakdown to node labels.
	// When false, labels show function, location and calls.
	Detailed bool

	// MaxNodes keeps only the first MaxNodes payload nodes (the hottest, since
	// payload nodes are sorted by calls) and the edges between them. Zero
	// keeps every node.
	MaxNodes int
}

// ToDOT converts a payload to Graphviz DOT format for node-link visualization.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Node fill intensity and edge width scale with their share of the payload
// total.
func ToDOT(p *Payload, opts DOTOptions) string {
	keep := len(p.Nodes)
	if opts.MaxNodes > 0 {
		keep = min(keep, opts.MaxNodes)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=12, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  edge [color=\"#555555\", arrowsize=0.6];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	for i, n := range p.Nodes[:keep] {
		share := fraction(n.Weights.Get(callgraph.DimCalls), p.Total)
		fmt.Fprintf(&buf, "  n%d [label=%q, fillcolor=%q, tooltip=%q];\n",
			i, fmtLabel(n, share, opts.Detailed), fillColor(share), n.Attrs.FullPath)
	}

	buf.WriteString("\n")
	for _, e := range p.Edges {
		if e.Source >= keep || e.Target >= keep {
			continue
		}
		calls := e.Weights.Get(callgraph.DimCalls)
		width := 1 + 5*fraction(calls, p.Total)
		fmt.Fprintf(&buf, "  n%d -> n%d [penwidth=%.2f, label=%q];\n", e.Source, e.Target, width, strconv.FormatInt(calls, 10))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n Node, share float64, detailed bool) string {
	a := n.Attrs
	lines := []string{
		a.FunctionName,
		fmt.Sprintf("%s:%d", a.FileName, a.LineNumber),
		fmt.Sprintf("%d calls (%.1f%%)", n.Weights.Get(callgraph.DimCalls), 100*share),
	}
	if detailed {
		if a.ThreadName != "" {
			lines = append(lines, "thread: "+a.ThreadName)
		}
		for _, k := range n.Weights.Names() {
			if k != callgraph.DimCalls {
				lines = append(lines, fmt.Sprintf("%s: %d", k, n.Weights[k]))
			}
		}
	}
	return strings.Join(lines, "\n")
}

func fraction(v, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(v) / float64(total)
}

// fillColor shades from white to a warm red as share grows.
func fillColor(share float64) string {
	share = math.Max(0, math.Min(1, share))
	g := 255 - int(155*share)
	b := 255 - int(205*share)
	return fmt.Sprintf("#ff%02x%02x", g, b)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	start := time.Now()
	svg, err := renderSVG(ctx, dot)
	observability.Export().OnRenderComplete(ctx, "svg", len(svg), time.Since(start), err)
	return svg, err
}

func renderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales with its
// container: the viewBox starts at the origin and width/height match it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
