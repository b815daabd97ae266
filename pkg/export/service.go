package export

import (
	"context"
	"time"

	"github.com/matzehuels/stackgraph/pkg/callgraph"
	"github.com/matzehuels/stackgraph/pkg/datadir"
	"github.com/matzehuels/stackgraph/pkg/loader"
	"github.com/matzehuels/stackgraph/pkg/observability"
)

// Profile loads filename from dir and builds its payload. The filename is
// confined to dir; see [loader.LoadFile].
func Profile(ctx context.Context, dir datadir.Dir, filename string, opts Options) (*Payload, error) {
	g, err := loader.LoadFile(ctx, dir, filename, opts.Source)
	if err != nil {
		return nil, err
	}
	return Graph(ctx, filename, g, opts), nil
}

// Data builds the payload of a serialized profile.
func Data(ctx context.Context, data []byte, opts Options) (*Payload, error) {
	g, err := loader.LoadBytes(ctx, "<data>", data, opts.Source)
	if err != nil {
		return nil, err
	}
	return Graph(ctx, "<data>", g, opts), nil
}

// Graph is [Build] with export hooks reported under the name source.
func Graph(ctx context.Context, source string, g *callgraph.CallGraph, opts Options) *Payload {
	start := time.Now()
	p := Build(g, opts)
	observability.Export().OnExportComplete(ctx, source, observability.ExportStats{
		Nodes:   len(p.Nodes),
		Edges:   len(p.Edges),
		Stacks:  len(p.Stacks),
		Dropped: p.Dropped,
	}, time.Since(start), nil)
	return p
}
