// Package pipeline runs the load → export → render pipeline with caching.
//
// The CLI and the HTTP viewer both go through a [Runner], so a payload
// exported by one is reused by the other when they share a cache backend.
//
// # Stages
//
//  1. Load: read the profile bytes and build a call graph (pkg/loader)
//  2. Export: prune the graph into a node-link payload (pkg/export)
//  3. Render: turn the payload into Graphviz SVG (optional)
//
// Only serialized outputs are cached. Export entries are keyed by the hash
// of the raw profile bytes plus the export options; render entries by the
// hash of the payload plus the DOT options.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger, datadir.New("profiles"))
//	res, err := runner.Export(ctx, "app.prof", pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	w.Write(res.JSON)
package pipeline

import (
	"time"

	"github.com/matzehuels/stackgraph/pkg/cache"
	"github.com/matzehuels/stackgraph/pkg/export"
)

// Output formats produced by the pipeline.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// Formats lists the supported output formats.
var Formats = []string{FormatJSON, FormatDOT, FormatSVG}

// Options configures one pipeline run.
type Options struct {
	Export export.Options
	DOT    export.DOTOptions

	// Refresh skips cache lookups. Fresh results are still stored.
	Refresh bool
}

// exportKeyOpts returns the cache key options of the export stage.
func (o Options) exportKeyOpts() cache.ExportKeyOpts {
	return cache.ExportKeyOpts{
		Format:        string(o.Export.Source.Format),
		SampleType:    o.Export.Source.SampleType,
		ThreadLabel:   o.Export.Source.ThreadLabel,
		MaxDegree:     o.Export.DegreeLimit(),
		StackFraction: o.Export.StackFraction,
	}
}

// renderKeyOpts returns the cache key options of the render stage.
func (o Options) renderKeyOpts() cache.RenderKeyOpts {
	return cache.RenderKeyOpts{
		Format:   FormatSVG,
		MaxNodes: o.DOT.MaxNodes,
		Detailed: o.DOT.Detailed,
	}
}

// Result is the output of [Runner.Export].
type Result struct {
	// Payload is the decoded export payload.
	Payload *export.Payload

	// JSON is the serialized payload, byte-identical between hits and misses.
	JSON []byte

	// Hash is the content hash of the profile bytes.
	Hash string

	Stats    Stats
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Nodes  int
	Edges  int
	Stacks int

	// Dropped counts nodes pruned by the degree cap.
	Dropped int

	Duration time.Duration
}
