// Package pkg provides the core libraries of stackgraph.
//
// # Overview
//
// Stackgraph turns sampled call-stack profiles into weighted call graphs and
// exports them as node-link diagrams. The pkg directory is organized as:
//
//  1. [loader] - Profile decoding (stack literals and pprof)
//  2. [callgraph] - The weighted graph, ranking and degree queries
//  3. [export] - Pruned {nodes, edges, stacks} payloads, DOT and SVG
//  4. [pipeline] - Cached orchestration (load → export → render)
//  5. [server] - The HTTP viewer over a data directory
//
// Supporting packages: [cache] (none/file/redis backends), [config] (TOML
// settings), [datadir] (confined profile lookup), [errors] (coded errors),
// [observability] (hooks, with Prometheus in [observability/promhooks]) and
// [buildinfo].
//
// # Architecture
//
//	profile bytes (literal or pprof)
//	         ↓
//	    [loader] (parse everything, then build)
//	         ↓
//	    [callgraph] (nodes, edges, stacks with per-dimension weights)
//	         ↓
//	    [export] (degree cap, stack filter)
//	         ↓
//	    JSON / DOT / SVG
//
// # Quick Start
//
//	g, err := loader.LoadPath(ctx, "app.prof", loader.Options{})
//	if err != nil {
//	    return err
//	}
//	for _, n := range g.TopNodes(callgraph.DimCalls, 10) {
//	    fmt.Println(n.Attrs.FunctionName, n.Weights.Get(callgraph.DimCalls))
//	}
//
//	payload := export.Build(g, export.Options{})
//	return export.WriteJSON(payload, os.Stdout)
//
// # Errors
//
// Every package reports failures as [errors.Error] values carrying a stable
// code such as MALFORMED_PROFILE or PATH_ESCAPE; the viewer maps codes to HTTP
// status codes with [errors.HTTPStatus].
package pkg
