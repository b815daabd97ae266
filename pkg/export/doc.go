// Package export turns call graphs into visualization payloads.
//
// # Payload
//
// [Build] produces a [Payload] with three arrays:
//
//	{
//	  "nodes":  [{"attrs": {...}, "weights": {"calls": 5}, "id": ["t1", "/a.py", 20, "g"]}, ...],
//	  "edges":  [{"source": 1, "target": 0, "weights": {"calls": 5}}, ...],
//	  "stacks": [{"nodes": [1, 0], "weights": {"calls": 5}}, ...]
//	}
//
// Edges and stacks refer to nodes by position in the nodes array. Nodes are
// sorted by descending "calls", ties keeping the order in which stacks first
// reference them. Arrays are never null, so an empty graph encodes as three
// empty arrays.
//
// # Degree Cap
//
// Hub nodes (for example a dispatcher calling many handlers) make
// force-directed layouts unreadable. Nodes whose in+out degree exceeds
// [Options.MaxDegree] (default [DefaultMaxDegree]) are kept in the nodes
// array but every edge touching them is omitted. Stacks are not filtered: a
// stack may still list a node that has no exported edges.
//
// # Rendering
//
// [ToDOT] and [RenderSVG] draw a payload as a static node-link diagram using
// Graphviz:
//
//	dot := export.ToDOT(p, export.DOTOptions{MaxNodes: 50})
//	svg, err := export.RenderSVG(ctx, dot)
//
// # Entry Points
//
// [Profile] and [Data] combine loading and [Build] and report both stages to
// the observability hooks. Callers that cache payloads use the pipeline
// package instead.
package export
