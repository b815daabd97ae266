// Package callgraph aggregates sampled call stacks into a weighted call graph.
//
// # Overview
//
// A sampling profiler observes the same call stacks over and over. This
// package folds those observations into a graph whose nodes are distinct
// stack frames and whose edges are distinct caller→callee relationships, each
// carrying the summed sample weight of every stack that contributed to it.
//
// # Identity
//
// A node is identified by its [Frame]: the 4-tuple (thread, path, line,
// function). Frames are comparable values and are used directly as map keys,
// so repeated occurrences of a frame across stacks always resolve to one
// canonical [Node]. An [Edge] is identified by its ordered (parent, child)
// pair of frames.
//
// # Weights
//
// [Weights] is an open set of named counters. Loaders record sample counts
// under [DimCalls]; pprof profiles add one dimension per sample type. A
// missing dimension reads as 0.
//
// # Building
//
// [CallGraph.AddStack] is the single mutating operation:
//
//	g := callgraph.New()
//	main := callgraph.NewNode(callgraph.Frame{Thread: "t1", Path: "/a.py", Line: 10, Func: "main"})
//	work := callgraph.NewNode(callgraph.Frame{Thread: "t1", Path: "/a.py", Line: 20, Func: "work"})
//	g.AddStack([]*callgraph.Node{main, work}, callgraph.Weights{"calls": 5})
//
// Edge weight means "this call was taken"; the leaf node's own weight means
// "time was spent here". Interior nodes therefore only carry weight for
// stacks that end at them.
//
// # Ranking
//
// [CallGraph.TopNodes] and [CallGraph.TopEdges] return the heaviest nodes or
// edges for a dimension. Sorting is stable over insertion order, so output is
// reproducible for identical input.
//
// # Concurrency
//
// CallGraph instances are not safe for concurrent use. Each load builds a
// fresh graph; services handling concurrent requests build one per request.
package callgraph
