// Package loader turns serialized profiles into call graphs.
//
// Two encodings are understood:
//
//   - Literal text: a mapping from stacks to sample counts written as data
//     literals, one entry per distinct stack. Each stack is a tuple of frames
//     (thread, path, line, function), leaf first:
//
//     {(('MainThread', '/app/main.py', 20, 'work'),
//     ('MainThread', '/app/main.py', 10, 'main')): 5}
//
//   - pprof: the gzipped protobuf format written by Go's runtime/pprof and
//     most continuous profilers.
//
// The literal parser is a whitelist: it accepts mappings, tuples, lists,
// quoted strings and integers, and nothing else. Input that does not match
// fails with a MALFORMED_PROFILE error (see [errors.ErrCodeMalformedProfile])
// whose cause is a [*SyntaxError] carrying the offending offset.
//
// # Loading
//
// [Load] parses and builds in one step. Parsing always completes before a
// graph is built, so a bad profile never produces a partial graph:
//
//	g, err := loader.Load(data, loader.Options{})
//
// [LoadFile] reads from a data directory and refuses filenames that resolve
// outside it before opening anything:
//
//	g, err := loader.LoadFile(ctx, datadir.New("profiles"), name, loader.Options{})
//
// Stacks are stored leaf-first in both encodings; [Build] reverses them to
// root-to-leaf order before adding them to the graph.
package loader
