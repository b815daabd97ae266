package loader

import (
	"bytes"
	"context"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/matzehuels/stackgraph/pkg/callgraph"
	"github.com/matzehuels/stackgraph/pkg/datadir"
	"github.com/matzehuels/stackgraph/pkg/errors"
	"github.com/matzehuels/stackgraph/pkg/observability"
)

// Format identifies a profile encoding.
type Format string

const (
	FormatAuto    Format = ""
	FormatLiteral Format = "literal"
	FormatPprof   Format = "pprof"
)

// Options configures loading. The zero value auto-detects the format and
// uses the profile's default pprof sample type.
type Options struct {
	Format Format

	// SampleType names the pprof sample type copied into the "calls"
	// dimension. Empty selects the profile's default sample type, or the last
	// one if the profile declares none. Ignored for literal profiles.
	SampleType string

	// ThreadLabel is the pprof sample label used as the frame's thread name.
	// Defaults to "thread".
	ThreadLabel string
}

func (o Options) threadLabel() string {
	if o.ThreadLabel == "" {
		return "thread"
	}
	return o.ThreadLabel
}

// Sample is one stack of a profile and the weight observed for it. Frames
// are stored leaf-first, the order profilers record them in.
type Sample struct {
	Frames  []callgraph.Frame
	Weights callgraph.Weights
}

// Count returns the sample's "calls" weight.
func (s Sample) Count() int64 { return s.Weights.Get(callgraph.DimCalls) }

// Profile is a fully parsed profile that has not yet been turned into a
// graph.
type Profile struct {
	Format  Format
	Samples []Sample
}

// Parse decodes a literal profile: a mapping from stacks (sequences of
// 4-tuples thread, path, line, function) to non-negative integer counts.
// Anything outside that grammar is a MALFORMED_PROFILE error whose cause is a
// [*SyntaxError] locating the problem.
//
// A repeated stack keeps the position of its first occurrence and the count
// of its last.
func Parse(data []byte) (*Profile, error) {
	root, err := parseLiteral(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedProfile, err, "parse profile")
	}
	if root.kind != litDict {
		return nil, malformedAt(data, root.pos, "expected a mapping of stacks to counts, got %s", root.kind)
	}

	p := &Profile{Format: FormatLiteral, Samples: make([]Sample, 0, len(root.pairs))}
	seen := make(map[string]int, len(root.pairs))
	for _, pair := range root.pairs {
		key, val := pair[0], pair[1]
		frames, err := stackFrames(data, key)
		if err != nil {
			return nil, err
		}
		if val.kind != litInt {
			return nil, malformedAt(data, val.pos, "count must be an integer, got %s", val.kind)
		}
		if val.i < 0 {
			return nil, malformedAt(data, val.pos, "count must be non-negative, got %d", val.i)
		}

		w := callgraph.Weights{callgraph.DimCalls: val.i}
		id := stackID(frames)
		if i, ok := seen[id]; ok {
			p.Samples[i].Weights = w
			continue
		}
		seen[id] = len(p.Samples)
		p.Samples = append(p.Samples, Sample{Frames: frames, Weights: w})
	}
	return p, nil
}

func stackFrames(data []byte, key literal) ([]callgraph.Frame, error) {
	if key.kind != litTuple {
		return nil, malformedAt(data, key.pos, "stack must be a tuple of frames, got %s", key.kind)
	}
	if len(key.items) == 0 {
		return nil, malformedAt(data, key.pos, "stack has no frames")
	}
	frames := make([]callgraph.Frame, len(key.items))
	for i, item := range key.items {
		if item.kind != litTuple || len(item.items) != 4 {
			return nil, malformedAt(data, item.pos, "frame must be a 4-tuple (thread, path, line, function)")
		}
		thread, path, line, fn := item.items[0], item.items[1], item.items[2], item.items[3]
		switch {
		case thread.kind != litStr:
			return nil, malformedAt(data, thread.pos, "thread name must be a string, got %s", thread.kind)
		case path.kind != litStr:
			return nil, malformedAt(data, path.pos, "path must be a string, got %s", path.kind)
		case line.kind != litInt:
			return nil, malformedAt(data, line.pos, "line number must be an integer, got %s", line.kind)
		case fn.kind != litStr:
			return nil, malformedAt(data, fn.pos, "function name must be a string, got %s", fn.kind)
		}
		frames[i] = callgraph.Frame{Thread: thread.s, Path: path.s, Line: int(line.i), Func: fn.s}
	}
	return frames, nil
}

func stackID(frames []callgraph.Frame) string {
	var b strings.Builder
	for _, f := range frames {
		b.WriteString(strconv.Quote(f.Thread))
		b.WriteString(strconv.Quote(f.Path))
		b.WriteString(strconv.Itoa(f.Line))
		b.WriteString(strconv.Quote(f.Func))
		b.WriteByte(';')
	}
	return b.String()
}

func malformedAt(data []byte, pos int, format string, args ...any) error {
	p := &litParser{src: data, pos: pos}
	return errors.Wrap(errors.ErrCodeMalformedProfile, p.errorf(format, args...), "parse profile")
}

// Build turns a parsed profile into a call graph, adding one stack per sample
// in root-to-leaf order.
func Build(p *Profile) (*callgraph.CallGraph, error) {
	g := callgraph.New()
	for i, s := range p.Samples {
		nodes := make([]*callgraph.Node, len(s.Frames))
		for j, f := range s.Frames {
			nodes[len(nodes)-1-j] = callgraph.NewNode(f)
		}
		if err := g.AddStack(nodes, s.Weights); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedProfile, err, "sample %d", i)
		}
	}
	return g, nil
}

// Detect reports the format of data. Gzip streams and data containing
// control characters other than whitespace are pprof; everything else is
// treated as literal text.
func Detect(data []byte) Format {
	if bytes.HasPrefix(data, []byte{0x1f, 0x8b}) {
		return FormatPprof
	}
	for _, c := range data {
		if c < 0x20 && !isSpace(c) || c == 0x7f {
			return FormatPprof
		}
	}
	if !utf8.Valid(data) {
		return FormatPprof
	}
	return FormatLiteral
}

// Decode parses data into a [Profile] without building a graph.
func Decode(data []byte, opts Options) (*Profile, error) {
	format := opts.Format
	if format == FormatAuto {
		format = Detect(data)
	}
	switch format {
	case FormatLiteral:
		return Parse(data)
	case FormatPprof:
		return ParsePprof(data, opts)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown profile format %q", format)
	}
}

// Load parses data and builds its call graph. Parsing completes before any
// graph is constructed, so a malformed profile never yields a partial graph.
func Load(data []byte, opts Options) (*callgraph.CallGraph, error) {
	p, err := Decode(data, opts)
	if err != nil {
		return nil, err
	}
	return Build(p)
}

// LoadFile loads filename from the data directory. A filename escaping the
// directory fails with PATH_ESCAPE before anything is opened.
func LoadFile(ctx context.Context, dir datadir.Dir, filename string, opts Options) (*callgraph.CallGraph, error) {
	data, err := dir.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return LoadBytes(ctx, filename, data, opts)
}

// LoadPath loads a profile from an arbitrary local path. It is meant for
// command-line use where the caller already controls the path.
func LoadPath(ctx context.Context, path string, opts Options) (*callgraph.CallGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FromFS(err, path)
	}
	return LoadBytes(ctx, path, data, opts)
}

// LoadBytes is [Load] with load hooks reported under the name source.
func LoadBytes(ctx context.Context, source string, data []byte, opts Options) (*callgraph.CallGraph, error) {
	hooks := observability.Load()
	hooks.OnLoadStart(ctx, source, len(data))
	start := time.Now()

	format := opts.Format
	if format == FormatAuto {
		format = Detect(data)
	}
	g, err := Load(data, opts)

	stats := observability.LoadStats{Format: string(format)}
	if g != nil {
		stats.Nodes, stats.Edges, stats.Stacks = g.NodeCount(), g.EdgeCount(), g.StackCount()
	}
	hooks.OnLoadComplete(ctx, source, stats, time.Since(start), err)
	return g, err
}
