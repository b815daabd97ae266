package export

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/matzehuels/stackgraph/pkg/callgraph"
	"github.com/matzehuels/stackgraph/pkg/loader"
)

// DefaultMaxDegree is the in+out degree above which a node is left out of
// the exported edges.
const DefaultMaxDegree = 6

// Options configures [Build].
type Options struct {
	// MaxDegree drops nodes whose total degree exceeds it from the edge list.
	// Zero means [DefaultMaxDegree]; a negative value disables the cap.
	MaxDegree int

	// StackFraction restricts node candidates to stacks whose calls exceed
	// this fraction of the total. Zero keeps every stack.
	StackFraction float64

	// Source configures profile loading in [Profile] and [Data]. Build
	// ignores it.
	Source loader.Options
}

// DegreeLimit returns the effective degree cap: [DefaultMaxDegree] for
// zero and -1 for any disabled (negative) cap.
func (o Options) DegreeLimit() int {
	switch {
	case o.MaxDegree == 0:
		return DefaultMaxDegree
	case o.MaxDegree < 0:
		return -1
	}
	return o.MaxDegree
}

// Payload is the visualization payload of one call graph.
type Payload struct {
	Nodes  []Node  `json:"nodes"`
	Edges  []Edge  `json:"edges"`
	Stacks []Stack `json:"stacks"`

	// Total is the sum of "calls" over all stacks.
	Total int64 `json:"-"`
	// Dropped counts nodes excluded from edges by the degree cap.
	Dropped int `json:"-"`
}

// Node is an exported graph vertex.
type Node struct {
	Attrs   NodeAttrs         `json:"attrs"`
	Weights callgraph.Weights `json:"weights"`
	ID      FrameID           `json:"id"`
}

// NodeAttrs mirrors [callgraph.Attrs] with the wire field names.
type NodeAttrs struct {
	ThreadName   string `json:"threadname"`
	FullPath     string `json:"fullpath"`
	FileName     string `json:"filename"`
	LineNumber   int    `json:"lineno"`
	FunctionName string `json:"funcname"`
}

// Edge references its endpoints by position in [Payload.Nodes].
type Edge struct {
	Source  int               `json:"source"`
	Target  int               `json:"target"`
	Weights callgraph.Weights `json:"weights"`
}

// Stack references its nodes, root first, by position in [Payload.Nodes].
type Stack struct {
	Nodes   []int             `json:"nodes"`
	Weights callgraph.Weights `json:"weights"`
}

// FrameID is a frame encoded as the array [thread, path, line, func].
type FrameID callgraph.Frame

func (id FrameID) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]any{id.Thread, id.Path, id.Line, id.Func})
}

func (id *FrameID) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 4 {
		return fmt.Errorf("frame id: want 4 elements, got %d", len(raw))
	}
	var f callgraph.Frame
	for i, dst := range []any{&f.Thread, &f.Path, &f.Line, &f.Func} {
		if err := json.Unmarshal(raw[i], dst); err != nil {
			return fmt.Errorf("frame id element %d: %w", i, err)
		}
	}
	*id = FrameID(f)
	return nil
}

// Frame returns the frame the id encodes.
func (id FrameID) Frame() callgraph.Frame { return callgraph.Frame(id) }

// Build computes the payload of g.
//
// Nodes are the nodes referenced by the candidate stacks, in order of first
// reference, then stably sorted by descending "calls". Edges are emitted in
// insertion order when both endpoints are exported nodes and neither has a
// degree above the cap. Stacks are emitted as index lists without degree
// filtering, so a stack may reference nodes that have no exported edges.
func Build(g *callgraph.CallGraph, opts Options) *Payload {
	p := &Payload{
		Nodes:  []Node{},
		Edges:  []Edge{},
		Stacks: []Stack{},
		Total:  g.Total(callgraph.DimCalls),
	}

	stacks := g.Stacks()
	candidates := stacks
	if opts.StackFraction > 0 {
		threshold := float64(p.Total) * opts.StackFraction
		candidates = slices.DeleteFunc(slices.Clone(stacks), func(s *callgraph.Stack) bool {
			return float64(s.Weights.Get(callgraph.DimCalls)) <= threshold
		})
	}

	var nodes []*callgraph.Node
	seen := make(map[callgraph.Frame]bool)
	for _, s := range candidates {
		for _, n := range s.Nodes {
			if !seen[n.ID] {
				seen[n.ID] = true
				nodes = append(nodes, n)
			}
		}
	}
	slices.SortStableFunc(nodes, func(a, b *callgraph.Node) int {
		return cmp.Compare(b.Weights.Get(callgraph.DimCalls), a.Weights.Get(callgraph.DimCalls))
	})

	index := make(map[callgraph.Frame]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
		p.Nodes = append(p.Nodes, Node{
			Attrs: NodeAttrs{
				ThreadName:   n.Attrs.ThreadName,
				FullPath:     n.Attrs.FullPath,
				FileName:     n.Attrs.FileName,
				LineNumber:   n.Attrs.LineNumber,
				FunctionName: n.Attrs.FunctionName,
			},
			Weights: n.Weights.Clone(),
			ID:      FrameID(n.ID),
		})
	}

	edges := g.Edges()
	dropped := make(map[callgraph.Frame]bool)
	if limit := opts.DegreeLimit(); limit >= 0 {
		degree := make(map[callgraph.Frame]int)
		for _, e := range edges {
			degree[e.Parent.ID]++
			degree[e.Child.ID]++
		}
		for f, d := range degree {
			if d > limit {
				dropped[f] = true
				if _, ok := index[f]; ok {
					p.Dropped++
				}
			}
		}
	}

	for _, e := range edges {
		src, okSrc := index[e.Parent.ID]
		dst, okDst := index[e.Child.ID]
		if !okSrc || !okDst || dropped[e.Parent.ID] || dropped[e.Child.ID] {
			continue
		}
		p.Edges = append(p.Edges, Edge{Source: src, Target: dst, Weights: e.Weights.Clone()})
	}

	for _, s := range stacks {
		refs := make([]int, 0, len(s.Nodes))
		for _, n := range s.Nodes {
			if i, ok := index[n.ID]; ok {
				refs = append(refs, i)
			}
		}
		if len(refs) != len(s.Nodes) {
			// References a node outside the candidate stacks.
			continue
		}
		p.Stacks = append(p.Stacks, Stack{Nodes: refs, Weights: s.Weights.Clone()})
	}
	return p
}
