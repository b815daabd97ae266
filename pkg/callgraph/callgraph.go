package callgraph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyStack is returned by [CallGraph.AddStack] when the stack has no
	// frames. An empty stack has no leaf to attribute weight to.
	ErrEmptyStack = errors.New("stack must contain at least one frame")

	// ErrNegativeWeight is returned by [CallGraph.AddStack] when a weight
	// mapping carries a negative value. Accumulators only ever grow.
	ErrNegativeWeight = errors.New("weights must be non-negative")

	// ErrNilNode is returned by [CallGraph.AddStack] when a node descriptor
	// in the stack is nil.
	ErrNilNode = errors.New("nil node in stack")
)

// Frame is the identity of one call-stack location. Two frames denote the
// same node if and only if all four fields are equal. Frame is comparable and
// is used directly as a map key.
type Frame struct {
	Thread string // Name of the sampled thread
	Path   string // Full path of the source file
	Line   int    // Line number within Path
	Func   string // Function name
}

// String renders the frame as "func (file:line) [thread]".
func (f Frame) String() string {
	return fmt.Sprintf("%s (%s:%d) [%s]", f.Func, baseName(f.Path), f.Line, f.Thread)
}

// Attrs holds the informational attributes of a node. They are derived from
// the frame and never take part in identity.
type Attrs struct {
	ThreadName   string
	FullPath     string
	FileName     string // Basename of FullPath
	LineNumber   int
	FunctionName string
}

// Node is a graph vertex: a deduplicated frame with the weight accumulated
// from every stack that ends at it.
//
// The zero value is not usable - create nodes with [NewNode].
type Node struct {
	ID      Frame
	Attrs   Attrs
	Weights Weights
}

// NewNode creates a node descriptor for f with attributes derived from the
// frame and an empty weight accumulator.
func NewNode(f Frame) *Node {
	return &Node{
		ID: f,
		Attrs: Attrs{
			ThreadName:   f.Thread,
			FullPath:     f.Path,
			FileName:     baseName(f.Path),
			LineNumber:   f.Line,
			FunctionName: f.Func,
		},
		Weights: Weights{},
	}
}

// EdgeKey is the identity of a directed edge. (A,B) and (B,A) are distinct.
type EdgeKey struct {
	Parent Frame
	Child  Frame
}

// Edge is a directed parent→child call relationship with the weight of every
// stack that took this call.
type Edge struct {
	Parent  *Node
	Child   *Node
	Weights Weights
}

// Key returns the identity of the edge.
func (e *Edge) Key() EdgeKey { return EdgeKey{Parent: e.Parent.ID, Child: e.Child.ID} }

// Stack is one sampled call chain in root-to-leaf order together with the
// weight observed for exactly that chain. Stacks are never modified after
// they are recorded.
type Stack struct {
	Nodes   []*Node
	Weights Weights
}

// Leaf returns the deepest node of the stack.
func (s *Stack) Leaf() *Node { return s.Nodes[len(s.Nodes)-1] }

// CallGraph aggregates stacks into a weighted call graph. Nodes and edges
// are interned by identity; stacks are kept in insertion order.
//
// The zero value is not usable - use [New]. A CallGraph is not safe for
// concurrent use; build one per request instead of sharing it.
type CallGraph struct {
	nodes     map[Frame]*Node
	edges     map[EdgeKey]*Edge
	nodeOrder []*Node
	edgeOrder []*Edge
	stacks    []*Stack
}

// New creates an empty call graph.
func New() *CallGraph {
	return &CallGraph{
		nodes: make(map[Frame]*Node),
		edges: make(map[EdgeKey]*Edge),
	}
}

// AddStack records one stack given root-to-leaf node descriptors and the
// weight mapping observed for it.
//
// Each descriptor is interned by its ID: the first descriptor seen for an
// identity becomes the canonical node and later references resolve to it.
// For every consecutive pair the edge is created or has w added to its
// weights, and w is added to the leaf node's own weights.
//
// AddStack validates its input before mutating anything: it returns
// [ErrEmptyStack], [ErrNilNode] or [ErrNegativeWeight] and leaves the graph
// unchanged on failure. Adding the same stack twice doubles every affected
// weight without creating new nodes.
func (g *CallGraph) AddStack(nodes []*Node, w Weights) error {
	if len(nodes) == 0 {
		return ErrEmptyStack
	}
	for _, n := range nodes {
		if n == nil {
			return ErrNilNode
		}
	}
	if !w.valid() {
		return ErrNegativeWeight
	}

	resolved := make([]*Node, len(nodes))
	for i, n := range nodes {
		resolved[i] = g.intern(n)
	}
	stack := &Stack{Nodes: resolved, Weights: w.Clone()}
	g.stacks = append(g.stacks, stack)

	for i := 0; i < len(resolved)-1; i++ {
		parent, child := resolved[i], resolved[i+1]
		key := EdgeKey{Parent: parent.ID, Child: child.ID}
		if e, ok := g.edges[key]; ok {
			e.Weights.Add(w)
			continue
		}
		e := &Edge{Parent: parent, Child: child, Weights: w.Clone()}
		g.edges[key] = e
		g.edgeOrder = append(g.edgeOrder, e)
	}

	stack.Leaf().Weights.Add(w)
	return nil
}

func (g *CallGraph) intern(n *Node) *Node {
	if existing, ok := g.nodes[n.ID]; ok {
		return existing
	}
	if n.Weights == nil {
		n.Weights = Weights{}
	}
	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n)
	return n
}

// Node returns the canonical node for f and true, or nil and false.
func (g *CallGraph) Node(f Frame) (*Node, bool) {
	n, ok := g.nodes[f]
	return n, ok
}

// Edge returns the edge parent→child and true, or nil and false.
func (g *CallGraph) Edge(parent, child Frame) (*Edge, bool) {
	e, ok := g.edges[EdgeKey{Parent: parent, Child: child}]
	return e, ok
}

// Nodes returns all nodes in insertion order. The slice is a copy but the
// nodes are the graph's own.
func (g *CallGraph) Nodes() []*Node { return append([]*Node(nil), g.nodeOrder...) }

// Edges returns all edges in insertion order.
func (g *CallGraph) Edges() []*Edge { return append([]*Edge(nil), g.edgeOrder...) }

// Stacks returns all recorded stacks in insertion order.
func (g *CallGraph) Stacks() []*Stack { return append([]*Stack(nil), g.stacks...) }

// NodeCount returns the number of distinct nodes.
func (g *CallGraph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of distinct edges.
func (g *CallGraph) EdgeCount() int { return len(g.edges) }

// StackCount returns the number of recorded stacks.
func (g *CallGraph) StackCount() int { return len(g.stacks) }

// Total sums dimension dim over all recorded stacks.
func (g *CallGraph) Total(dim string) int64 {
	var total int64
	for _, s := range g.stacks {
		total += s.Weights.Get(dim)
	}
	return total
}

// baseName returns the part of path after the last '/'. Profile paths always
// use '/' regardless of the host OS.
func baseName(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}
