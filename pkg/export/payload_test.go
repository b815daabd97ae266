package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/stackgraph/pkg/callgraph"
	"github.com/matzehuels/stackgraph/pkg/errors"
)

func fr(fn string) callgraph.Frame {
	return callgraph.Frame{Thread: "t1", Path: "/app/" + fn + ".py", Line: 1, Func: fn}
}

func addStack(t *testing.T, g *callgraph.CallGraph, calls int64, funcs ...string) {
	t.Helper()
	nodes := make([]*callgraph.Node, len(funcs))
	for i, fn := range funcs {
		nodes[i] = callgraph.NewNode(fr(fn))
	}
	if err := g.AddStack(nodes, callgraph.Weights{callgraph.DimCalls: calls}); err != nil {
		t.Fatal(err)
	}
}

func funcs(p *Payload) []string {
	out := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		out[i] = n.Attrs.FunctionName
	}
	return out
}

func TestBuildEmptyGraph(t *testing.T) {
	p := Build(callgraph.New(), Options{})

	var buf bytes.Buffer
	if err := WriteJSON(p, &buf); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), `{"nodes":[],"edges":[],"stacks":[]}`+"\n"; got != want {
		t.Errorf("WriteJSON = %q, want %q", got, want)
	}
	if p.Total != 0 {
		t.Errorf("Total = %d, want 0", p.Total)
	}
}

func TestBuildSingleStack(t *testing.T) {
	g := callgraph.New()
	addStack(t, g, 5, "f", "g")

	p := Build(g, Options{})

	// g carries the leaf weight and sorts first.
	if got := funcs(p); strings.Join(got, ",") != "g,f" {
		t.Fatalf("nodes = %v, want [g f]", got)
	}
	if len(p.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(p.Edges))
	}
	e := p.Edges[0]
	if e.Source != 1 || e.Target != 0 || e.Weights.Get(callgraph.DimCalls) != 5 {
		t.Errorf("edge = %+v, want 1 -> 0 with calls 5", e)
	}
	if len(p.Stacks) != 1 || fmt.Sprint(p.Stacks[0].Nodes) != "[1 0]" {
		t.Errorf("stacks = %+v, want one stack [1 0]", p.Stacks)
	}
	if p.Total != 5 {
		t.Errorf("Total = %d, want 5", p.Total)
	}
}

func TestBuildJSONShape(t *testing.T) {
	g := callgraph.New()
	addStack(t, g, 3, "main", "work")

	data, err := MarshalJSON(Build(g, Options{}))
	if err != nil {
		t.Fatal(err)
	}

	var raw struct {
		Nodes []map[string]json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	node := raw.Nodes[0]
	for _, key := range []string{"attrs", "weights", "id"} {
		if _, ok := node[key]; !ok {
			t.Errorf("node is missing %q", key)
		}
	}
	if got, want := string(node["id"]), `["t1","/app/work.py",1,"work"]`; got != want {
		t.Errorf("id = %s, want %s", got, want)
	}
	var attrs map[string]any
	if err := json.Unmarshal(node["attrs"], &attrs); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"threadname", "fullpath", "filename", "lineno", "funcname"} {
		if _, ok := attrs[key]; !ok {
			t.Errorf("attrs is missing %q", key)
		}
	}
	if attrs["filename"] != "work.py" {
		t.Errorf("filename = %v, want work.py", attrs["filename"])
	}
	if bytes.Contains(data, []byte("Total")) || bytes.Contains(data, []byte("total")) {
		t.Error("total must not be serialized")
	}
}

func TestBuildDegreeCap(t *testing.T) {
	tests := []struct {
		name      string
		children  int
		maxDegree int
		wantEdges int
	}{
		{"hub at the cap keeps edges", 6, 0, 6},
		{"hub above the cap loses edges", 7, 0, 0},
		{"custom cap", 4, 3, 0},
		{"cap disabled", 7, -1, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := callgraph.New()
			for i := range tt.children {
				addStack(t, g, int64(i+1), "hub", fmt.Sprintf("leaf%d", i))
			}

			p := Build(g, Options{MaxDegree: tt.maxDegree})
			if len(p.Edges) != tt.wantEdges {
				t.Errorf("edges = %d, want %d", len(p.Edges), tt.wantEdges)
			}
			// Every node is still exported and every stack still references
			// the hub.
			if len(p.Nodes) != tt.children+1 {
				t.Errorf("nodes = %d, want %d", len(p.Nodes), tt.children+1)
			}
			if len(p.Stacks) != tt.children {
				t.Fatalf("stacks = %d, want %d", len(p.Stacks), tt.children)
			}
			hub := -1
			for i, n := range p.Nodes {
				if n.Attrs.FunctionName == "hub" {
					hub = i
				}
			}
			for _, s := range p.Stacks {
				if s.Nodes[0] != hub {
					t.Errorf("stack %v does not start at hub %d", s.Nodes, hub)
				}
			}
			wantDropped := 0
			if tt.wantEdges == 0 {
				wantDropped = 1
			}
			if p.Dropped != wantDropped {
				t.Errorf("Dropped = %d, want %d", p.Dropped, wantDropped)
			}
		})
	}
}

func TestBuildDegreeCountsBothDirections(t *testing.T) {
	// mid has 3 callers and 4 callees: degree 7.
	g := callgraph.New()
	for i := range 3 {
		for j := range 4 {
			addStack(t, g, 1, fmt.Sprintf("caller%d", i), "mid", fmt.Sprintf("callee%d", j))
		}
	}
	p := Build(g, Options{})
	if len(p.Edges) != 0 {
		t.Errorf("edges = %d, want 0", len(p.Edges))
	}
}

func TestBuildStableNodeOrder(t *testing.T) {
	g := callgraph.New()
	addStack(t, g, 2, "main", "a")
	addStack(t, g, 2, "main", "b")
	addStack(t, g, 9, "main", "c")
	addStack(t, g, 2, "main", "d")

	p := Build(g, Options{})
	if got := strings.Join(funcs(p), ","); got != "c,a,b,d,main" {
		t.Errorf("nodes = %s, want c,a,b,d,main", got)
	}
	// Edges keep insertion order regardless of node order.
	var targets []string
	for _, e := range p.Edges {
		targets = append(targets, p.Nodes[e.Target].Attrs.FunctionName)
	}
	if got := strings.Join(targets, ","); got != "a,b,c,d" {
		t.Errorf("edge targets = %s, want a,b,c,d", got)
	}
}

func TestBuildStackFraction(t *testing.T) {
	g := callgraph.New()
	addStack(t, g, 90, "main", "hot")
	addStack(t, g, 10, "other", "cold")

	p := Build(g, Options{StackFraction: 0.2})
	if got := strings.Join(funcs(p), ","); got != "hot,main" {
		t.Errorf("nodes = %s, want hot,main", got)
	}
	if len(p.Stacks) != 1 {
		t.Errorf("stacks = %d, want 1", len(p.Stacks))
	}
	if p.Total != 100 {
		t.Errorf("Total = %d, want 100", p.Total)
	}
}

func TestBuildEdgeIndicesInRange(t *testing.T) {
	g := callgraph.New()
	addStack(t, g, 1, "a", "b", "c")
	addStack(t, g, 2, "a", "c")
	addStack(t, g, 3, "b", "a")

	p := Build(g, Options{})
	for _, e := range p.Edges {
		if e.Source < 0 || e.Source >= len(p.Nodes) || e.Target < 0 || e.Target >= len(p.Nodes) {
			t.Errorf("edge %+v out of range", e)
		}
	}
	for i := 1; i < len(p.Nodes); i++ {
		if p.Nodes[i-1].Weights.Get(callgraph.DimCalls) < p.Nodes[i].Weights.Get(callgraph.DimCalls) {
			t.Errorf("nodes not sorted at %d", i)
		}
	}
}

func TestReadJSON(t *testing.T) {
	g := callgraph.New()
	addStack(t, g, 4, "main", "work")
	var buf bytes.Buffer
	if err := WriteJSON(Build(g, Options{}), &buf); err != nil {
		t.Fatal(err)
	}

	p, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON error: %v", err)
	}
	if p.Total != 4 {
		t.Errorf("Total = %d, want 4", p.Total)
	}
	if got := p.Nodes[0].ID.Frame(); got != fr("work") {
		t.Errorf("id = %+v, want %+v", got, fr("work"))
	}

	_, err = ReadJSON(strings.NewReader(`{"nodes":[],"edges":[{"source":0,"target":1,"weights":{}}],"stacks":[]}`))
	if err == nil {
		t.Error("expected error for out-of-range edge")
	}
	_, err = ReadJSON(strings.NewReader(`{"nodes":[{"id":["t",1]}]}`))
	if err == nil {
		t.Error("expected error for short frame id")
	}
}

func TestWriteJSONFile(t *testing.T) {
	g := callgraph.New()
	addStack(t, g, 4, "main", "work")
	addStack(t, g, 1, "main", "idle")
	want := Build(g, Options{})

	path := filepath.Join(t.TempDir(), "app.json")
	if err := WriteJSONFile(want, path); err != nil {
		t.Fatalf("WriteJSONFile error: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := ReadJSON(f)
	if err != nil {
		t.Fatalf("ReadJSON error: %v", err)
	}
	if len(got.Nodes) != 3 || len(got.Edges) != 2 || len(got.Stacks) != 2 || got.Total != 5 {
		t.Errorf("round trip = %d/%d/%d total %d, want 3/2/2 total 5",
			len(got.Nodes), len(got.Edges), len(got.Stacks), got.Total)
	}

	missing := filepath.Join(t.TempDir(), "no", "such", "dir", "app.json")
	if err := WriteJSONFile(want, missing); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("WriteJSONFile into a missing dir = %v, want FILE_NOT_FOUND", err)
	}
}

func TestDegreeLimit(t *testing.T) {
	tests := []struct {
		maxDegree int
		want      int
	}{
		{0, DefaultMaxDegree},
		{DefaultMaxDegree, DefaultMaxDegree},
		{3, 3},
		{-1, -1},
		{-42, -1},
	}
	for _, tt := range tests {
		if got := (Options{MaxDegree: tt.maxDegree}).DegreeLimit(); got != tt.want {
			t.Errorf("DegreeLimit(%d) = %d, want %d", tt.maxDegree, got, tt.want)
		}
	}
}
