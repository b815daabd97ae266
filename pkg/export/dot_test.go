package export

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/stackgraph/pkg/callgraph"
)

func dotFixture(t *testing.T) *Payload {
	t.Helper()
	g := callgraph.New()
	addStack(t, g, 8, "main", "work")
	addStack(t, g, 2, "main", "idle")
	return Build(g, Options{})
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(dotFixture(t), DOTOptions{})

	for _, want := range []string{
		"digraph G {",
		`n0 [label="work\nwork.py:1\n8 calls (80.0%)"`,
		"n2 -> n0",
		"n2 -> n1",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTMaxNodes(t *testing.T) {
	dot := ToDOT(dotFixture(t), DOTOptions{MaxNodes: 2})

	if !strings.Contains(dot, "\n  n1 [") {
		t.Errorf("node n1 should be kept:\n%s", dot)
	}
	if strings.Contains(dot, "\n  n2 [") {
		t.Errorf("node n2 should be cut:\n%s", dot)
	}
	if strings.Contains(dot, "->") {
		t.Errorf("edges to cut nodes should be omitted:\n%s", dot)
	}
}

func TestToDOTDetailed(t *testing.T) {
	g := callgraph.New()
	nodes := []*callgraph.Node{callgraph.NewNode(fr("main")), callgraph.NewNode(fr("work"))}
	if err := g.AddStack(nodes, callgraph.Weights{callgraph.DimCalls: 3, "cpu": 300}); err != nil {
		t.Fatal(err)
	}

	dot := ToDOT(Build(g, Options{}), DOTOptions{Detailed: true})
	for _, want := range []string{`thread: t1`, `cpu: 300`} {
		if !strings.Contains(dot, want) {
			t.Errorf("detailed DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestFillColor(t *testing.T) {
	tests := []struct {
		share float64
		want  string
	}{
		{0, "#ffffff"},
		{1, "#ff6432"},
		{2, "#ff6432"},
		{-1, "#ffffff"},
	}
	for _, tt := range tests {
		if got := fillColor(tt.share); got != tt.want {
			t.Errorf("fillColor(%v) = %s, want %s", tt.share, got, tt.want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := normalizeViewBox(in)
	if !bytes.Contains(out, []byte(`viewBox="0 0 100.00 50.00" width="100" height="50"`)) {
		t.Errorf("unexpected root element: %s", out)
	}
	if !bytes.HasSuffix(out, []byte("<g/></svg>")) {
		t.Errorf("body should be preserved: %s", out)
	}

	plain := []byte("<svg><g/></svg>")
	if got := normalizeViewBox(plain); !bytes.Equal(got, plain) {
		t.Errorf("svg without viewBox should be unchanged, got %s", got)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(dotFixture(t), DOTOptions{}))
	if err != nil {
		t.Fatalf("RenderSVG error: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("output is not SVG: %.200s", svg)
	}
}
