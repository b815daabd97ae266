package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/stackgraph/pkg/datadir"
	"github.com/matzehuels/stackgraph/pkg/errors"
	"github.com/matzehuels/stackgraph/pkg/observability"
)

type recordingExportHooks struct {
	observability.NoopExportHooks
	sources []string
	stats   observability.ExportStats
}

func (h *recordingExportHooks) OnExportComplete(_ context.Context, source string, stats observability.ExportStats, _ time.Duration, _ error) {
	h.sources = append(h.sources, source)
	h.stats = stats
}

func TestProfile(t *testing.T) {
	root := t.TempDir()
	profile := `{(('t', '/a.py', 2, 'g'), ('t', '/a.py', 1, 'f')): 3}`
	if err := os.WriteFile(filepath.Join(root, "p.txt"), []byte(profile), 0o644); err != nil {
		t.Fatal(err)
	}

	hooks := &recordingExportHooks{}
	observability.SetExportHooks(hooks)
	defer observability.Reset()

	p, err := Profile(context.Background(), datadir.New(root), "p.txt", Options{})
	if err != nil {
		t.Fatalf("Profile error: %v", err)
	}
	if len(p.Nodes) != 2 || len(p.Edges) != 1 || len(p.Stacks) != 1 {
		t.Errorf("payload = %d nodes, %d edges, %d stacks; want 2, 1, 1", len(p.Nodes), len(p.Edges), len(p.Stacks))
	}
	if len(hooks.sources) != 1 || hooks.sources[0] != "p.txt" {
		t.Errorf("hook sources = %v, want [p.txt]", hooks.sources)
	}
	if hooks.stats.Nodes != 2 {
		t.Errorf("hook nodes = %d, want 2", hooks.stats.Nodes)
	}
}

func TestProfileErrors(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "bad.txt"), []byte("5"), 0o644); err != nil {
		t.Fatal(err)
	}
	dir := datadir.New(root)
	ctx := context.Background()

	tests := []struct {
		name     string
		filename string
		code     errors.Code
	}{
		{"escape", "../outside.txt", errors.ErrCodePathEscape},
		{"missing", "nope.txt", errors.ErrCodeFileNotFound},
		{"malformed", "bad.txt", errors.ErrCodeMalformedProfile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Profile(ctx, dir, tt.filename, Options{})
			if p != nil {
				t.Error("expected no payload")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), tt.code)
			}
		})
	}
}
