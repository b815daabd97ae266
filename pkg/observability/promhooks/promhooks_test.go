package promhooks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/stackgraph/pkg/errors"
	"github.com/matzehuels/stackgraph/pkg/observability"
)

// value returns the counter or gauge value of the series of name whose labels
// include want.
func value(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue series
				}
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			if g := m.GetGauge(); g != nil {
				return g.GetValue()
			}
			if h := m.GetHistogram(); h != nil {
				return float64(h.GetSampleCount())
			}
		}
	}
	return 0
}

func TestLoadHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(reg)
	ctx := context.Background()

	h.OnLoadStart(ctx, "a.txt", 2048)
	h.OnLoadComplete(ctx, "a.txt", observability.LoadStats{Format: "literal", Nodes: 12}, time.Millisecond, nil)
	h.OnLoadComplete(ctx, "b.txt", observability.LoadStats{Format: "literal"}, time.Millisecond,
		errors.New(errors.ErrCodeMalformedProfile, "bad"))

	if got := value(t, reg, "stackgraph_load_total", map[string]string{"format": "literal", "status": "ok"}); got != 1 {
		t.Errorf("ok loads = %v, want 1", got)
	}
	if got := value(t, reg, "stackgraph_load_total", map[string]string{"status": "MALFORMED_PROFILE"}); got != 1 {
		t.Errorf("malformed loads = %v, want 1", got)
	}
	if got := value(t, reg, "stackgraph_load_profile_bytes", nil); got != 1 {
		t.Errorf("profile size observations = %v, want 1", got)
	}
	if got := value(t, reg, "stackgraph_load_graph_nodes", nil); got != 1 {
		t.Errorf("graph size observations = %v, want 1 (failed loads excluded)", got)
	}
}

func TestExportAndCacheHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(reg)
	ctx := context.Background()

	h.OnExportComplete(ctx, "a.txt", observability.ExportStats{Nodes: 10, Dropped: 3}, time.Millisecond, nil)
	h.OnRenderComplete(ctx, "svg", 100, time.Millisecond, nil)
	h.OnCacheMiss(ctx, "export")
	h.OnCacheSet(ctx, "export", 512)
	h.OnCacheHit(ctx, "export")
	h.OnCacheHit(ctx, "export")

	tests := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"stackgraph_export_total", map[string]string{"status": "ok"}, 1},
		{"stackgraph_export_dropped_nodes_total", nil, 3},
		{"stackgraph_render_total", map[string]string{"format": "svg"}, 1},
		{"stackgraph_cache_lookups_total", map[string]string{"result": "hit"}, 2},
		{"stackgraph_cache_lookups_total", map[string]string{"result": "miss"}, 1},
		{"stackgraph_cache_write_bytes_total", map[string]string{"key_type": "export"}, 512},
	}
	for _, tt := range tests {
		if got := value(t, reg, tt.name, tt.labels); got != tt.want {
			t.Errorf("%s%v = %v, want %v", tt.name, tt.labels, got, tt.want)
		}
	}
}

func TestHTTPHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(reg)
	ctx := context.Background()

	h.OnRequest(ctx, "GET", "/data")
	if got := value(t, reg, "stackgraph_http_requests_in_flight", nil); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	h.OnError(ctx, "GET", "/data", errors.New(errors.ErrCodePathEscape, "escape"))
	h.OnResponse(ctx, "GET", "/data", 403, time.Millisecond)

	if got := value(t, reg, "stackgraph_http_requests_in_flight", nil); got != 0 {
		t.Errorf("in flight after response = %v, want 0", got)
	}
	if got := value(t, reg, "stackgraph_http_requests_total", map[string]string{"route": "/data", "code": "403"}); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
	if got := value(t, reg, "stackgraph_http_errors_total", map[string]string{"error_code": "PATH_ESCAPE"}); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
}

func TestInstall(t *testing.T) {
	defer observability.Reset()
	reg := prometheus.NewRegistry()
	h := New(reg)
	h.Install()

	observability.Cache().OnCacheHit(context.Background(), "render")
	if got := value(t, reg, "stackgraph_cache_lookups_total", map[string]string{"key_type": "render"}); got != 1 {
		t.Errorf("global hook not wired: %v", got)
	}
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(reg)
	h.OnCacheHit(context.Background(), "export")

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "stackgraph_cache_lookups_total") {
		t.Errorf("metrics output missing cache counter:\n%s", body)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{errors.New(errors.ErrCodeFileNotFound, "x"), "FILE_NOT_FOUND"},
		{io.EOF, "error"},
	}
	for _, tt := range tests {
		if got := status(tt.err); got != tt.want {
			t.Errorf("status(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
