package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackgraph/pkg/cache"
	"github.com/matzehuels/stackgraph/pkg/datadir"
	"github.com/matzehuels/stackgraph/pkg/errors"
	"github.com/matzehuels/stackgraph/pkg/export"
	"github.com/matzehuels/stackgraph/pkg/loader"
	"github.com/matzehuels/stackgraph/pkg/observability"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeExport = "export"
	keyTypeRender = "render"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner holds no per-run state: every call loads its own graph, so one
// Runner can serve concurrent requests with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	Dir    datadir.Dir

	// TTL bounds how long exported payloads stay cached. Zero means
	// cache.TTLExport.
	TTL time.Duration
}

// NewRunner creates a runner reading profiles from dir.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger, dir datadir.Dir) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		Dir:    dir,
	}
}

// Export loads filename from the runner's data directory and returns its
// payload. The filename is confined to the directory; an escaping name fails
// with PATH_ESCAPE before any file is opened or any cache is consulted.
func (r *Runner) Export(ctx context.Context, filename string, opts Options) (*Result, error) {
	data, err := r.Dir.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return r.ExportData(ctx, filename, data, opts)
}

// ExportPath is [Runner.Export] for an arbitrary local path.
func (r *Runner) ExportPath(ctx context.Context, path string, opts Options) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FromFS(err, path)
	}
	return r.ExportData(ctx, path, data, opts)
}

// ExportData exports serialized profile bytes. The name source is only used
// for logging and hooks.
func (r *Runner) ExportData(ctx context.Context, source string, data []byte, opts Options) (*Result, error) {
	start := time.Now()
	hash := cache.Hash(data)
	key := r.Keyer.ExportKey(hash, opts.exportKeyOpts())
	hooks := observability.Cache()

	if !opts.Refresh {
		if cached, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if p, out, err := decodeEntry(cached); err == nil {
				hooks.OnCacheHit(ctx, keyTypeExport)
				res := newResult(p, out, hash, true, time.Since(start))
				r.Logger.Debug("export cache hit", "source", source, "nodes", res.Stats.Nodes)
				return res, nil
			}
			// Unreadable entries are rebuilt and overwritten below.
		}
		hooks.OnCacheMiss(ctx, keyTypeExport)
	}

	g, err := loader.LoadBytes(ctx, source, data, opts.Export.Source)
	if err != nil {
		return nil, err
	}
	p := export.Graph(ctx, source, g, opts.Export)
	out, err := export.MarshalJSON(p)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode payload for %s", source)
	}

	if entry, err := encodeEntry(p, out); err != nil {
		r.Logger.Warn("cache entry encode failed", "err", err)
	} else if err := r.Cache.Set(ctx, key, entry, r.exportTTL()); err == nil {
		hooks.OnCacheSet(ctx, keyTypeExport, len(entry))
	} else {
		r.Logger.Warn("cache write failed", "key", keyTypeExport, "err", err)
	}

	res := newResult(p, out, hash, false, time.Since(start))
	r.Logger.Info("exported profile",
		"source", source,
		"nodes", res.Stats.Nodes,
		"edges", res.Stats.Edges,
		"dropped", res.Stats.Dropped,
		"duration", res.Stats.Duration)
	return res, nil
}

// DOT returns the Graphviz source of an exported payload.
func (r *Runner) DOT(res *Result, opts Options) string {
	return export.ToDOT(res.Payload, opts.DOT)
}

// SVG renders an exported payload with Graphviz. Rendered diagrams are
// cached by payload hash, so the same profile exported with different
// options renders separately.
func (r *Runner) SVG(ctx context.Context, res *Result, opts Options) ([]byte, bool, error) {
	key := r.Keyer.RenderKey(cache.Hash(res.JSON), opts.renderKeyOpts())
	hooks := observability.Cache()

	if !opts.Refresh {
		if cached, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			hooks.OnCacheHit(ctx, keyTypeRender)
			return cached, true, nil
		}
		hooks.OnCacheMiss(ctx, keyTypeRender)
	}

	start := time.Now()
	svg, err := export.RenderSVG(ctx, r.DOT(res, opts))
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
	}
	if err := r.Cache.Set(ctx, key, svg, cache.TTLRender); err == nil {
		hooks.OnCacheSet(ctx, keyTypeRender, len(svg))
	}

	r.Logger.Info("rendered svg", "bytes", len(svg), "duration", time.Since(start))
	return svg, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) exportTTL() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return cache.TTLExport
}

func newResult(p *export.Payload, out []byte, hash string, hit bool, d time.Duration) *Result {
	return &Result{
		Payload: p,
		JSON:    out,
		Hash:    hash,
		Stats: Stats{
			Nodes:    len(p.Nodes),
			Edges:    len(p.Edges),
			Stacks:   len(p.Stacks),
			Dropped:  p.Dropped,
			Duration: d,
		},
		CacheHit: hit,
	}
}

// exportEntry is the cached form of an export. It carries Total and Dropped,
// which the wire payload leaves out, so a hit reproduces a fresh build.
type exportEntry struct {
	Total   int64           `json:"total"`
	Dropped int             `json:"dropped"`
	Payload json.RawMessage `json:"payload"`
}

func encodeEntry(p *export.Payload, out []byte) ([]byte, error) {
	return json.Marshal(exportEntry{Total: p.Total, Dropped: p.Dropped, Payload: out})
}

// decodeEntry returns the payload of a cached entry and its wire bytes.
func decodeEntry(data []byte) (*export.Payload, []byte, error) {
	var e exportEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, nil, err
	}
	p, err := export.ReadJSON(bytes.NewReader(e.Payload))
	if err != nil {
		return nil, nil, err
	}
	p.Total, p.Dropped = e.Total, e.Dropped
	return p, e.Payload, nil
}
