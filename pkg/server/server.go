// Package server implements the stackgraph web viewer.
//
// The viewer lists the profiles of one data directory and renders any of them
// as an interactive call graph:
//
//	GET /                    profile list, newest first
//	GET /data?filename=F     export payload as JSON
//	GET /view?filename=F     force-layout page fetching /data
//	GET /view-flat?filename=F  the same page with the payload inlined
//	GET /view-svg?filename=F   Graphviz rendering of the payload
//	GET /healthz             liveness probe
//	GET /metrics             Prometheus metrics, when configured
//
// Every filename is confined to the data directory; requests that would
// escape it are answered with 403 before any file is opened. Each request
// loads its own call graph, so handlers share nothing but the export cache.
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stackgraph/pkg/export"
	"github.com/matzehuels/stackgraph/pkg/pipeline"
)

// shutdownTimeout bounds how long in-flight requests may finish after the
// server context is cancelled.
const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	// Export holds the default payload options. Query parameters override
	// them per request.
	Export export.Options

	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler

	Logger *log.Logger
}

// Server serves the viewer for the data directory of its runner.
type Server struct {
	runner *pipeline.Runner
	opts   Options
	logger *log.Logger
	router *chi.Mux
}

// New creates a server exporting profiles through runner.
func New(runner *pipeline.Runner, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, opts: opts, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(s.instrument)

	r.Get("/", s.handle(s.index))
	r.Get("/data", s.handle(s.data))
	r.Get("/view", s.handle(s.view))
	r.Get("/view-flat", s.handle(s.viewFlat))
	r.Get("/view-svg", s.handle(s.viewSVG))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	if s.opts.Metrics != nil {
		r.Handle("/metrics", s.opts.Metrics)
	}
	return r
}

// Handler returns the HTTP handler of the viewer.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
// It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// Requests keep running while Shutdown drains them.
		BaseContext: func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server starting", "url", "http://"+ln.Addr().String())
		if err := srv.Serve(ln); !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("server stopping")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
