package server

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"

	"github.com/matzehuels/stackgraph/pkg/datadir"
	"github.com/matzehuels/stackgraph/pkg/errors"
	"github.com/matzehuels/stackgraph/pkg/observability"
	"github.com/matzehuels/stackgraph/pkg/pipeline"
)

// handlerFunc is an HTTP handler that reports failures instead of writing
// them.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts h, mapping its error to a status code via errors.HTTPStatus.
func (s *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		status := errors.HTTPStatus(err)
		observability.HTTP().OnError(r.Context(), r.Method, s.route(r), err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("request failed", "path", r.URL.Path, "err", err,
				"request_id", RequestIDFromContext(r.Context()))
		} else {
			s.logger.Debug("request rejected", "path", r.URL.Path, "err", err)
		}
		writeError(w, status, err)
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: code, Message: errors.UserMessage(err)})
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) error {
	entries, err := s.runner.Dir.List()
	if err != nil {
		return err
	}
	return render(w, indexTmpl, struct {
		DataDir string
		Files   []datadir.Entry
	}{s.runner.Dir.Root, entries})
}

func (s *Server) data(w http.ResponseWriter, r *http.Request) error {
	res, _, err := s.export(r)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(res.JSON)
	return err
}

func (s *Server) view(w http.ResponseWriter, r *http.Request) error {
	filename, err := filenameParam(r)
	if err != nil {
		return err
	}
	return render(w, viewTmpl, viewData{
		Filename: filename,
		DataURL:  "/data?" + r.URL.RawQuery,
	})
}

func (s *Server) viewFlat(w http.ResponseWriter, r *http.Request) error {
	res, filename, err := s.export(r)
	if err != nil {
		return err
	}
	// The payload is encoded by encoding/json, which escapes <, > and &.
	return render(w, viewTmpl, viewData{
		Filename: filename,
		Data:     template.JS(res.JSON),
	})
}

func (s *Server) viewSVG(w http.ResponseWriter, r *http.Request) error {
	opts, err := s.options(r)
	if err != nil {
		return err
	}
	res, _, err := s.export(r)
	if err != nil {
		return err
	}
	svg, _, err := s.runner.SVG(r.Context(), res, opts)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, err = w.Write(svg)
	return err
}

// export validates the request and runs the export pipeline for its
// filename.
func (s *Server) export(r *http.Request) (*pipeline.Result, string, error) {
	filename, err := filenameParam(r)
	if err != nil {
		return nil, "", err
	}
	opts, err := s.options(r)
	if err != nil {
		return nil, "", err
	}
	res, err := s.runner.Export(r.Context(), filename, opts)
	return res, filename, err
}

func filenameParam(r *http.Request) (string, error) {
	filename := r.URL.Query().Get("filename")
	if err := errors.ValidateFilename(filename); err != nil {
		return "", err
	}
	return filename, nil
}

// options overlays the query parameters max_degree, stack_fraction,
// sample_type, max_nodes, detailed and refresh on the server defaults.
func (s *Server) options(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{Export: s.opts.Export}

	if v := q.Get("max_degree"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "max_degree: %q is not an integer", v)
		}
		opts.Export.MaxDegree = n
	}
	if v := q.Get("stack_fraction"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "stack_fraction: %q not in [0, 1]", v)
		}
		opts.Export.StackFraction = f
	}
	if v := q.Get("sample_type"); v != "" {
		if err := errors.ValidateWeightName(v); err != nil {
			return opts, err
		}
		opts.Export.Source.SampleType = v
	}
	if v := q.Get("max_nodes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "max_nodes: %q is not a non-negative integer", v)
		}
		opts.DOT.MaxNodes = n
	}
	opts.DOT.Detailed = q.Has("detailed")
	opts.Refresh = q.Has("refresh")
	return opts, nil
}
