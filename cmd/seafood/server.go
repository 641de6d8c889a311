package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/seafoodai/seafood-terminal/pkg/dashboard"
	"github.com/seafoodai/seafood-terminal/pkg/dataset"
	"github.com/seafoodai/seafood-terminal/pkg/metrics"
	"github.com/seafoodai/seafood-terminal/pkg/pipeline"
)

// Query parameters that are not filters.
const (
	paramPage     = "page"
	paramPageSize = "page_size"
)

// server exposes the board over HTTP.
type server struct {
	board  *dashboard.Board
	logger zerolog.Logger
}

func newServer(board *dashboard.Board, logger zerolog.Logger) *server {
	if board == nil {
		panic("server: board cannot be nil")
	}
	return &server{board: board, logger: logger}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/datasets", s.listHandler)
	mux.HandleFunc("GET /api/datasets/{name}", s.datasetHandler)
	mux.HandleFunc("POST /api/datasets/{name}/refresh", s.refreshHandler)
	return s.logRequests(mux)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// datasetSummary is one entry of the dataset listing.
type datasetSummary struct {
	Name      string         `json:"name"`
	Title     string         `json:"title"`
	State     pipeline.State `json:"state"`
	Records   int            `json:"records"`
	FetchedAt time.Time      `json:"fetched_at"`
	FromCache bool           `json:"from_cache"`
	Error     string         `json:"error,omitempty"`
}

func (s *server) listHandler(w http.ResponseWriter, r *http.Request) {
	names := s.board.Names()
	out := make([]datasetSummary, 0, len(names))
	for _, name := range names {
		p, err := s.board.Pipeline(name)
		if err != nil {
			continue
		}
		widget, _ := s.board.Widget(name)
		view := p.Query(nil, 1, 0)
		out = append(out, datasetSummary{
			Name:      name,
			Title:     widget.Title,
			State:     view.State,
			Records:   view.Page.TotalCount,
			FetchedAt: view.FetchedAt,
			FromCache: view.FromCache,
			Error:     view.Error,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) datasetHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipeline(w, r)
	if !ok {
		return
	}

	if p.State() == pipeline.StateIdle {
		// The load is shared by every client of the dataset, so it outlives
		// this request. The error, if any, is reported through the view.
		if err := p.Initialize(context.WithoutCancel(r.Context())); err != nil {
			s.logger.Debug().Err(err).Str("dataset", p.Key()).Msg("Lazy initialization failed")
		}
	}

	page, pageSize, filters, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p.Query(filters, page, pageSize))
}

func (s *server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pipeline(w, r)
	if !ok {
		return
	}

	err := p.Refresh(r.Context())
	switch {
	case errors.Is(err, pipeline.ErrStaleResponse):
		writeError(w, http.StatusConflict, "refresh superseded by a newer request")
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p.Query(nil, 1, 0))
}

// pipeline resolves the {name} path value, writing a 404 when unknown.
func (s *server) pipeline(w http.ResponseWriter, r *http.Request) (*pipeline.Pipeline, bool) {
	p, err := s.board.Pipeline(r.PathValue("name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return p, true
}

// parseQuery splits the query into page, page size and field filters.
// Absent page values are returned as 0.
func parseQuery(r *http.Request) (int, int, dataset.FilterSet, error) {
	q := r.URL.Query()

	page, err := intParam(q.Get(paramPage), paramPage)
	if err != nil {
		return 0, 0, nil, err
	}
	pageSize, err := intParam(q.Get(paramPageSize), paramPageSize)
	if err != nil {
		return 0, 0, nil, err
	}

	filters := dataset.FilterSet{}
	for field, values := range q {
		if field == paramPage || field == paramPageSize || len(values) == 0 {
			continue
		}
		filters[field] = values[0]
	}
	return page, pageSize, filters, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError responds with the {"error": ...} body the dashboard API uses.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status_code", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Handled request")
	})
}
