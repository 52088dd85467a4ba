// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/benjmor/tabroom-auto-summarize/internal/adapters/export"
	"github.com/benjmor/tabroom-auto-summarize/internal/adapters/mq/queue"
	"github.com/benjmor/tabroom-auto-summarize/internal/adapters/repository"
	service "github.com/benjmor/tabroom-auto-summarize/internal/app"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/dispatch"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/normalize"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/roundstring"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/types"
	"github.com/benjmor/tabroom-auto-summarize/pkg/logger"
	"github.com/rotisserie/eris"
)

const (
	defaultMaxBodyBytes = 32 << 20
	defaultMaxLimit     = 100
)

// Service is what the handlers need from the application layer.
type Service interface {
	StatsProvider

	NormalizeNow(ctx context.Context, t *model.Tournament, scraped model.ScrapedData) (model.Outcome, error)
	Submit(ctx context.Context, t *model.Tournament, scraped model.ScrapedData) (types.JobAccepted, error)
	Run(ctx context.Context, id string) (model.Run, error)
	Runs(ctx context.Context, limit int) (types.RunList, error)
	Results(ctx context.Context, id string, filter types.ResultFilter) ([]model.Result, error)
	ShortName(name string) string
}

// Server wires HTTP routes for the business API.
type Server struct {
	svc          Service
	maxBodyBytes int64
	maxLimit     int
	exportSheet  string
	logger       logger.Logger

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(svc Service, opts ...Option) *Server {
	s := &Server{
		svc:          svc,
		maxBodyBytes: defaultMaxBodyBytes,
		maxLimit:     defaultMaxLimit,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(svc)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /v1/normalize", MetricsMiddleware(s.handleNormalize, "normalize"))
	mux.HandleFunc("POST /v1/jobs", MetricsMiddleware(s.handleSubmit, "jobs_submit"))
	mux.HandleFunc("GET /v1/jobs/{id}", MetricsMiddleware(s.handleGetJob, "jobs_get"))
	mux.HandleFunc("GET /v1/runs", MetricsMiddleware(s.handleListRuns, "runs_list"))
	mux.HandleFunc("GET /v1/runs/{id}/results", MetricsMiddleware(s.handleResults, "runs_results"))
	mux.HandleFunc("GET /v1/runs/{id}/export.xlsx", MetricsMiddleware(s.handleExport, "runs_export"))
	mux.HandleFunc("GET /v1/schools/short-name", MetricsMiddleware(s.handleShortName, "schools_short_name"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeRequest reads a {tournament, scraped} body within the size cap.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (types.NormalizeRequest, bool) {
	var req types.NormalizeRequest
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", eris.Wrapf(ErrBadRequest, "body exceeds %d bytes", tooLarge.Limit))
			return req, false
		}
		writeError(w, http.StatusBadRequest, "bad_request", eris.Wrap(ErrBadRequest, err.Error()))
		return req, false
	}
	if req.Tournament == nil {
		writeError(w, http.StatusBadRequest, "bad_request", eris.Wrap(ErrBadRequest, "missing tournament"))
		return req, false
	}
	return req, true
}

// writeServiceError maps service and domain errors onto status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, normalize.ErrNilTournament), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, dispatch.ErrAmbiguousScrape):
		writeError(w, http.StatusUnprocessableEntity, "ambiguous_scrape", err)
	case errors.Is(err, roundstring.ErrMalformed):
		writeError(w, http.StatusUnprocessableEntity, "malformed_round_string", err)
	case errors.Is(err, export.ErrEmptyOutcome):
		writeError(w, http.StatusUnprocessableEntity, "empty_outcome", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrRunNotReady):
		writeError(w, http.StatusConflict, "not_ready", err)
	case errors.Is(err, queue.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", eris.Wrap(ErrBackpressure, err.Error()))
	case errors.Is(err, queue.ErrQueueClosed), errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", eris.Wrap(ErrUnavailable, err.Error()))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// parseLimit reads ?limit=N. A missing limit means the maximum.
func (s *Server) parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return s.maxLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, eris.Wrapf(ErrBadRequest, "invalid limit %q", raw)
	}
	if n > s.maxLimit {
		return 0, eris.Wrapf(ErrBadRequest, "limit %d exceeds %d", n, s.maxLimit)
	}
	return n, nil
}
