package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/benjmor/tabroom-auto-summarize/internal/adapters/export"
	service "github.com/benjmor/tabroom-auto-summarize/internal/app"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/types"
	"github.com/rotisserie/eris"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleGetJob handles GET /v1/jobs/{id}.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	run, err := s.svc.Run(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleListRuns handles GET /v1/runs?limit=N.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := s.parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	list, err := s.svc.Runs(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleResults handles GET /v1/runs/{id}/results.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := types.ResultFilter{School: q.Get("school"), ResultSet: q.Get("result_set")}
	if raw := q.Get("min_percentile"); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil || p < 0 || p > 100 {
			writeError(w, http.StatusBadRequest, "bad_request", eris.Wrapf(ErrBadRequest, "invalid min_percentile %q", raw))
			return
		}
		filter.MinPercentile = p
	}

	results, err := s.svc.Results(r.Context(), r.PathValue("id"), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// handleExport handles GET /v1/runs/{id}/export.xlsx.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := s.svc.Run(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if run.Outcome == nil {
		s.writeServiceError(w, r, eris.Wrapf(service.ErrRunNotReady, "run %s is %s", id, run.Status))
		return
	}

	// Buffer so a failed write still yields a clean error response.
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, run.Outcome, export.Options{Sheet: s.exportSheet}); err != nil {
		s.writeServiceError(w, r, eris.Wrapf(err, "export run %s", id))
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
