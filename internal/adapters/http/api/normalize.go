package api

import (
	"net/http"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/types"
)

// handleNormalize handles POST /v1/normalize.
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	out, err := s.svc.NormalizeNow(r.Context(), req.Tournament, req.Scraped)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSubmit handles POST /v1/jobs.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	ack, err := s.svc.Submit(r.Context(), req.Tournament, req.Scraped)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	status := http.StatusAccepted
	if ack.Status == types.StatusDuplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, ack)
}
