package api

import (
	"net/http"
	"strings"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/types"
	"github.com/rotisserie/eris"
)

// handleShortName handles GET /v1/schools/short-name?name=.
func (s *Server) handleShortName(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", eris.Wrap(ErrBadRequest, "missing name"))
		return
	}
	writeJSON(w, http.StatusOK, types.ShortName{Name: name, ShortName: s.svc.ShortName(name)})
}
