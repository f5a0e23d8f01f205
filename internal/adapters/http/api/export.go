package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleExport streams the scoreboard as a CSV download. The body is
// buffered first so a mid-export failure returns a clean error response
// instead of truncated CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	var buf bytes.Buffer
	filename, err := s.svc.ExportCSV(r.Context(), chi.URLParam(r, "id"), id.UserID, id.Admin, &buf)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
