package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/styles"
)

func (s *Server) handleCreateScoreboard(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	var in app.CreateScoreboardInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	sb, err := s.svc.CreateScoreboard(r.Context(), id.UserID, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sb)
}

// scoreboardResponse augments the stored board with the style map the
// main view should render, preset already merged and scope applied.
type scoreboardResponse struct {
	*model.Scoreboard
	ResolvedStyle model.StyleMap `json:"resolved_style"`
}

func (s *Server) handleGetScoreboard(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	sb, err := s.svc.Scoreboard(r.Context(), chi.URLParam(r, "id"), id.UserID, id.Admin)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scoreboardResponse{
		Scoreboard:    sb,
		ResolvedStyle: s.svc.EffectiveStyle(sb, styles.ViewMain),
	})
}

func (s *Server) handleUpdateScoreboard(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	var in app.UpdateScoreboardInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	sb, err := s.svc.UpdateScoreboard(r.Context(), chi.URLParam(r, "id"), id.UserID, id.Admin, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sb)
}

// pendingDeleteResponse carries the id used to undo a scheduled delete.
type pendingDeleteResponse struct {
	OperationID string `json:"operation_id"`
}

func (s *Server) handleDeleteScoreboard(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	opID, err := s.svc.ScheduleScoreboardDelete(r.Context(), chi.URLParam(r, "id"), id.UserID, id.Admin)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, pendingDeleteResponse{OperationID: opID})
}

func (s *Server) handleCancelDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.CancelPendingDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleListScoreboards(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))

	res, err := s.svc.ListScoreboards(r.Context(), app.ListParams{
		ViewerID: id.UserID,
		Admin:    id.Admin,
		Mine:     q.Get("mine") == "true",
		Search:   q.Get("q"),
		Page:     page,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
