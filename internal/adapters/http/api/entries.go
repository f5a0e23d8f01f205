package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/tally/internal/app"
)

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	ranked, err := s.svc.RankedEntries(r.Context(), chi.URLParam(r, "id"), id.UserID, id.Admin)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	var in app.EntryInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	e, err := s.svc.AddEntry(r.Context(), chi.URLParam(r, "id"), id.UserID, id.Admin, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	var in app.EntryInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	e, err := s.svc.UpdateEntry(r.Context(), chi.URLParam(r, "id"), id.UserID, id.Admin, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	opID, err := s.svc.ScheduleEntryDelete(r.Context(), chi.URLParam(r, "id"), id.UserID, id.Admin)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, pendingDeleteResponse{OperationID: opID})
}
