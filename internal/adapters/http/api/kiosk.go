package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/pkg/logger"
)

// sessionRegistry tracks live kiosk sessions so control requests
// (unlock, advance, pause) can reach the stream that spawned them.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*liveSession
}

type liveSession struct {
	session      *app.KioskSession
	scoreboardID string
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*liveSession)}
}

func (sr *sessionRegistry) add(ls *liveSession) string {
	sid := uuid.NewString()
	sr.mu.Lock()
	sr.sessions[sid] = ls
	sr.mu.Unlock()
	return sid
}

func (sr *sessionRegistry) get(sid string) (*liveSession, bool) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	ls, ok := sr.sessions[sid]
	return ls, ok
}

func (sr *sessionRegistry) remove(sid string) {
	sr.mu.Lock()
	delete(sr.sessions, sid)
	sr.mu.Unlock()
}

// handleKioskState returns the display configuration and slide deck.
func (s *Server) handleKioskState(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.KioskState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleUpdateKioskConfig(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	var in app.KioskConfigInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	cfg, err := s.svc.UpdateKioskConfig(r.Context(), chi.URLParam(r, "id"), id.UserID, id.Admin, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleAddSlide(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	var in app.SlideInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	sl, err := s.svc.AddSlide(r.Context(), chi.URLParam(r, "id"), id.UserID, id.Admin, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sl)
}

func (s *Server) handleRemoveSlide(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	err := s.svc.RemoveSlide(r.Context(), chi.URLParam(r, "id"), id.UserID, id.Admin,
		chi.URLParam(r, "slideID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// kioskHello is the first SSE event on a kiosk stream; it names the
// session so the display can address control requests.
type kioskHello struct {
	SessionID string `json:"session_id"`
	Locked    bool   `json:"locked"`
}

// handleKioskStream opens a kiosk session and streams slide events over
// SSE. Entry data rides along with scoreboard slides so the TV needs no
// second connection.
func (s *Server) handleKioskStream(w http.ResponseWriter, r *http.Request) {
	scoreboardID := chi.URLParam(r, "id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error",
			fmt.Errorf("streaming unsupported"))
		return
	}

	ctx := r.Context()
	session, err := s.svc.OpenKioskSession(ctx, scoreboardID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer session.Close()

	ls := &liveSession{session: session, scoreboardID: scoreboardID}
	sid := s.sessions.add(ls)
	defer s.sessions.remove(sid)

	state, err := s.svc.KioskState(ctx, scoreboardID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeSSE(w, flusher, "hello", kioskHello{SessionID: sid, Locked: state.Config.PinEnabled})

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	s.log.Debug(ctx, "kiosk stream opened",
		logger.String("scoreboard_id", scoreboardID), logger.String("session_id", sid))

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-session.Events():
			writeSSE(w, flusher, "slide", ev)
			if ev.Kind == model.SlideScoreboard {
				writeSSE(w, flusher, "entries", session.Entries())
			}
		case <-heartbeat.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

type pinRequest struct {
	Pin string `json:"pin"`
}

// handleKioskUnlock verifies the PIN server-side and releases the
// session's gate.
func (s *Server) handleKioskUnlock(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.sessions.get(chi.URLParam(r, "sid"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", ErrNoSession)
		return
	}
	var in pinRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := s.svc.VerifyKioskPin(r.Context(), ls.scoreboardID, in.Pin); err != nil {
		writeServiceError(w, err)
		return
	}
	ls.session.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "unlocked"})
}

func (s *Server) handleKioskAdvance(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.sessions.get(chi.URLParam(r, "sid"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", ErrNoSession)
		return
	}
	ls.session.Advance()
	writeJSON(w, http.StatusOK, map[string]string{"status": "advancing"})
}

func (s *Server) handleKioskPause(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.sessions.get(chi.URLParam(r, "sid"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", ErrNoSession)
		return
	}
	ls.session.Pause()
	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (s *Server) handleKioskResume(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.sessions.get(chi.URLParam(r, "sid"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", ErrNoSession)
		return
	}
	ls.session.Resume()
	writeJSON(w, http.StatusOK, map[string]string{"status": "resumed"})
}
