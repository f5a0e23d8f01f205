// Package api declares HTTP contracts and route registration for the
// scoreboard service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/tally/internal/adapters/repository"
	"github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/kiosk"
	"github.com/okian/tally/pkg/logger"
	"github.com/okian/tally/pkg/metrics"
)

// Server wires HTTP routes for the business API.
type Server struct {
	svc       *app.Service
	jwtSecret string
	sessions  *sessionRegistry
	log       logger.Logger
}

// NewServer creates an API server over the application service.
func NewServer(svc *app.Service, jwtSecret string) *Server {
	return &Server{
		svc:       svc,
		jwtSecret: jwtSecret,
		sessions:  newSessionRegistry(),
		log:       logger.Get().Named("api"),
	}
}

// Router builds the chi route tree: public reads, authenticated writes,
// the unauthenticated kiosk surface and the billing webhook.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)
	r.Use(s.authenticate)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
		metrics.GetRegistry(), promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		// Provider webhook: authenticated by signature, not bearer token.
		r.Post("/webhooks/billing", s.handleBillingWebhook)

		// Reads honor visibility; anonymous callers see public boards.
		r.Get("/scoreboards", s.handleListScoreboards)
		r.Get("/scoreboards/{id}", s.handleGetScoreboard)
		r.Get("/scoreboards/{id}/entries", s.handleListEntries)
		r.Get("/scoreboards/{id}/export", s.handleExport)
		r.Get("/scoreboards/{id}/events", s.handleEvents)

		// Kiosk surface is unauthenticated; the PIN gate protects it.
		r.Get("/scoreboards/{id}/kiosk", s.handleKioskState)
		r.Get("/scoreboards/{id}/kiosk/stream", s.handleKioskStream)
		r.Post("/kiosk-sessions/{sid}/unlock", s.handleKioskUnlock)
		r.Post("/kiosk-sessions/{sid}/advance", s.handleKioskAdvance)
		r.Post("/kiosk-sessions/{sid}/pause", s.handleKioskPause)
		r.Post("/kiosk-sessions/{sid}/resume", s.handleKioskResume)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/scoreboards", s.handleCreateScoreboard)
			r.Patch("/scoreboards/{id}", s.handleUpdateScoreboard)
			r.Delete("/scoreboards/{id}", s.handleDeleteScoreboard)

			r.Post("/scoreboards/{id}/entries", s.handleAddEntry)
			r.Patch("/entries/{id}", s.handleUpdateEntry)
			r.Delete("/entries/{id}", s.handleDeleteEntry)

			r.Post("/pending-deletes/{id}/cancel", s.handleCancelDelete)

			r.Put("/scoreboards/{id}/kiosk", s.handleUpdateKioskConfig)
			r.Post("/scoreboards/{id}/kiosk/slides", s.handleAddSlide)
			r.Delete("/scoreboards/{id}/kiosk/slides/{slideID}", s.handleRemoveSlide)

			r.Delete("/account", s.handleDeleteAccount)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// routePattern returns the matched chi pattern for metrics labels so
// cardinality stays bounded by the route table, not by raw paths.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
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

// writeServiceError translates service-layer errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrValidation):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, app.ErrBadSignature):
		writeError(w, http.StatusUnauthorized, "invalid_signature", err)
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, app.ErrLocked):
		writeError(w, http.StatusConflict, "locked", err)
	case errors.Is(err, kiosk.ErrBadPin):
		writeError(w, http.StatusForbidden, "invalid_pin", err)
	case errors.Is(err, app.ErrNoPending), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusConflict, "duplicate", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}
