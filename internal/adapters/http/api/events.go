package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/tally/pkg/logger"
	"github.com/okian/tally/pkg/metrics"
)

const sseHeartbeat = 25 * time.Second

// handleEvents is the SSE endpoint for live views. Notifications carry
// no data; the client refetches the resource named by the event type.
// Both streams of the scoreboard are multiplexed onto one connection.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	scoreboardID := chi.URLParam(r, "id")
	id, _ := identityFrom(r.Context())

	// Visibility gate before the stream opens.
	if _, err := s.svc.Scoreboard(r.Context(), scoreboardID, id.UserID, id.Admin); err != nil {
		writeServiceError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error",
			fmt.Errorf("streaming unsupported"))
		return
	}

	ctx := r.Context()
	meta, err := s.svc.SubscribeMeta(ctx, scoreboardID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	entries, err := s.svc.SubscribeEntries(ctx, scoreboardID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.SSEClientConnected()
	defer metrics.SSEClientDisconnected()
	s.log.Debug(ctx, "sse client connected", logger.String("scoreboard_id", scoreboardID))

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-meta:
			if !ok {
				return
			}
			writeSSE(w, flusher, n.Stream, n)
		case n, ok := <-entries:
			if !ok {
				return
			}
			writeSSE(w, flusher, n.Stream, n)
		case <-heartbeat.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
}
