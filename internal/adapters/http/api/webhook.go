package api

import (
	"io"
	"net/http"

	"github.com/okian/tally/pkg/logger"
)

// maxWebhookBody bounds provider payload size.
const maxWebhookBody = 1 << 20

// handleBillingWebhook receives billing provider events. The signature
// header authenticates the provider; bearer auth does not apply here.
func (s *Server) handleBillingWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	sig := r.Header.Get("X-Signature")
	if err := s.svc.ProcessWebhook(r.Context(), body, sig); err != nil {
		s.log.Warn(r.Context(), "webhook rejected", logger.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}
