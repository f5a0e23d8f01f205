package api

import "net/http"

// accountDeleteResponse reports the deletion outcome. Warnings name
// cleanup steps that could not complete; data removal itself succeeded.
type accountDeleteResponse struct {
	Status   string   `json:"status"`
	Warnings []string `json:"warnings,omitempty"`
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	warnings, err := s.svc.DeleteAccount(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountDeleteResponse{Status: "deleted", Warnings: warnings})
}
