package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleLogin(w, r)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": s.gate.Authenticated(r)})
	case http.MethodDelete:
		s.gate.ClearCookie(w)
		writeSuccess(w)
	default:
		methodNotAllowed(w, "GET", "POST", "DELETE")
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.gate.Configured() {
		writeError(w, http.StatusServiceUnavailable, "Editing is not configured")
		return
	}

	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !s.gate.Check(body.Password) {
		slog.WarnContext(r.Context(), "Login attempt with wrong password", "client_ip", clientIP(r))
		writeError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	s.gate.SetCookie(w)
	writeSuccess(w)
}
