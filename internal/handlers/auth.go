package handlers

import (
	"net/http"

	"github.com/abrezinsky/badgegen/internal/auth"
)

// handleLogin exchanges the desk password for a session cookie bound to
// the operator's name
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	token, ok := h.Auth.Login(req.Password, req.Operator)
	if !ok {
		respondError(w, Unauthorized("Invalid password"))
		return
	}
	session, _ := h.Auth.Session(token)

	auth.SetSessionCookie(w, token)
	respondOK(w, newSessionResponse(session))
}

// handleLogout clears the session
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		h.Auth.Logout(token)
	}

	auth.ClearSessionCookie(w)
	respondSuccess(w, "Logged out")
}

// handleSession reports who is logged in and how many reprints are left
func (h *Handlers) handleSession(w http.ResponseWriter, r *http.Request) {
	token, _ := auth.TokenFromContext(r.Context())
	session, ok := h.Auth.Session(token)
	if !ok {
		respondError(w, ErrUnauthorized)
		return
	}
	respondOK(w, newSessionResponse(session))
}

// handleListSessions lists the operators logged in at the desk
func (h *Handlers) handleListSessions(w http.ResponseWriter, r *http.Request) {
	active := h.Auth.Active()
	resp := make([]SessionResponse, 0, len(active))
	for _, s := range active {
		resp = append(resp, newSessionResponse(s))
	}
	respondOK(w, resp)
}
