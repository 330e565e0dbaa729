package handlers

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/badgegen/internal/auth"
	"github.com/abrezinsky/badgegen/pkg/pretix"
)

// handleRenderOrder re-renders every badge of one order, ignoring the
// last-update cursor. Each call is charged to the operator's session.
func (h *Handlers) handleRenderOrder(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !pretix.ValidOrderCode(code) {
		respondError(w, BadRequest("Invalid order code"))
		return
	}
	if h.Runner == nil {
		respondError(w, NewAPIError(http.StatusServiceUnavailable, ErrCodeNotConfigured, "Reprinting needs "+pretix.TokenEnv+" to be set"))
		return
	}
	if !h.runMu.TryLock() {
		respondError(w, Conflict("Another order is being rendered"))
		return
	}
	defer h.runMu.Unlock()

	token, _ := auth.TokenFromContext(r.Context())
	session, err := h.Auth.UseReprint(token)
	switch {
	case stderrors.Is(err, auth.ErrReprintLimit):
		respondError(w, TooManyRequests(ErrCodeReprintLimit,
			fmt.Sprintf("%s has used all %d reprints for this session", session.Operator, session.Reprints)))
		return
	case err != nil:
		respondError(w, ErrUnauthorized)
		return
	}

	report, err := h.Runner.RunOrder(r.Context(), code)
	if err != nil {
		respondError(w, err)
		return
	}
	resp := newRunReportResponse(report)
	resp.Operator = session.Operator
	resp.Remaining = session.Remaining
	respondOK(w, resp)
}
