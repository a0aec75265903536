package handler

import (
	"net/http"

	"github.com/Dan9191/user-service/internal/apperr"
	"github.com/Dan9191/user-service/internal/auth"
)

// The guards below run at the start of each protected handler, before any
// mutating effect. Administrative role bypasses ownership entirely; the
// ownership resolver itself never sees roles.

// authorizeAdmin allows administrators only.
func (h *Handler) authorizeAdmin(r *http.Request) error {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		return apperr.Unauthorized("Authentication required")
	}
	if !identity.IsAdmin() {
		return apperr.Forbidden("Administrator role required")
	}
	return nil
}

// authorizeSelf allows the user addressed by userID, or an administrator.
func (h *Handler) authorizeSelf(r *http.Request, userID int64) error {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		return apperr.Unauthorized("Authentication required")
	}
	if identity.IsAdmin() || identity.UserID == userID {
		return nil
	}
	return apperr.Forbidden("Access denied")
}

// authorizeCardOwner allows the card's owner or an administrator. A missing
// card surfaces as NotFound rather than being masked as a denial.
func (h *Handler) authorizeCardOwner(r *http.Request, cardID int64) error {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		return apperr.Unauthorized("Authentication required")
	}
	if identity.IsAdmin() {
		return nil
	}
	owner, err := h.svc.CardOwner(r.Context(), cardID)
	if err != nil {
		return err
	}
	if owner != identity.UserID {
		return apperr.Forbidden("Access denied")
	}
	return nil
}
