package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Dan9191/user-service/internal/apperr"
	"github.com/Dan9191/user-service/internal/models"
)

// CreateCard issues a card for the user in the path. Callers may only issue
// cards for themselves unless they are administrators.
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.authorizeSelf(r, userID); err != nil {
		h.writeError(w, r, err)
		return
	}

	card, err := h.svc.CreateCard(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, card)
}

// GetCard returns a card by id, owner-or-admin only
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.authorizeCardOwner(r, id); err != nil {
		h.writeError(w, r, err)
		return
	}

	card, err := h.svc.GetCardByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

// ListCards returns a page of all cards, admin only
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	if err := h.authorizeAdmin(r); err != nil {
		h.writeError(w, r, err)
		return
	}

	holder := r.URL.Query().Get("holder")
	page := queryInt(r, "page", 0)
	limit := queryInt(r, "limit", 10)

	cards, err := h.svc.ListCards(r.Context(), holder, page, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cards)
}

// ListCardsByUser returns all cards of the user in the path, self-or-admin
func (h *Handler) ListCardsByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.authorizeSelf(r, userID); err != nil {
		h.writeError(w, r, err)
		return
	}

	cards, err := h.svc.ListCardsByUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cards)
}

// UpdateCard applies field changes to a card, owner-or-admin only
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.authorizeCardOwner(r, id); err != nil {
		h.writeError(w, r, err)
		return
	}

	var req models.UpdateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperr.InvalidData("Invalid request body"))
		return
	}

	card, err := h.svc.UpdateCard(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

// ActivateCard sets a card ACTIVE, owner-or-admin only
func (h *Handler) ActivateCard(w http.ResponseWriter, r *http.Request) {
	h.setCardStatus(w, r, h.svc.ActivateCard)
}

// DeactivateCard sets a card INACTIVE, owner-or-admin only
func (h *Handler) DeactivateCard(w http.ResponseWriter, r *http.Request) {
	h.setCardStatus(w, r, h.svc.DeactivateCard)
}

func (h *Handler) setCardStatus(w http.ResponseWriter, r *http.Request,
	transition func(ctx context.Context, id int64) (*models.Card, error)) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.authorizeCardOwner(r, id); err != nil {
		h.writeError(w, r, err)
		return
	}

	card, err := transition(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

// DeleteCard removes a card, owner-or-admin only
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.authorizeCardOwner(r, id); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.svc.DeleteCard(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
