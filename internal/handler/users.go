package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Dan9191/user-service/internal/apperr"
	"github.com/Dan9191/user-service/internal/models"
)

// CreateUser handles user registration
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperr.InvalidData("Invalid request body"))
		return
	}

	user, err := h.svc.CreateUser(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

// GetUser returns a user by id
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.svc.GetUserByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// ListUsers returns a page of users with optional name/surname filters
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	surname := r.URL.Query().Get("surname")
	page := queryInt(r, "page", 0)
	limit := queryInt(r, "limit", 10)

	users, err := h.svc.ListUsers(r.Context(), name, surname, page, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

// UpdateUser applies field changes to a user
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperr.InvalidData("Invalid request body"))
		return
	}

	user, err := h.svc.UpdateUser(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// ActivateUser sets a user ACTIVE
func (h *Handler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	h.setUserStatus(w, r, h.svc.ActivateUser)
}

// DeactivateUser sets a user INACTIVE
func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setUserStatus(w, r, h.svc.DeactivateUser)
}

func (h *Handler) setUserStatus(w http.ResponseWriter, r *http.Request,
	transition func(ctx context.Context, id int64) (*models.User, error)) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := transition(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes a user and its cards
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
