package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Dan9191/user-service/internal/apperr"
	"github.com/gorilla/mux"
)

// errorResponse is the structured error body returned for every failure.
type errorResponse struct {
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if code, ok := apperr.CodeOf(err); ok {
		switch code {
		case apperr.CodeNotFound:
			status = http.StatusNotFound
		case apperr.CodeDataExists:
			status = http.StatusConflict
		case apperr.CodeInvalidData:
			status = http.StatusBadRequest
		case apperr.CodeUnauthorized:
			status = http.StatusUnauthorized
		case apperr.CodeForbidden:
			status = http.StatusForbidden
		}
	}

	if status == http.StatusInternalServerError {
		h.log.Errorf("Request %s failed: %v", r.URL.Path, err)
	} else {
		h.log.Debugf("Request %s rejected: %v", r.URL.Path, err)
	}

	h.writeJSON(w, status, errorResponse{
		Status:    status,
		Error:     http.StatusText(status),
		Message:   err.Error(),
		Path:      r.URL.Path,
		Timestamp: time.Now(),
	})
}

// pathID extracts the {id} route variable. A non-numeric id maps to NotFound,
// matching how the boundary treats malformed identifiers.
func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.NotFound("Invalid id: %s", raw)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
