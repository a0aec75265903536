package handler

import (
	"net/http"

	"github.com/Dan9191/user-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes registers all user and card endpoints on the router. Route shapes
// mirror the auth service's expectations: the card endpoints are guarded by
// ownership, the user endpoints are public.
func (h *Handler) Routes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()

	user := api.PathPrefix("/user").Subrouter()
	user.HandleFunc("/create", h.CreateUser).Methods(http.MethodPost)
	user.HandleFunc("/all", h.ListUsers).Methods(http.MethodGet)
	user.HandleFunc("/update/{id}", h.UpdateUser).Methods(http.MethodPut)
	user.HandleFunc("/{id}/active", h.ActivateUser).Methods(http.MethodPut)
	user.HandleFunc("/{id}/inactive", h.DeactivateUser).Methods(http.MethodPut)
	user.HandleFunc("/{id}", h.GetUser).Methods(http.MethodGet)
	user.HandleFunc("/{id}", h.DeleteUser).Methods(http.MethodDelete)

	card := api.PathPrefix("/card").Subrouter()
	card.HandleFunc("/create/{id}", h.CreateCard).Methods(http.MethodPost)
	card.HandleFunc("/all", h.ListCards).Methods(http.MethodGet)
	card.HandleFunc("/user/{id}", h.ListCardsByUser).Methods(http.MethodGet)
	card.HandleFunc("/update/{id}", h.UpdateCard).Methods(http.MethodPut)
	card.HandleFunc("/{id}/active", h.ActivateCard).Methods(http.MethodPut)
	card.HandleFunc("/{id}/inactive", h.DeactivateCard).Methods(http.MethodPut)
	card.HandleFunc("/{id}/delete", h.DeleteCard).Methods(http.MethodDelete)
	card.HandleFunc("/{id}", h.GetCard).Methods(http.MethodGet)
}
