package appointment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"telecare/internal/middleware"
)

type Handler struct {
	service *Service
	log     zerolog.Logger
}

func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Book)
	r.Post("/{appointmentID}/cancel", h.Cancel)
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	externalID, ok := middleware.ExternalID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid booking body", http.StatusBadRequest)
		return
	}

	res, err := h.service.Book(r.Context(), externalID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			http.Error(w, "User not found or access denied", http.StatusNotFound)
		case errors.Is(err, ErrNotADoctor), errors.Is(err, ErrPastDate):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.log.Error().Err(err).Msg("appointment: booking failed")
			http.Error(w, "Failed to book appointment", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(res)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	externalID, ok := middleware.ExternalID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	appointments, err := h.service.List(r.Context(), externalID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "User not found or access denied", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Msg("appointment: list failed")
		http.Error(w, "Failed to get appointments", http.StatusInternalServerError)
		return
	}

	if appointments == nil {
		appointments = []Appointment{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appointments)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.ExternalID(r.Context()); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "appointmentID")
	if err := h.service.Cancel(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Appointment not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("appointment_id", id).Msg("appointment: cancel failed")
		http.Error(w, "Failed to cancel appointment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
