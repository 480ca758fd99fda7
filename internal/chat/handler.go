package chat

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
	r.Get("/rooms", h.ListRooms)
	r.Get("/rooms/{roomID}/messages", h.GetMessages)
	r.Post("/rooms/{roomID}/messages", h.SendMessage)
	r.Post("/presence", h.UpdatePresence)
}

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	externalID, ok := middleware.ExternalID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	rooms, err := h.service.ListRooms(r.Context(), externalID)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			http.Error(w, "User not found or access denied", http.StatusNotFound)
		case errors.Is(err, ErrUnsupportedRole):
			http.Error(w, "User role not supported for chat rooms", http.StatusBadRequest)
		default:
			h.log.Error().Err(err).Msg("chat: list rooms failed")
			http.Error(w, "Failed to get chat rooms", http.StatusInternalServerError)
		}
		return
	}

	if rooms == nil {
		rooms = []RoomSummary{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rooms)
}

func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.ExternalID(r.Context()); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	roomID := chi.URLParam(r, "roomID")
	messages, err := h.service.GetMessages(r.Context(), roomID)
	if err != nil {
		h.log.Error().Err(err).Str("room_id", roomID).Msg("chat: get messages failed")
		http.Error(w, "Failed to get messages", http.StatusInternalServerError)
		return
	}

	if messages == nil {
		messages = []MessageWithSender{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	externalID, ok := middleware.ExternalID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid message body", http.StatusBadRequest)
		return
	}
	if req.Type != "" && req.Type != TypeText && req.FileURL == "" {
		http.Error(w, "file_url is required for non-text messages", http.StatusBadRequest)
		return
	}

	roomID := chi.URLParam(r, "roomID")
	msg, err := h.service.SendMessage(r.Context(), roomID, externalID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrRoomNotFound):
			http.Error(w, "Chat room not found", http.StatusNotFound)
		case errors.Is(err, ErrUserNotFound):
			http.Error(w, "User not found or access denied", http.StatusNotFound)
		case errors.Is(err, ErrNotParticipant):
			http.Error(w, "Not a participant of this chat room", http.StatusForbidden)
		default:
			h.log.Error().Err(err).Str("room_id", roomID).Msg("chat: send failed")
			http.Error(w, "Failed to send message", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(msg)
}

func (h *Handler) UpdatePresence(w http.ResponseWriter, r *http.Request) {
	externalID, ok := middleware.ExternalID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req PresenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid presence body", http.StatusBadRequest)
		return
	}

	if err := h.service.UpdatePresence(r.Context(), externalID, req.Status); err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			http.Error(w, "status must be online or offline", http.StatusBadRequest)
		case errors.Is(err, ErrUserNotFound):
			http.Error(w, "User not found or access denied", http.StatusNotFound)
		default:
			h.log.Error().Err(err).Msg("chat: presence update failed")
			http.Error(w, "Failed to update user presence", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
