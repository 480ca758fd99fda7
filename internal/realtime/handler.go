package realtime

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"telecare/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for now (dev mode).
	},
}

type Handler struct {
	hub  *Hub
	auth *Authorizer
	log  zerolog.Logger
}

func NewHandler(hub *Hub, auth *Authorizer, log zerolog.Logger) *Handler {
	return &Handler{hub: hub, auth: auth, log: log}
}

// ServeWs upgrades the connection and starts the pumps. The connection
// itself is open to any authenticated session; channel-level access is
// enforced per subscribe via the authorizer.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.ExternalID(r.Context()); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("realtime: upgrade failed")
		return
	}

	client := newClient(h.hub, conn, uuid.New().String())
	h.hub.Register(client)

	// Queue the handshake before the pumps run: once readPump starts, a
	// disconnect can unregister the client and close Send under us.
	data, _ := json.Marshal(map[string]string{"socket_id": client.SocketID})
	client.sendFrame(Frame{Event: EventConnectionEstablished, Data: data})

	go client.writePump()
	go client.readPump()
}

// AuthorizeChannel is the endpoint the client library calls during the
// subscribe handshake for private and presence channels. Form-encoded, per
// the transport convention.
func (h *Handler) AuthorizeChannel(w http.ResponseWriter, r *http.Request) {
	externalID, ok := middleware.ExternalID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Missing required parameters", http.StatusBadRequest)
		return
	}
	socketID := r.PostFormValue("socket_id")
	channelName := r.PostFormValue("channel_name")

	res, err := h.auth.AuthorizeChannel(r.Context(), externalID, socketID, channelName)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingParams):
			http.Error(w, "Missing required parameters", http.StatusBadRequest)
		case errors.Is(err, ErrUnknownUser):
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		default:
			h.log.Error().Err(err).Str("channel", channelName).Msg("realtime: channel auth failed")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
