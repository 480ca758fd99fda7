package realtime

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 1024                // Inbound frames are subscribe/unsubscribe control messages only.
)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound frames.
	Send chan []byte

	// SocketID is the transport-assigned identifier grants are bound to.
	SocketID string

	// channels maps subscribed channel -> presence member id ("" for
	// non-presence channels). Guarded by the hub mutex.
	channels map[string]string
}

func newClient(hub *Hub, conn *websocket.Conn, socketID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		Send:     make(chan []byte, 256),
		SocketID: socketID,
		channels: make(map[string]string),
	}
}

func (c *Client) sendFrame(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

func (c *Client) sendSucceeded(channel string, roster []json.RawMessage) {
	var data json.RawMessage
	if IsPresence(channel) {
		members := roster
		if members == nil {
			members = []json.RawMessage{}
		}
		data, _ = json.Marshal(map[string]any{"members": members})
	}
	c.sendFrame(Frame{Event: EventSubscriptionSucceeded, Channel: channel, Data: data})
}

// readPump pumps control frames from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug().Err(err).Str("socket_id", c.SocketID).Msg("realtime: read error")
			}
			break
		}

		var frame Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			continue
		}

		switch frame.Event {
		case "subscribe":
			if err := c.hub.Subscribe(c, frame.Channel, frame.Auth, frame.ChannelData); err != nil {
				data, _ := json.Marshal(map[string]string{"message": err.Error()})
				c.sendFrame(Frame{Event: EventSubscriptionError, Channel: frame.Channel, Data: data})
			}
		case "unsubscribe":
			c.hub.Unsubscribe(c, frame.Channel)
		}
	}
}

// writePump pumps frames from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Drain queued frames into the same write to reduce syscalls.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
