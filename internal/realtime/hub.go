package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// redisEventChannel is the single Redis pub/sub channel every hub instance
// shares. Channel scoping lives in the envelope, not in the Redis topic.
const redisEventChannel = "telecare:realtime"

// Wire event names. subscription_succeeded, member_added and member_removed
// are transport built-ins; application events (new-message, user-status)
// pass through untouched.
const (
	EventConnectionEstablished = "connection_established"
	EventSubscriptionSucceeded = "subscription_succeeded"
	EventSubscriptionError     = "subscription_error"
	EventMemberAdded           = "member_added"
	EventMemberRemoved         = "member_removed"
)

// Envelope is the cross-instance fan-out unit. Payloads are opaque signals:
// subscribers are expected to re-fetch authoritative state from the store,
// not to trust the pushed data as the record of truth.
type Envelope struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
}

// Frame is a single websocket message in either direction.
type Frame struct {
	Event       string          `json:"event"`
	Channel     string          `json:"channel,omitempty"`
	Auth        string          `json:"auth,omitempty"`
	ChannelData string          `json:"channel_data,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

type memberEntry struct {
	conns int
	data  json.RawMessage
}

// Hub tracks sockets and their channel subscriptions, verifies grants on
// subscribe, and bridges published events across instances through Redis.
// All map access is guarded by the RWMutex.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	subs    map[string]map[*Client]struct{}    // channel -> subscribers
	members map[string]map[string]*memberEntry // presence channel -> user_id -> entry

	redis *redis.Client
	auth  *Authorizer
	log   zerolog.Logger
}

func NewHub(redisClient *redis.Client, auth *Authorizer, log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		subs:    make(map[string]map[*Client]struct{}),
		members: make(map[string]map[string]*memberEntry),
		redis:   redisClient,
		auth:    auth,
		log:     log,
	}
}

// Publish pushes an event to every subscriber of the channel, on every hub
// instance. Delivery is best effort and non-durable; the relational store
// remains the source of truth.
func (h *Hub) Publish(ctx context.Context, channel, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	env, err := json.Marshal(Envelope{Channel: channel, Event: event, Data: data})
	if err != nil {
		return err
	}
	return h.redis.Publish(ctx, redisEventChannel, env).Err()
}

// Run consumes the shared Redis subscription and fans incoming envelopes out
// to local subscribers. Blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	pubsub := h.redis.Subscribe(ctx, redisEventChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.log.Warn().Err(err).Msg("realtime: dropping malformed envelope")
				continue
			}
			h.broadcast(env)
		}
	}
}

func (h *Hub) broadcast(env Envelope) {
	frame, err := json.Marshal(Frame{Event: env.Event, Channel: env.Channel, Data: env.Data})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.subs[env.Channel] {
		select {
		case client.Send <- frame:
		default:
			// Client buffer full; skip to avoid blocking the fan-out.
		}
	}
}

// Register adds a freshly upgraded socket to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Subscribe validates the grant for private/presence channels and adds the
// socket to the channel's subscriber set. For presence channels the verified
// member payload is recorded and a member_added signal is relayed when the
// user's first socket joins.
func (h *Hub) Subscribe(c *Client, channel, auth, channelData string) error {
	if RequiresAuth(channel) && !h.auth.Verify(c.SocketID, channel, auth, channelData) {
		return ErrBadSignature
	}

	var member MemberData
	if IsPresence(channel) {
		if err := json.Unmarshal([]byte(channelData), &member); err != nil || member.UserID == "" {
			return ErrBadSignature
		}
	}

	var joined bool
	var roster []json.RawMessage

	h.mu.Lock()
	// Re-subscribes happen on reconnect races; ack again without touching
	// membership so the refcount stays one per socket.
	if _, ok := c.channels[channel]; ok {
		if IsPresence(channel) {
			for _, e := range h.members[channel] {
				roster = append(roster, e.data)
			}
		}
		h.mu.Unlock()
		c.sendSucceeded(channel, roster)
		return nil
	}
	if h.subs[channel] == nil {
		h.subs[channel] = make(map[*Client]struct{})
	}
	h.subs[channel][c] = struct{}{}

	if IsPresence(channel) {
		if h.members[channel] == nil {
			h.members[channel] = make(map[string]*memberEntry)
		}
		entry := h.members[channel][member.UserID]
		if entry == nil {
			entry = &memberEntry{data: json.RawMessage(channelData)}
			h.members[channel][member.UserID] = entry
			joined = true
		}
		entry.conns++
		c.channels[channel] = member.UserID

		for _, e := range h.members[channel] {
			roster = append(roster, e.data)
		}
	} else {
		c.channels[channel] = ""
	}
	h.mu.Unlock()

	c.sendSucceeded(channel, roster)

	if joined {
		if err := h.Publish(context.Background(), channel, EventMemberAdded, json.RawMessage(channelData)); err != nil {
			h.log.Error().Err(err).Str("channel", channel).Msg("realtime: member_added relay failed")
		}
	}
	return nil
}

// Unsubscribe removes the socket from one channel.
func (h *Hub) Unsubscribe(c *Client, channel string) {
	h.mu.Lock()
	memberID, subscribed := c.channels[channel]
	if !subscribed {
		h.mu.Unlock()
		return
	}
	delete(c.channels, channel)
	h.dropLocked(c, channel, memberID)
	h.mu.Unlock()
}

// Unregister tears down every subscription the socket holds and closes its
// send channel, stopping the write pump.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for channel, memberID := range c.channels {
		h.dropLocked(c, channel, memberID)
	}
	c.channels = make(map[string]string)
	close(c.Send)
	h.mu.Unlock()
}

// dropLocked removes one subscription; caller holds h.mu. When the last
// socket of a presence member leaves, a member_removed signal is relayed.
func (h *Hub) dropLocked(c *Client, channel, memberID string) {
	if subscribers, ok := h.subs[channel]; ok {
		delete(subscribers, c)
		if len(subscribers) == 0 {
			delete(h.subs, channel)
		}
	}

	if memberID == "" {
		return
	}
	entry := h.members[channel][memberID]
	if entry == nil {
		return
	}
	entry.conns--
	if entry.conns > 0 {
		return
	}
	delete(h.members[channel], memberID)
	if len(h.members[channel]) == 0 {
		delete(h.members, channel)
	}

	payload, _ := json.Marshal(MemberData{UserID: memberID})
	go func() {
		if err := h.Publish(context.Background(), channel, EventMemberRemoved, json.RawMessage(payload)); err != nil {
			h.log.Error().Err(err).Str("channel", channel).Msg("realtime: member_removed relay failed")
		}
	}()
}

// SubscriberCount reports local subscribers of a channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}

// MemberCount reports local members of a presence channel.
func (h *Hub) MemberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members[channel])
}
