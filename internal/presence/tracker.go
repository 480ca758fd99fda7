// Package presence reconciles a per-session view of who is online from the
// events flowing over presence channels. The view is best effort and
// eventually consistent: it may gate UI affordances, never security.
package presence

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Event names mirrored from the transport.
const (
	EventUserStatus    = "user-status"
	EventMemberAdded   = "member_added"
	EventMemberRemoved = "member_removed"
)

// Event is one presence signal, from any of the three sources: explicit
// user-status broadcasts, or the transport's native join/leave membership
// notifications.
type Event struct {
	Name   string
	UserID string
	Status string // only for user-status events
}

// Subscriber is the transport capability the tracker owns subscriptions
// through.
type Subscriber interface {
	Subscribe(channel string) error
	Unsubscribe(channel string) error
}

// Announcer publishes the tracker's own online/offline transitions.
type Announcer interface {
	UpdatePresence(ctx context.Context, status string) error
}

// RoomParticipants is the pair of user ids a room contributes to the
// tracked set.
type RoomParticipants struct {
	DoctorID  string
	PatientID string
}

// Tracker owns a set of presence-channel subscriptions and folds their
// events into a single userID -> online mapping. No event source is
// privileged: the last event to arrive wins, whatever its kind.
type Tracker struct {
	mu        sync.Mutex
	subs      Subscriber
	announcer Announcer
	online    map[string]bool
	channels  []string
	announced bool
	log       zerolog.Logger
}

func NewTracker(subs Subscriber, announcer Announcer, log zerolog.Logger) *Tracker {
	return &Tracker{
		subs:      subs,
		announcer: announcer,
		online:    make(map[string]bool),
		log:       log,
	}
}

// SetRooms swaps the tracked participant set for the one derived from the
// given rooms. The previous subscription set is released in full before the
// new one is acquired; there is no incremental diffing.
func (t *Tracker) SetRooms(rooms []RoomParticipants) {
	ids := make([]string, 0, len(rooms)*2)
	seen := make(map[string]struct{}, len(rooms)*2)
	for _, room := range rooms {
		for _, id := range []string{room.DoctorID, room.PatientID} {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, channel := range t.channels {
		if err := t.subs.Unsubscribe(channel); err != nil {
			t.log.Warn().Err(err).Str("channel", channel).Msg("presence: unsubscribe failed")
		}
	}
	t.channels = t.channels[:0]

	for _, id := range ids {
		channel := "presence-" + id
		if err := t.subs.Subscribe(channel); err != nil {
			t.log.Warn().Err(err).Str("channel", channel).Msg("presence: subscribe failed")
			continue
		}
		t.channels = append(t.channels, channel)
	}
}

// Apply folds one event into the view. Arrival order is the only ordering:
// a member_added after an explicit offline status flips the user back to
// online.
func (t *Tracker) Apply(evt Event) {
	if evt.UserID == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch evt.Name {
	case EventUserStatus:
		t.online[evt.UserID] = evt.Status == "online"
	case EventMemberAdded:
		t.online[evt.UserID] = true
	case EventMemberRemoved:
		t.online[evt.UserID] = false
	}
}

// Online reports the current view for one user. Unknown users are offline.
func (t *Tracker) Online(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.online[userID]
}

// Snapshot returns a copy of the whole view.
func (t *Tracker) Snapshot() map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]bool, len(t.online))
	for id, on := range t.online {
		out[id] = on
	}
	return out
}

// Announce broadcasts the session's own online status. Effective at most
// once per tracker lifetime; repeat calls are no-ops so re-running setup
// code cannot spam the channel.
func (t *Tracker) Announce(ctx context.Context) {
	t.mu.Lock()
	if t.announced {
		t.mu.Unlock()
		return
	}
	t.announced = true
	t.mu.Unlock()

	if err := t.announcer.UpdatePresence(ctx, "online"); err != nil {
		t.log.Warn().Err(err).Msg("presence: online announcement failed")
	}
}

// Close announces offline and releases every owned subscription. The view
// is discarded with the session.
func (t *Tracker) Close(ctx context.Context) {
	t.mu.Lock()
	announced := t.announced
	channels := t.channels
	t.channels = nil
	t.online = make(map[string]bool)
	t.mu.Unlock()

	if announced {
		if err := t.announcer.UpdatePresence(ctx, "offline"); err != nil {
			t.log.Warn().Err(err).Msg("presence: offline announcement failed")
		}
	}

	for _, channel := range channels {
		if err := t.subs.Unsubscribe(channel); err != nil {
			t.log.Warn().Err(err).Str("channel", channel).Msg("presence: unsubscribe failed")
		}
	}
}
