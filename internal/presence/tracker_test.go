package presence

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	subscribed   []string
	unsubscribed []string
}

func (f *fakeSubscriber) Subscribe(channel string) error {
	f.subscribed = append(f.subscribed, channel)
	return nil
}

func (f *fakeSubscriber) Unsubscribe(channel string) error {
	f.unsubscribed = append(f.unsubscribed, channel)
	return nil
}

type fakeAnnouncer struct {
	statuses []string
}

func (f *fakeAnnouncer) UpdatePresence(_ context.Context, status string) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func newTestTracker() (*Tracker, *fakeSubscriber, *fakeAnnouncer) {
	subs := &fakeSubscriber{}
	ann := &fakeAnnouncer{}
	return NewTracker(subs, ann, zerolog.Nop()), subs, ann
}

func TestSetRoomsSubscribesDedupedParticipants(t *testing.T) {
	tracker, subs, _ := newTestTracker()

	tracker.SetRooms([]RoomParticipants{
		{DoctorID: "doc-1", PatientID: "pat-1"},
		{DoctorID: "doc-1", PatientID: "pat-2"}, // same doctor twice
		{DoctorID: "", PatientID: "pat-3"},
	})

	assert.Equal(t, []string{
		"presence-doc-1",
		"presence-pat-1",
		"presence-pat-2",
		"presence-pat-3",
	}, subs.subscribed)
	assert.Empty(t, subs.unsubscribed)
}

func TestSetRoomsSwapsFullSet(t *testing.T) {
	tracker, subs, _ := newTestTracker()

	tracker.SetRooms([]RoomParticipants{{DoctorID: "doc-1", PatientID: "pat-1"}})
	subs.subscribed = nil

	tracker.SetRooms([]RoomParticipants{{DoctorID: "doc-2", PatientID: "pat-1"}})

	// Everything previously held is released, including channels the new set
	// still wants.
	assert.Equal(t, []string{"presence-doc-1", "presence-pat-1"}, subs.unsubscribed)
	assert.Equal(t, []string{"presence-doc-2", "presence-pat-1"}, subs.subscribed)
}

func TestApplyLastArrivalWins(t *testing.T) {
	tracker, _, _ := newTestTracker()

	tracker.Apply(Event{Name: EventMemberAdded, UserID: "doc-1"})
	assert.True(t, tracker.Online("doc-1"))

	tracker.Apply(Event{Name: EventUserStatus, UserID: "doc-1", Status: "offline"})
	assert.False(t, tracker.Online("doc-1"))

	// A join signal after an explicit offline flips the user back online.
	tracker.Apply(Event{Name: EventMemberAdded, UserID: "doc-1"})
	assert.True(t, tracker.Online("doc-1"))

	tracker.Apply(Event{Name: EventMemberRemoved, UserID: "doc-1"})
	assert.False(t, tracker.Online("doc-1"))
}

func TestApplyIgnoresBlankAndUnknownEvents(t *testing.T) {
	tracker, _, _ := newTestTracker()

	tracker.Apply(Event{Name: EventMemberAdded, UserID: ""})
	tracker.Apply(Event{Name: "pong", UserID: "doc-1"})

	assert.Empty(t, tracker.Snapshot())
}

func TestUnknownUsersAreOffline(t *testing.T) {
	tracker, _, _ := newTestTracker()
	assert.False(t, tracker.Online("nobody"))
}

func TestAnnounceIsEffectiveOnce(t *testing.T) {
	tracker, _, ann := newTestTracker()

	tracker.Announce(context.Background())
	tracker.Announce(context.Background())
	tracker.Announce(context.Background())

	assert.Equal(t, []string{"online"}, ann.statuses)
}

func TestCloseAnnouncesOfflineAndReleasesChannels(t *testing.T) {
	tracker, subs, ann := newTestTracker()

	tracker.SetRooms([]RoomParticipants{{DoctorID: "doc-1", PatientID: "pat-1"}})
	tracker.Announce(context.Background())
	tracker.Apply(Event{Name: EventMemberAdded, UserID: "doc-1"})

	tracker.Close(context.Background())

	assert.Equal(t, []string{"online", "offline"}, ann.statuses)
	assert.Equal(t, []string{"presence-doc-1", "presence-pat-1"}, subs.unsubscribed)
	assert.Empty(t, tracker.Snapshot())
}

func TestCloseWithoutAnnounceStaysSilent(t *testing.T) {
	tracker, _, ann := newTestTracker()

	tracker.SetRooms([]RoomParticipants{{DoctorID: "doc-1", PatientID: "pat-1"}})
	tracker.Close(context.Background())

	require.Empty(t, ann.statuses)
}
