package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telecare/internal/user"
)

var (
	ErrUserNotFound    = errors.New("user not found or access denied")
	ErrUnsupportedRole = errors.New("user role not supported for chat rooms")
	ErrNotParticipant  = errors.New("sender is not a participant of this chat room")
	ErrInvalidStatus   = errors.New("status must be online or offline")
)

// Directory is the slice of the user service the chat service depends on.
type Directory interface {
	GetByExternalID(ctx context.Context, externalID string) (*user.User, error)
	SenderByID(ctx context.Context, id string) (*user.SenderView, error)
}

// Publisher is the realtime transport capability: fire an opaque signal at a
// channel. Payloads are refresh hints, never the record of truth.
type Publisher interface {
	Publish(ctx context.Context, channel, event string, payload any) error
}

type Service struct {
	repo  Repository
	users Directory
	pub   Publisher
	log   zerolog.Logger
	now   func() time.Time
}

func NewService(repo Repository, users Directory, pub Publisher, log zerolog.Logger) *Service {
	return &Service{repo: repo, users: users, pub: pub, log: log, now: time.Now}
}

// RoomChannel names the pub/sub channel carrying a room's events.
func RoomChannel(roomID string) string {
	return "chat-room-" + roomID
}

// PresenceChannel names the per-user presence channel. Scoped by the
// internal directory id, which is the same id room summaries expose for
// participants, so publisher and subscriber agree on one id space.
func PresenceChannel(userID string) string {
	return "presence-" + userID
}

// ListRooms resolves the caller and returns their room set with counterpart
// views and appointment metadata, most recently active first.
func (s *Service) ListRooms(ctx context.Context, callerExternalID string) ([]RoomSummary, error) {
	caller, err := s.users.GetByExternalID(ctx, callerExternalID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve caller: %w", err)
	}

	switch caller.Role {
	case user.RoleDoctor:
		return s.repo.RoomsByDoctor(ctx, caller.ID)
	case user.RolePatient:
		return s.repo.RoomsByPatient(ctx, caller.ID)
	default:
		return nil, ErrUnsupportedRole
	}
}

// GetMessages returns a room's history ascending by creation time, each
// message joined with the condensed sender view. The room's updated_at is
// touched so recently viewed rooms sort first in room lists.
func (s *Service) GetMessages(ctx context.Context, roomID string) ([]MessageWithSender, error) {
	messages, err := s.repo.MessagesByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.TouchRoom(ctx, roomID, s.now()); err != nil {
		// Advisory sort metadata only; the fetch itself succeeded.
		s.log.Warn().Err(err).Str("room_id", roomID).Msg("chat: touch on fetch failed")
	}

	return messages, nil
}

// SendMessage persists the message, then publishes a new-message signal on
// the room's channel. Persistence strictly precedes publication: a
// subscriber reacting to the event always finds the row already durable.
func (s *Service) SendMessage(ctx context.Context, roomID, senderExternalID string, req *SendMessageRequest) (*MessageWithSender, error) {
	room, err := s.repo.RoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	sender, err := s.users.GetByExternalID(ctx, senderExternalID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve sender: %w", err)
	}

	if sender.ID != room.DoctorID && sender.ID != room.PatientID {
		return nil, ErrNotParticipant
	}

	msgType := req.Type
	if msgType == "" {
		msgType = TypeText
	}
	if !msgType.Valid() {
		return nil, fmt.Errorf("unsupported message type %q", req.Type)
	}

	msg := &ChatMessage{
		ID:         uuid.New().String(),
		ChatRoomID: room.ID,
		SenderID:   sender.ID,
		Content:    req.Content,
		Type:       msgType,
		FileURL:    req.FileURL,
		CreatedAt:  s.now(),
	}
	if err := s.repo.InsertMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	if err := s.repo.TouchRoom(ctx, room.ID, msg.CreatedAt); err != nil {
		s.log.Warn().Err(err).Str("room_id", room.ID).Msg("chat: touch on send failed")
	}

	senderView, err := s.users.SenderByID(ctx, sender.ID)
	if err != nil {
		return nil, fmt.Errorf("load sender view: %w", err)
	}

	out := &MessageWithSender{
		ChatMessage: *msg,
		Sender:      *senderView,
		Timestamp:   msg.CreatedAt,
	}

	// The message is already durable; a lost signal only delays display
	// until the next manual refresh, so no rollback is attempted.
	if err := s.pub.Publish(ctx, RoomChannel(room.ID), "new-message", out); err != nil {
		s.log.Error().Err(err).Str("room_id", room.ID).Msg("chat: new-message relay failed")
	}

	return out, nil
}

// UpdatePresence broadcasts the caller's online/offline transition on their
// presence channel. Fire-and-forget: no delivery ack, no retry.
func (s *Service) UpdatePresence(ctx context.Context, callerExternalID, status string) error {
	if status != "online" && status != "offline" {
		return ErrInvalidStatus
	}

	caller, err := s.users.GetByExternalID(ctx, callerExternalID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("resolve caller: %w", err)
	}

	return s.pub.Publish(ctx, PresenceChannel(caller.ID), "user-status", StatusEvent{
		UserID:    caller.ID,
		Status:    status,
		Timestamp: s.now(),
	})
}
