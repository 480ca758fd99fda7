package chat

import (
	"context"
	"errors"
	"time"
)

var ErrRoomNotFound = errors.New("chat room not found")

type Repository interface {
	RoomByID(ctx context.Context, id string) (*ChatRoom, error)
	// RoomsByDoctor returns summaries for rooms where the user is the
	// doctor, most recently active first. Patient views carry contact
	// fields.
	RoomsByDoctor(ctx context.Context, doctorID string) ([]RoomSummary, error)
	// RoomsByPatient returns summaries for rooms where the user is the
	// patient, most recently active first. Doctor views carry
	// specialization and experience.
	RoomsByPatient(ctx context.Context, patientID string) ([]RoomSummary, error)
	TouchRoom(ctx context.Context, id string, now time.Time) error
	InsertMessage(ctx context.Context, m *ChatMessage) error
	MessagesByRoom(ctx context.Context, roomID string) ([]MessageWithSender, error)
}
