package chat

import (
	"time"

	"telecare/internal/user"
)

// MessageType is the closed set of message payload kinds. Non-text types
// carry their payload in FileURL.
type MessageType string

const (
	TypeText     MessageType = "text"
	TypeImage    MessageType = "image"
	TypeDocument MessageType = "document"
	TypeEmoji    MessageType = "emoji"
)

func (t MessageType) Valid() bool {
	switch t {
	case TypeText, TypeImage, TypeDocument, TypeEmoji:
		return true
	}
	return false
}

// ChatRoom is the messaging context tied to exactly one appointment.
// updated_at doubles as the recency sort key for room lists and is touched
// on every fetch and send.
type ChatRoom struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointment_id"`
	PatientID     string    `json:"patient_id"`
	DoctorID      string    `json:"doctor_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ChatMessage is immutable once created; display order is created_at
// ascending.
type ChatMessage struct {
	ID         string      `json:"id"`
	ChatRoomID string      `json:"chat_room_id"`
	SenderID   string      `json:"sender_id"`
	Content    string      `json:"content"`
	Type       MessageType `json:"type"`
	FileURL    string      `json:"file_url,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// MessageWithSender joins a message with the condensed sender profile so the
// UI needs no second round trip. Timestamp aliases CreatedAt for display.
type MessageWithSender struct {
	ChatMessage
	Sender    user.SenderView `json:"sender"`
	Timestamp time.Time       `json:"timestamp"`
}

// AppointmentView is the linked appointment metadata carried on room
// summaries.
type AppointmentView struct {
	ID     string    `json:"id"`
	Date   time.Time `json:"date"`
	Status string    `json:"status"`
}

// RoomSummary is one row of a room list: the room, the two condensed
// participant views and the linked appointment. Which fields of each view
// are populated depends on the caller's role.
type RoomSummary struct {
	ChatRoom
	Doctor      user.DoctorView  `json:"doctor"`
	Patient     user.PatientView `json:"patient"`
	Appointment AppointmentView  `json:"appointment"`
	LastActive  time.Time        `json:"last_active"`
}

// SendMessageRequest is the inbound body for sending a message. The sender
// is taken from the authenticated session, never from the body.
type SendMessageRequest struct {
	Content string      `json:"content"`
	Type    MessageType `json:"type"`
	FileURL string      `json:"file_url"`
}

// PresenceRequest is the inbound body for a presence announcement.
type PresenceRequest struct {
	Status string `json:"status"`
}

// StatusEvent is the user-status payload relayed on presence channels.
type StatusEvent struct {
	UserID    string    `json:"userId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
