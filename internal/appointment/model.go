package appointment

import "time"

const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type Appointment struct {
	ID        string    `json:"id"`
	DoctorID  string    `json:"doctor_id"`
	PatientID string    `json:"patient_id"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type BookRequest struct {
	DoctorID string    `json:"doctor_id"`
	Date     time.Time `json:"date"`
}

// BookResult carries the new appointment together with the chat room created
// for it. Exactly one room exists per appointment.
type BookResult struct {
	Appointment Appointment `json:"appointment"`
	ChatRoomID  string      `json:"chat_room_id"`
}
