package appointment

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("appointment not found")

type Repository interface {
	// CreateWithRoom inserts the appointment and its chat room in one
	// transaction and returns the room id. Rooms are never created any
	// other way.
	CreateWithRoom(ctx context.Context, a *Appointment, roomID string) error
	GetByID(ctx context.Context, id string) (*Appointment, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]Appointment, error)
	ListByPatient(ctx context.Context, patientID string) ([]Appointment, error)
	UpdateStatus(ctx context.Context, id, status string) error
}
