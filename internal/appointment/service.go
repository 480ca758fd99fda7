package appointment

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
	ErrUserNotFound = errors.New("user not found or access denied")
	ErrNotADoctor   = errors.New("selected provider is not a doctor")
	ErrPastDate     = errors.New("appointment date must be in the future")
)

type Directory interface {
	GetByExternalID(ctx context.Context, externalID string) (*user.User, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type Service struct {
	repo  Repository
	users Directory
	log   zerolog.Logger
	now   func() time.Time
}

func NewService(repo Repository, users Directory, log zerolog.Logger) *Service {
	return &Service{repo: repo, users: users, log: log, now: time.Now}
}

// Book creates an appointment for the calling patient and, in the same
// transaction, the chat room bound to it.
func (s *Service) Book(ctx context.Context, patientExternalID string, req *BookRequest) (*BookResult, error) {
	patient, err := s.users.GetByExternalID(ctx, patientExternalID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve patient: %w", err)
	}
	if patient.Role != user.RolePatient {
		return nil, fmt.Errorf("only patients can book appointments")
	}

	doctor, err := s.users.GetByID(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve doctor: %w", err)
	}
	if doctor.Role != user.RoleDoctor {
		return nil, ErrNotADoctor
	}

	if req.Date.Before(s.now()) {
		return nil, ErrPastDate
	}

	a := &Appointment{
		ID:        uuid.New().String(),
		DoctorID:  doctor.ID,
		PatientID: patient.ID,
		Date:      req.Date,
		Status:    StatusScheduled,
	}
	roomID := uuid.New().String()

	if err := s.repo.CreateWithRoom(ctx, a, roomID); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.log.Info().
		Str("appointment_id", a.ID).
		Str("chat_room_id", roomID).
		Msg("appointment booked, chat room created")

	return &BookResult{Appointment: *a, ChatRoomID: roomID}, nil
}

// List returns the caller's appointments, newest first.
func (s *Service) List(ctx context.Context, callerExternalID string) ([]Appointment, error) {
	caller, err := s.users.GetByExternalID(ctx, callerExternalID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve caller: %w", err)
	}

	switch caller.Role {
	case user.RoleDoctor:
		return s.repo.ListByDoctor(ctx, caller.ID)
	case user.RolePatient:
		return s.repo.ListByPatient(ctx, caller.ID)
	default:
		return nil, fmt.Errorf("unsupported role %q", caller.Role)
	}
}

// Cancel marks an appointment cancelled. The chat room stays: history must
// survive scheduling changes.
func (s *Service) Cancel(ctx context.Context, id string) error {
	return s.repo.UpdateStatus(ctx, id, StatusCancelled)
}
