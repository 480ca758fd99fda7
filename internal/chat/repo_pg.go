package chat

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type RepoPG struct {
	db *sql.DB
}

func NewRepoPG(db *sql.DB) *RepoPG {
	return &RepoPG{db: db}
}

func (r *RepoPG) RoomByID(ctx context.Context, id string) (*ChatRoom, error) {
	room := &ChatRoom{}
	query := `SELECT id, appointment_id, patient_id, doctor_id, created_at, updated_at
		FROM chat_rooms WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&room.ID, &room.AppointmentID, &room.PatientID, &room.DoctorID,
		&room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

func (r *RepoPG) RoomsByDoctor(ctx context.Context, doctorID string) ([]RoomSummary, error) {
	rooms, err := r.roomSummaries(ctx, "r.doctor_id", doctorID)
	if err != nil {
		return nil, err
	}
	// Doctors get patient contact info but no provider credentials.
	for i := range rooms {
		rooms[i].Doctor.Specialization = ""
		rooms[i].Doctor.YearsOfExperience = 0
	}
	return rooms, nil
}

func (r *RepoPG) RoomsByPatient(ctx context.Context, patientID string) ([]RoomSummary, error) {
	rooms, err := r.roomSummaries(ctx, "r.patient_id", patientID)
	if err != nil {
		return nil, err
	}
	// Patients get provider credentials but not the other party's contacts.
	for i := range rooms {
		rooms[i].Patient.Phone = ""
		rooms[i].Patient.Email = ""
	}
	return rooms, nil
}

func (r *RepoPG) roomSummaries(ctx context.Context, column, userID string) ([]RoomSummary, error) {
	query := `SELECT
		r.id, r.appointment_id, r.patient_id, r.doctor_id, r.created_at, r.updated_at,
		d.id, d.first_name, d.last_name, d.image_url, d.specialization, d.years_of_experience,
		p.id, p.first_name, p.last_name, p.image_url, p.phone, p.email,
		a.id, a.date, a.status
	FROM chat_rooms r
	JOIN users d ON d.id = r.doctor_id
	JOIN users p ON p.id = r.patient_id
	JOIN appointments a ON a.id = r.appointment_id
	WHERE ` + column + ` = $1
	ORDER BY r.updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []RoomSummary
	for rows.Next() {
		var s RoomSummary
		if err := rows.Scan(
			&s.ID, &s.AppointmentID, &s.PatientID, &s.DoctorID, &s.CreatedAt, &s.UpdatedAt,
			&s.Doctor.ID, &s.Doctor.FirstName, &s.Doctor.LastName, &s.Doctor.ImageURL,
			&s.Doctor.Specialization, &s.Doctor.YearsOfExperience,
			&s.Patient.ID, &s.Patient.FirstName, &s.Patient.LastName, &s.Patient.ImageURL,
			&s.Patient.Phone, &s.Patient.Email,
			&s.Appointment.ID, &s.Appointment.Date, &s.Appointment.Status,
		); err != nil {
			return nil, err
		}
		s.LastActive = s.UpdatedAt
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *RepoPG) TouchRoom(ctx context.Context, id string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chat_rooms SET updated_at = $2 WHERE id = $1`, id, now)
	return err
}

func (r *RepoPG) InsertMessage(ctx context.Context, m *ChatMessage) error {
	query := `INSERT INTO chat_messages (id, chat_room_id, sender_id, content, type, file_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.ChatRoomID, m.SenderID, m.Content, m.Type, m.FileURL, m.CreatedAt)
	return err
}

func (r *RepoPG) MessagesByRoom(ctx context.Context, roomID string) ([]MessageWithSender, error) {
	query := `SELECT
		m.id, m.chat_room_id, m.sender_id, m.content, m.type, m.file_url, m.created_at,
		u.id, u.first_name, u.last_name, u.image_url, u.role
	FROM chat_messages m
	JOIN users u ON u.id = m.sender_id
	WHERE m.chat_room_id = $1
	ORDER BY m.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []MessageWithSender
	for rows.Next() {
		var m MessageWithSender
		if err := rows.Scan(
			&m.ID, &m.ChatRoomID, &m.SenderID, &m.Content, &m.Type, &m.FileURL, &m.CreatedAt,
			&m.Sender.ID, &m.Sender.FirstName, &m.Sender.LastName, &m.Sender.ImageURL, &m.Sender.Role,
		); err != nil {
			return nil, err
		}
		m.Timestamp = m.CreatedAt
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
