package appointment

import (
	"context"
	"database/sql"
	"errors"
)

type RepoPG struct {
	db *sql.DB
}

func NewRepoPG(db *sql.DB) *RepoPG {
	return &RepoPG{db: db}
}

func (r *RepoPG) CreateWithRoom(ctx context.Context, a *Appointment, roomID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO appointments (id, doctor_id, patient_id, date, status)
		 VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		a.ID, a.DoctorID, a.PatientID, a.Date, a.Status,
	).Scan(&a.CreatedAt)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chat_rooms (id, appointment_id, patient_id, doctor_id)
		 VALUES ($1, $2, $3, $4)`,
		roomID, a.ID, a.PatientID, a.DoctorID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *RepoPG) GetByID(ctx context.Context, id string) (*Appointment, error) {
	a := &Appointment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, doctor_id, patient_id, date, status, created_at
		 FROM appointments WHERE id = $1`, id,
	).Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.Date, &a.Status, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *RepoPG) ListByDoctor(ctx context.Context, doctorID string) ([]Appointment, error) {
	return r.list(ctx, "doctor_id", doctorID)
}

func (r *RepoPG) ListByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
	return r.list(ctx, "patient_id", patientID)
}

func (r *RepoPG) list(ctx context.Context, column, userID string) ([]Appointment, error) {
	query := `SELECT id, doctor_id, patient_id, date, status, created_at
		FROM appointments WHERE ` + column + ` = $1 ORDER BY date DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appointments []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.Date, &a.Status, &a.CreatedAt); err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

func (r *RepoPG) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
