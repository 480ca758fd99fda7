package user

import (
	"context"
	"database/sql"
	"errors"
)

const userColumns = `id, external_id, role, first_name, last_name, image_url,
	phone, email, specialization, years_of_experience, password, created_at`

type RepoPG struct {
	db *sql.DB
}

func NewRepoPG(db *sql.DB) *RepoPG {
	return &RepoPG{db: db}
}

func (r *RepoPG) Create(ctx context.Context, u *User) error {
	query := `INSERT INTO users (id, external_id, role, first_name, last_name,
		image_url, phone, email, specialization, years_of_experience, password)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`
	return r.db.QueryRowContext(ctx, query,
		u.ID, u.ExternalID, u.Role, u.FirstName, u.LastName,
		u.ImageURL, u.Phone, u.Email, u.Specialization, u.YearsOfExperience, u.Password,
	).Scan(&u.CreatedAt)
}

func (r *RepoPG) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *RepoPG) GetByExternalID(ctx context.Context, externalID string) (*User, error) {
	return r.getBy(ctx, "external_id", externalID)
}

func (r *RepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *RepoPG) getBy(ctx context.Context, column, value string) (*User, error) {
	u := &User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&u.ID, &u.ExternalID, &u.Role, &u.FirstName, &u.LastName, &u.ImageURL,
		&u.Phone, &u.Email, &u.Specialization, &u.YearsOfExperience, &u.Password, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *RepoPG) SenderByID(ctx context.Context, id string) (*SenderView, error) {
	s := &SenderView{}
	query := `SELECT id, first_name, last_name, image_url, role FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.FirstName, &s.LastName, &s.ImageURL, &s.Role,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *RepoPG) Search(ctx context.Context, query string, limit int) ([]User, error) {
	q := `SELECT ` + userColumns + ` FROM users
		WHERE first_name || ' ' || last_name ILIKE $1
		ORDER BY last_name, first_name
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID, &u.ExternalID, &u.Role, &u.FirstName, &u.LastName, &u.ImageURL,
			&u.Phone, &u.Email, &u.Specialization, &u.YearsOfExperience, &u.Password, &u.CreatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
