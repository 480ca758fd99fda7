package user

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no user row matches the lookup. Callers treat
// it as a hard failure: downstream room and message operations assume a
// resolved internal id.
var ErrNotFound = errors.New("user not found")

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	SenderByID(ctx context.Context, id string) (*SenderView, error)
	Search(ctx context.Context, query string, limit int) ([]User, error)
}
