// Package store persists user records.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/isdelr/userdir/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("user not found")

	// ErrDuplicateEmail is returned when a write would break email uniqueness.
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository is the durable store keyed by id and unique email.
type UserRepository interface {
	FindAll(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	// Insert assigns the generated id and timestamps to u.
	Insert(ctx context.Context, u *models.User) error
	// Save writes every mutable column of an existing record.
	Save(ctx context.Context, u *models.User) error
	Remove(ctx context.Context, id int64) error
	Close() error
}

// EventRepository is the append-only activity log.
type EventRepository interface {
	Append(ctx context.Context, e *models.Event) error
	// Recent returns at most limit events, newest first.
	Recent(ctx context.Context, limit int) ([]models.Event, error)
	// Prune deletes events created before the cutoff and reports how many went.
	Prune(ctx context.Context, before time.Time) (int64, error)
}
