package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/isdelr/userdir/internal/models"
)

// SQLEventRepository implements EventRepository over database/sql.
type SQLEventRepository struct {
	db      *sql.DB
	dialect string
}

// NewSQLEventRepository creates an event repository for the given dialect.
func NewSQLEventRepository(db *sql.DB, dialect string) (*SQLEventRepository, error) {
	if err := checkDialect(dialect); err != nil {
		return nil, err
	}
	return &SQLEventRepository{db: db, dialect: dialect}, nil
}

// Append logs a new event.
func (r *SQLEventRepository) Append(ctx context.Context, e *models.Event) error {
	query := rebind(r.dialect, `INSERT INTO events (id, type, level, message, user_id, actor_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, e.ID, e.Type, e.Level, e.Message, e.UserID, e.ActorID, e.CreatedAt); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Recent retrieves the most recent events.
func (r *SQLEventRepository) Recent(ctx context.Context, limit int) ([]models.Event, error) {
	query := rebind(r.dialect, `SELECT id, type, level, message, user_id, actor_id, created_at
		FROM events ORDER BY created_at DESC LIMIT ?`)
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var (
			e       models.Event
			userID  sql.NullInt64
			actorID sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.Level, &e.Message, &userID, &actorID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if userID.Valid {
			e.UserID = &userID.Int64
		}
		if actorID.Valid {
			e.ActorID = &actorID.Int64
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// Prune deletes events older than before.
func (r *SQLEventRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, rebind(r.dialect, "DELETE FROM events WHERE created_at < ?"), before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// MemoryEventRepository keeps events in process memory.
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events []models.Event
}

// NewMemoryEventRepository creates an empty event log.
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{}
}

// Append logs a new event.
func (r *MemoryEventRepository) Append(_ context.Context, e *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return nil
}

// Recent returns at most limit events in reverse insertion order.
func (r *MemoryEventRepository) Recent(_ context.Context, limit int) ([]models.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Event{}
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.events[i])
	}
	return out, nil
}

// Prune deletes events older than before.
func (r *MemoryEventRepository) Prune(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.events[:0]
	for _, e := range r.events {
		if !e.CreatedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	n := int64(len(r.events) - len(kept))
	r.events = kept
	return n, nil
}

var (
	_ EventRepository = (*SQLEventRepository)(nil)
	_ EventRepository = (*MemoryEventRepository)(nil)
)
