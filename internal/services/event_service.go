package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/isdelr/userdir/internal/apperr"
	"github.com/isdelr/userdir/internal/auth"
	"github.com/isdelr/userdir/internal/models"
	"github.com/isdelr/userdir/internal/store"
)

// Limits applied to GetRecentEvents.
const (
	DefaultEventLimit = 20
	MaxEventLimit     = 100
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, userID *int64) error
	GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
	PruneEvents(ctx context.Context, before time.Time) (int64, error)
}

// EventPublisher fans a recorded event out to live subscribers.
type EventPublisher interface {
	Publish(e models.Event)
}

// EventService provides business logic for the activity log.
type EventService struct {
	repo      store.EventRepository
	publisher EventPublisher
	now       func() time.Time
}

// NewEventService creates a new EventService. publisher may be nil.
func NewEventService(repo store.EventRepository, publisher EventPublisher) *EventService {
	return &EventService{repo: repo, publisher: publisher, now: time.Now}
}

// CreateEvent logs a new event and publishes it once stored. The authenticated
// subject in ctx, if any, is recorded as the actor.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, userID *int64) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	if actor, ok := auth.SubjectFromContext(ctx); ok {
		event.ActorID = &actor
	}

	if err := s.repo.Append(ctx, &event); err != nil {
		return apperr.Internal("append event", err)
	}
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
	return nil
}

// GetRecentEvents retrieves the most recent events. limit is clamped to
// [1, MaxEventLimit]; non-positive values mean DefaultEventLimit.
func (s *EventService) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	if limit > MaxEventLimit {
		limit = MaxEventLimit
	}
	events, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, apperr.Internal("recent events", err)
	}
	return events, nil
}

// PruneEvents deletes events created before the cutoff.
func (s *EventService) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.repo.Prune(ctx, before)
	if err != nil {
		return 0, apperr.Internal("prune events", err)
	}
	return n, nil
}
