package models

import "time"

// Event types recorded for account activity.
const (
	EventUserRegistered = "user.registered"
	EventUserCreated    = "user.created"
	EventUserUpdated    = "user.updated"
	EventUserDeleted    = "user.deleted"
	EventLoginFailed    = "auth.login_failed"
	EventEventsPruned   = "system.events.pruned"
	EventHighCPU        = "system.alert.cpu"
)

// Event levels.
const (
	LevelInfo = "info"
	LevelWarn = "warn"
)

// Event represents a recorded account action.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "user.registered", "auth.login_failed"
	Level     string    `json:"level"` // "info" or "warn"
	Message   string    `json:"message"`
	UserID    *int64    `json:"userId,omitempty"`  // Account the event is about, if any
	ActorID   *int64    `json:"actorId,omitempty"` // Authenticated caller, if any
	CreatedAt time.Time `json:"createdAt"`
}
