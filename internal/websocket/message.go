package websocket

import (
	"encoding/json"

	"github.com/isdelr/userdir/internal/models"
)

// Message actions.
const (
	ActionSubscribed = "subscribed"
	ActionEvent      = "event"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

// NewEventMessage encodes a recorded event for subscribers.
func NewEventMessage(e models.Event) ([]byte, error) {
	return json.Marshal(Message{Action: ActionEvent, Payload: e})
}

// NewSubscribedMessage acknowledges a new subscription.
func NewSubscribedMessage(subjectID int64) []byte {
	b, _ := json.Marshal(Message{
		Action:  ActionSubscribed,
		Payload: map[string]int64{"subjectId": subjectID},
	})
	return b
}
