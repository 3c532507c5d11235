// Package websocket fans recorded events out to live subscribers.
package websocket

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/userdir/internal/models"
)

const broadcastBuffer = 64

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	// Registered clients. Owned by Run.
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	// Closed when Run returns.
	done chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Int64("subject_id", client.SubjectID).Msg("Client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					log.Warn().Int64("subject_id", client.SubjectID).Msg("Dropping slow client")
					h.drop(client)
				}
			}
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Register adds client to the hub. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client from the hub and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish broadcasts e to every client. It never blocks; when the hub is backed up
// the event is dropped from the live feed. It is still in the activity log.
func (h *Hub) Publish(e models.Event) {
	message, err := NewEventMessage(e)
	if err != nil {
		log.Error().Err(err).Str("event_id", e.ID).Msg("Failed to encode event")
		return
	}
	select {
	case h.broadcast <- message:
	case <-h.done:
	default:
		log.Warn().Str("event_id", e.ID).Msg("Broadcast buffer full, event not streamed")
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
}
