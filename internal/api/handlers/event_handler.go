package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/userdir/internal/api/respond"
	"github.com/isdelr/userdir/internal/auth"
	"github.com/isdelr/userdir/internal/services"
	ws "github.com/isdelr/userdir/internal/websocket"
)

const msgEventsFailed = "error retrieving events"

// EventHandler handles HTTP requests related to the activity log.
type EventHandler struct {
	service  services.EventServiceProvider
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewEventHandler creates a new EventHandler. Websocket upgrades are accepted from
// allowedOrigins and from clients that send no Origin header.
func NewEventHandler(service services.EventServiceProvider, hub *ws.Hub, allowedOrigins []string) *EventHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &EventHandler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// GetRecent handles the request to get recent activity/events.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = 0 // Service default
	}

	events, err := h.service.GetRecentEvents(r.Context(), limit)
	if err != nil {
		respond.Error(w, r, err, msgEventsFailed)
		return
	}
	respond.Success(w, http.StatusOK, map[string]any{"eventos": events})
}

// Stream upgrades the connection and streams every new event to the caller.
func (h *EventHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request.
		log.Warn().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	subject, _ := auth.SubjectFromContext(r.Context())
	client := ws.NewClient(h.hub, conn, subject)
	client.Enqueue(ws.NewSubscribedMessage(subject))
	if !h.hub.Register(client) {
		_ = conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
