package handlers

import (
	"context"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/nikhil/begreen/internal/logger"
	"github.com/nikhil/begreen/internal/realtime"
)

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub         *realtime.Hub
	memberships MembershipManager
	messages    realtime.MessageSender
	upgrader    websocket.Upgrader
	Log         *logger.Logger
}

// NewWebSocketHandler creates a new WebSocket handler. An origin list
// containing "*" accepts every origin.
func NewWebSocketHandler(hub *realtime.Hub, memberships MembershipManager, messages realtime.MessageSender, allowedOrigins []string, log *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		memberships: memberships,
		messages:    messages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
		Log: log,
	}
}

// HandleWebSocket handles incoming WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	teamID := r.URL.Query().Get("team_id")
	if teamID == "" {
		respondWithError(w, http.StatusBadRequest, "Team ID is required")
		return
	}
	if _, err := h.memberships.EnsureMember(r.Context(), teamID, user.UserID); err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}

	// Upgrade the HTTP connection to a WebSocket connection
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.WithContext(r.Context()).Warn("Error upgrading connection", "error", err)
		return
	}

	client := realtime.NewClient(h.hub, conn, user, teamID, h.messages)
	if !h.hub.Join(client) {
		conn.Close()
		return
	}

	// Start goroutines for reading and writing messages
	go client.WritePump()
	go client.ReadPump(context.WithoutCancel(r.Context()))
}
