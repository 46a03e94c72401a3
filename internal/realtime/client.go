package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nikhil/begreen/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed, large enough for a full chat message
	maxMessageSize = 4096

	sendBufferSize = 256
)

// Envelope is the frame format pushed to clients.
type Envelope struct {
	Type   string `json:"type"`
	TeamID string `json:"team_id,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// Inbound is a frame sent by a client.
type Inbound struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

const (
	inboundMessage = "message"
	envelopeError  = "error"
)

// MessageSender persists chat messages written on a socket.
type MessageSender interface {
	Send(ctx context.Context, user models.Principal, teamID, content string) (*models.Message, error)
}

// Client represents a WebSocket connection
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	// User information
	User   models.Principal
	UserID string
	TeamID string

	messages MessageSender
	joined   chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, user models.Principal, teamID string, messages MessageSender) *Client {
	return &Client{
		Hub:      hub,
		Conn:     conn,
		Send:     make(chan []byte, sendBufferSize),
		User:     user,
		UserID:   user.UserID,
		TeamID:   teamID,
		messages: messages,
		joined:   make(chan struct{}),
	}
}

// ReadPump pumps frames from the WebSocket connection into the message
// service. Messages reach the team through the bus, not directly.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.Leave(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.Log.Warn("Unexpected websocket close", "team_id", c.TeamID, "user_id", c.UserID, "error", err)
			}
			return
		}
		c.handle(ctx, frame)
	}
}

func (c *Client) handle(ctx context.Context, frame []byte) {
	var in Inbound
	if err := json.Unmarshal(frame, &in); err != nil {
		c.reply(Envelope{Type: envelopeError, TeamID: c.TeamID, Data: "malformed frame"})
		return
	}
	if in.Type != inboundMessage {
		c.reply(Envelope{Type: envelopeError, TeamID: c.TeamID, Data: "unsupported frame type"})
		return
	}

	if _, err := c.messages.Send(ctx, c.User, c.TeamID, in.Content); err != nil {
		msg := "failed to send message"
		if errors.Is(err, models.ErrInvalidInput) || errors.Is(err, models.ErrForbidden) {
			msg = err.Error()
		}
		c.reply(Envelope{Type: envelopeError, TeamID: c.TeamID, Data: msg})
	}
}

// reply queues a frame for this client only.
func (c *Client) reply(env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	c.Hub.SendToClient(c, payload)
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
