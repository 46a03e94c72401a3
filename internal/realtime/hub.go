package realtime

import (
	"context"
	"sync"

	"github.com/nikhil/begreen/internal/logger"
)

// Hub maintains the set of active clients and routes envelopes to the
// clients of a team or to everybody.
type Hub struct {
	// Registered clients.
	Clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Team-based message routing: team id -> user id -> connections
	TeamChannels map[string]map[string][]*Client

	// closed when Run returns
	done chan struct{}

	// Mutex for thread-safe operations
	mu sync.RWMutex

	Log *logger.Logger
}

// NewHub creates a new Hub instance
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		Register:     make(chan *Client),
		Unregister:   make(chan *Client),
		Clients:      make(map[*Client]bool),
		TeamChannels: make(map[string]map[string][]*Client),
		done:         make(chan struct{}),
		Log:          log,
	}
}

// Run starts the hub's connection handling and blocks until ctx is done.
// All remaining clients are closed on the way out.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.Clients {
				h.removeLocked(client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Join registers client and waits until it receives broadcasts. It
// returns false when the hub has shut down.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
	case <-h.done:
		return false
	}

	select {
	case <-client.joined:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters client unless the hub has shut down.
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.Clients[client] = true

	// Initialize maps if they don't exist
	users, exists := h.TeamChannels[client.TeamID]
	if !exists {
		users = make(map[string][]*Client)
		h.TeamChannels[client.TeamID] = users
	}
	users[client.UserID] = append(users[client.UserID], client)
	close(client.joined)

	h.Log.Debug("Client connected", "team_id", client.TeamID, "user_id", client.UserID, "clients", len(h.Clients))
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(client)
}

// removeLocked drops client from all indexes and closes its send channel.
// Calling it for a client that is already gone is a no-op.
func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.Clients[client]; !ok {
		return
	}
	delete(h.Clients, client)

	if users, exists := h.TeamChannels[client.TeamID]; exists {
		clients := users[client.UserID]
		for i, c := range clients {
			if c == client {
				users[client.UserID] = append(clients[:i:i], clients[i+1:]...)
				break
			}
		}

		// If the slice is empty, remove the user entry
		if len(users[client.UserID]) == 0 {
			delete(users, client.UserID)
		}
		// If no connections left, remove the team entry
		if len(users) == 0 {
			delete(h.TeamChannels, client.TeamID)
		}
	}

	close(client.Send)
	h.Log.Debug("Client disconnected", "team_id", client.TeamID, "user_id", client.UserID, "clients", len(h.Clients))
}

// BroadcastToTeam sends a message to all clients in a specific team and
// returns the number of clients reached.
func (h *Hub) BroadcastToTeam(teamID string, message []byte) int {
	h.mu.RLock()
	var targets []*Client
	for _, clients := range h.TeamChannels[teamID] {
		targets = append(targets, clients...)
	}
	sent, slow := deliver(targets, message)
	h.mu.RUnlock()

	h.drop(slow)
	return sent
}

// BroadcastAll sends a message to every connected client.
func (h *Hub) BroadcastAll(message []byte) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.Clients))
	for client := range h.Clients {
		targets = append(targets, client)
	}
	sent, slow := deliver(targets, message)
	h.mu.RUnlock()

	h.drop(slow)
	return sent
}

// Evict disconnects the clients of userID in teamID, or of the whole team
// when userID is empty.
func (h *Hub) Evict(teamID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var targets []*Client
	for uid, clients := range h.TeamChannels[teamID] {
		if userID == "" || uid == userID {
			targets = append(targets, clients...)
		}
	}
	for _, client := range targets {
		h.removeLocked(client)
	}
}

// GetUserConnections returns all active connections for a user in a team
func (h *Hub) GetUserConnections(teamID string, userID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.TeamChannels[teamID][userID]
	out := make([]*Client, len(clients))
	copy(out, clients)
	return out
}

// IsUserConnected checks if a user has any active connections in a team
func (h *Hub) IsUserConnected(teamID string, userID string) bool {
	return len(h.GetUserConnections(teamID, userID)) > 0
}

// SendMessageToUser sends a message to all connections of a user in a team
func (h *Hub) SendMessageToUser(teamID string, userID string, message []byte) bool {
	h.mu.RLock()
	sent, slow := deliver(h.TeamChannels[teamID][userID], message)
	h.mu.RUnlock()

	h.drop(slow)
	return sent > 0
}

// SendToClient queues a message for a single registered client.
func (h *Hub) SendToClient(client *Client, message []byte) bool {
	h.mu.RLock()
	var sent int
	var slow []*Client
	if h.Clients[client] {
		sent, slow = deliver([]*Client{client}, message)
	}
	h.mu.RUnlock()

	h.drop(slow)
	return sent > 0
}

// deliver must be called with at least the read lock held, which keeps
// send channels open while writing to them.
func deliver(clients []*Client, message []byte) (int, []*Client) {
	sent := 0
	var slow []*Client
	for _, client := range clients {
		select {
		case client.Send <- message:
			sent++
		default:
			slow = append(slow, client)
		}
	}
	return sent, slow
}

// drop disconnects clients whose send buffer is full.
func (h *Hub) drop(clients []*Client) {
	if len(clients) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range clients {
		h.Log.Warn("Dropping slow client", "team_id", client.TeamID, "user_id", client.UserID)
		h.removeLocked(client)
	}
}
