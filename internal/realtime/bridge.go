package realtime

import (
	"encoding/json"

	"github.com/nikhil/begreen/internal/logger"
	"github.com/nikhil/begreen/internal/models"
	"github.com/nikhil/begreen/internal/observable"
)

// Bridge forwards service events from the bus to connected sockets.
type Bridge struct {
	hub  *Hub
	bus  *observable.Observable
	subs []observable.Subscription
	Log  *logger.Logger
}

func NewBridge(hub *Hub, bus *observable.Observable, log *logger.Logger) *Bridge {
	return &Bridge{hub: hub, bus: bus, Log: log}
}

// Attach subscribes the bridge to every event it forwards.
func (b *Bridge) Attach() {
	teamScoped := []string{
		models.EventMessageCreated,
		models.EventMembershipCreated,
		models.EventMembershipDeleted,
		models.EventTeamUpdated,
		models.EventTeamDeleted,
	}
	for _, eventType := range teamScoped {
		b.subs = append(b.subs, b.bus.AddEventListener(eventType, b.forwardToTeam))
	}

	global := []string{models.EventChallengeChanged, models.EventScoreChanged}
	for _, eventType := range global {
		b.subs = append(b.subs, b.bus.AddEventListener(eventType, b.forwardToAll))
	}
}

// Detach removes all subscriptions made by Attach.
func (b *Bridge) Detach() {
	for _, sub := range b.subs {
		b.bus.RemoveEventListener(sub)
	}
	b.subs = nil
}

func (b *Bridge) forwardToTeam(event observable.Event) {
	teamID, ok := teamOf(event.Data)
	if !ok {
		b.Log.Warn("Event without team", "type", event.Type)
		return
	}

	payload, err := json.Marshal(Envelope{Type: event.Type, TeamID: teamID, Data: event.Data})
	if err != nil {
		b.Log.Error("Failed to encode event", "type", event.Type, "error", err)
		return
	}
	b.hub.BroadcastToTeam(teamID, payload)

	switch event.Type {
	case models.EventTeamDeleted:
		b.hub.Evict(teamID, "")
	case models.EventMembershipDeleted:
		if m, ok := event.Data.(models.Membership); ok {
			b.hub.Evict(teamID, m.UserID)
		}
	}
}

func (b *Bridge) forwardToAll(event observable.Event) {
	payload, err := json.Marshal(Envelope{Type: event.Type, Data: event.Data})
	if err != nil {
		b.Log.Error("Failed to encode event", "type", event.Type, "error", err)
		return
	}
	b.hub.BroadcastAll(payload)
}

func teamOf(data any) (string, bool) {
	switch v := data.(type) {
	case models.MessageItem:
		return v.TeamID, true
	case models.Message:
		return v.TeamID, true
	case models.Membership:
		return v.TeamID, true
	case models.Team:
		return v.ID, true
	default:
		return "", false
	}
}
