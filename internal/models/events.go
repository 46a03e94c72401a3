package models

// Event types published on the service bus.
const (
	EventAuthenticated   = "authenticated"
	EventDeauthenticated = "deauthenticated"

	EventTeamCreated = "team.created"
	EventTeamUpdated = "team.updated"
	EventTeamDeleted = "team.deleted"

	EventMembershipCreated = "membership.created"
	EventMembershipDeleted = "membership.deleted"

	EventChallengeChanged = "challenge.changed"
	EventScoreChanged     = "score.changed"

	EventMessageCreated = "message.created"
)

// Challenge change actions.
const (
	ChallengeCreated  = "created"
	ChallengeAssigned = "assigned"
	ChallengeFinished = "finished"
	ChallengeCanceled = "canceled"
	ChallengeDeleted  = "deleted"
)
