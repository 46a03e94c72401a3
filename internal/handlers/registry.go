package handlers

// Registry bundles the handlers mounted by the route modules.
type Registry struct {
	Auth        *AuthHandler
	Profile     *ProfileHandler
	Teams       *TeamHandler
	Memberships *MembershipHandler
	Messages    *MessageHandler
	Challenges  *ChallengeHandler
	Leaderboard *LeaderboardHandler
	Health      *HealthHandler
	WebSocket   *WebSocketHandler
}
