package models

// Preview aggregates the score and the last message of a team or user.
// Its ID is the id of the team or user it belongs to.
type Preview struct {
	ID        string `json:"id"`
	Score     int    `json:"score"`
	MessageID string `json:"message_id,omitempty"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type LeaderboardEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Rank      int    `json:"rank"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}
