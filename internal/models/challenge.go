package models

// Challenge is a scorable task any user can create.
type Challenge struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
	Score       int    `json:"score"`
	Author      string `json:"author"`
	Origin      string `json:"origin"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// Assignment links an accepted challenge to a team or a user.
type Assignment struct {
	ID          string `json:"id"`
	ChallengeID string `json:"challenge_id"`
	Assignee    string `json:"assignee"`
	CreatedAt   int64  `json:"created_at"`
}

// ChallengeItem is a challenge as listed inside a section. AssignedAt is
// set for challenges listed under an assignee.
type ChallengeItem struct {
	Challenge
	Assignee   string `json:"assignee,omitempty"`
	AssignedAt int64  `json:"assigned_at,omitempty"`
}

// ChallengeChange is published whenever challenges or assignments change.
type ChallengeChange struct {
	ChallengeID string `json:"challenge_id"`
	Assignee    string `json:"assignee,omitempty"`
	Action      string `json:"action"`
}
