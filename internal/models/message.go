package models

// Message is a chat message posted to a team.
type Message struct {
	ID        string `json:"id"`
	TeamID    string `json:"team_id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"message_created_at"`
}

// MessageItem is a message resolved for a specific reader.
type MessageItem struct {
	Message
	AuthorName string `json:"author_name"`
	Incoming   bool   `json:"incoming"`
}
