package models

// User is an account able to join teams.
type User struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Password  string `json:"password,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Email  string
	Name   string
}
