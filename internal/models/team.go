package models

const (
	TeamTypeChat  = "chat"
	TeamTypeGroup = "group"
)

// Naming schemes for chat teams, whose stored name carries no meaning.
const (
	// NamingShort names a chat after the other participant.
	NamingShort = "short"
	// NamingFull names a chat after all participants.
	NamingFull = "full"
)

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Team represents a group or a 1:1 chat
type Team struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	CreatedBy string `json:"created_by"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Membership represents a user's association with a team
type Membership struct {
	ID        string `json:"id"`
	TeamID    string `json:"team_id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	Role      string `json:"role"`
	JoinedAt  int64  `json:"joined_at"`
	InvitedBy string `json:"invited_by,omitempty"`
	// InviteURL is only set on a freshly created membership.
	InviteURL string `json:"invite_url,omitempty"`
}

// CanManage reports whether the membership may change the team.
func (m Membership) CanManage() bool {
	return m.Role == RoleOwner || m.Role == RoleAdmin
}

// TeamItem is one row of the teams overview.
type TeamItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Detail    string `json:"detail"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}
