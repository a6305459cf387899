package models

import "time"

// Chat member roles.
const (
	ChatRoleAdmin  = "admin"
	ChatRoleMember = "member"
)

// ChatGroup is a group conversation.
type ChatGroup struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   *string      `json:"description,omitempty"`
	CreatedBy     string       `json:"created_by"`
	IsActive      bool         `json:"is_active"`
	MemberCount   int          `json:"member_count"`
	LastMessage   *string      `json:"last_message,omitempty"`
	LastMessageAt *time.Time   `json:"last_message_at,omitempty"`
	Members       []ChatMember `json:"members,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// ChatMember is a user's membership of a group.
type ChatMember struct {
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// HasMember reports whether userID belongs to the group.
func (g ChatGroup) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// ChatMessage is an immutable message posted to a group.
type ChatMessage struct {
	ID         string    `json:"id"`
	GroupID    string    `json:"group_id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	UserYear   *int      `json:"user_year,omitempty"`
	UserBranch *string   `json:"user_branch,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
