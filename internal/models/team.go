package models

import "time"

// Team categories.
const (
	TeamCategoryProject     = "project"
	TeamCategoryCompetition = "competition"
	TeamCategoryStudy       = "study"
	TeamCategorySports      = "sports"
	TeamCategoryClub        = "club"
	TeamCategoryHackathon   = "hackathon"
	TeamCategoryOther       = "other"
)

// Team statuses.
const (
	TeamStatusActive    = "active"
	TeamStatusCompleted = "completed"
	TeamStatusArchived  = "archived"
)

// Team member roles.
const (
	TeamRoleLeader = "leader"
	TeamRoleMember = "member"
)

// Join request statuses.
const (
	JoinRequestPending  = "pending"
	JoinRequestApproved = "approved"
	JoinRequestRejected = "rejected"
)

// Team is a student group formed around a project or activity.
type Team struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Category       string       `json:"category"`
	Status         string       `json:"status"`
	MaxMembers     int          `json:"max_members"`
	CurrentMembers int          `json:"current_members"`
	IsPublic       bool         `json:"is_public"`
	Tags           []string     `json:"tags,omitempty"`
	LeaderID       string       `json:"leader_id"`
	LeaderName     string       `json:"leader_name"`
	Members        []TeamMember `json:"members,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// TeamMember is a user on a team.
type TeamMember struct {
	UserID   string    `json:"user_id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// IsMember reports whether userID leads or belongs to the team.
func (t Team) IsMember(userID string) bool {
	if t.LeaderID == userID {
		return true
	}
	for _, m := range t.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// Full reports whether the team has reached its member limit.
func (t Team) Full() bool {
	return t.MaxMembers > 0 && t.CurrentMembers >= t.MaxMembers
}

// JoinRequest asks a team leader for membership.
type JoinRequest struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	TeamName  string    `json:"team_name"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	UserEmail string    `json:"user_email,omitempty"`
	Status    string    `json:"status"`
	Message   *string   `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
