package models

import "time"

// Announcement categories.
const (
	AnnouncementCategoryGeneral   = "general"
	AnnouncementCategoryAcademic  = "academic"
	AnnouncementCategoryEvent     = "event"
	AnnouncementCategoryEmergency = "emergency"
	AnnouncementCategoryHostel    = "hostel"
	AnnouncementCategoryPlacement = "placement"
	AnnouncementCategoryClub      = "club"
)

// Announcement priorities.
const (
	AnnouncementPriorityLow    = "low"
	AnnouncementPriorityNormal = "normal"
	AnnouncementPriorityHigh   = "high"
	AnnouncementPriorityUrgent = "urgent"
)

// Announcement is a campus-wide notice.
type Announcement struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Category     string     `json:"category"`
	Priority     string     `json:"priority"`
	AuthorID     string     `json:"author_id"`
	AuthorName   string     `json:"author_name"`
	TargetYear   *int       `json:"target_year"`
	TargetBranch *string    `json:"target_branch"`
	IsPinned     bool       `json:"is_pinned"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// VisibleAt reports whether the announcement is published at the given instant.
func (a Announcement) VisibleAt(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.ScheduledAt != nil && a.ScheduledAt.After(now) {
		return false
	}
	if a.ExpiresAt != nil && !a.ExpiresAt.After(now) {
		return false
	}
	return true
}
