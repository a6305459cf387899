package dto

import "time"

// AnnouncementCreateRequest is the payload for publishing an announcement.
type AnnouncementCreateRequest struct {
	Title        string     `json:"title" validate:"required,min=3,max=200"`
	Content      string     `json:"content" validate:"required,min=1,max=5000"`
	Category     string     `json:"category" validate:"required,oneof=general academic event emergency hostel placement club"`
	Priority     string     `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	TargetYear   *int       `json:"target_year,omitempty" validate:"omitempty,min=1,max=5"`
	TargetBranch *string    `json:"target_branch,omitempty" validate:"omitempty,max=100"`
	IsPinned     bool       `json:"is_pinned"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// AnnouncementUpdateRequest carries the fields to change. Nil fields are left as they are.
type AnnouncementUpdateRequest struct {
	Title        *string    `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Content      *string    `json:"content,omitempty" validate:"omitempty,min=1,max=5000"`
	Category     *string    `json:"category,omitempty" validate:"omitempty,oneof=general academic event emergency hostel placement club"`
	Priority     *string    `json:"priority,omitempty" validate:"omitempty,oneof=low normal high urgent"`
	TargetYear   *int       `json:"target_year,omitempty" validate:"omitempty,min=1,max=5"`
	TargetBranch *string    `json:"target_branch,omitempty" validate:"omitempty,max=100"`
	IsPinned     *bool      `json:"is_pinned,omitempty"`
	IsActive     *bool      `json:"is_active,omitempty"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}
