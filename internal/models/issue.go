package models

import "time"

// Issue categories.
const (
	IssueCategoryInfrastructure = "infrastructure"
	IssueCategoryAcademics      = "academics"
	IssueCategoryHostel         = "hostel"
	IssueCategoryMess           = "mess"
	IssueCategoryInternet       = "internet"
	IssueCategorySecurity       = "security"
	IssueCategorySports         = "sports"
	IssueCategoryOther          = "other"
)

// Issue priorities.
const (
	IssuePriorityLow      = "low"
	IssuePriorityMedium   = "medium"
	IssuePriorityHigh     = "high"
	IssuePriorityCritical = "critical"
)

// Issue statuses.
const (
	IssueStatusOpen       = "open"
	IssueStatusInProgress = "in_progress"
	IssueStatusResolved   = "resolved"
	IssueStatusClosed     = "closed"
)

// Issue is a problem reported on campus.
type Issue struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	Location       *string    `json:"location,omitempty"`
	ReporterID     string     `json:"reporter_id"`
	ReporterName   string     `json:"reporter_name"`
	AssignedTo     *string    `json:"assigned_to,omitempty"`
	AssignedToName *string    `json:"assigned_to_name,omitempty"`
	ImageURL       *string    `json:"image_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// SetStatus changes the status. resolved_at is stamped on the first move to
// resolved and is never cleared afterwards.
func (i *Issue) SetStatus(status string, now time.Time) {
	i.Status = status
	if status == IssueStatusResolved && i.ResolvedAt == nil {
		resolved := now
		i.ResolvedAt = &resolved
	}
	i.UpdatedAt = now
}
