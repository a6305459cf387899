package dto

// IssueCreateRequest is the payload for reporting an issue.
type IssueCreateRequest struct {
	Title       string  `json:"title" validate:"required,min=3,max=200"`
	Description string  `json:"description" validate:"required,min=5,max=5000"`
	Category    string  `json:"category" validate:"required,oneof=infrastructure academics hostel mess internet security sports other"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Location    *string `json:"location,omitempty" validate:"omitempty,max=255"`
}

// IssueUpdateRequest carries the issue fields to change.
type IssueUpdateRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,min=5,max=5000"`
	Category    *string `json:"category,omitempty" validate:"omitempty,oneof=infrastructure academics hostel mess internet security sports other"`
	Priority    *string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=open in_progress resolved closed"`
	Location    *string `json:"location,omitempty" validate:"omitempty,max=255"`
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty,uri,max=1000"`
}

// IssueStatusRequest changes an issue's status.
type IssueStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}
