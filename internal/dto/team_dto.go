package dto

// TeamCreateRequest is the payload for forming a team.
type TeamCreateRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=100"`
	Description string   `json:"description" validate:"required,min=1,max=1000"`
	Category    string   `json:"category" validate:"required,oneof=project competition study sports club hackathon other"`
	MaxMembers  int      `json:"max_members" validate:"omitempty,min=2,max=50"`
	IsPublic    *bool    `json:"is_public,omitempty"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
}

// TeamUpdateRequest carries the team fields to change.
type TeamUpdateRequest struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string   `json:"description,omitempty" validate:"omitempty,min=1,max=1000"`
	Category    *string   `json:"category,omitempty" validate:"omitempty,oneof=project competition study sports club hackathon other"`
	MaxMembers  *int      `json:"max_members,omitempty" validate:"omitempty,min=2,max=50"`
	IsPublic    *bool     `json:"is_public,omitempty"`
	Status      *string   `json:"status,omitempty" validate:"omitempty,oneof=active completed archived"`
	Tags        *[]string `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
}

// TeamJoinRequest is an optional note sent with a request to join.
type TeamJoinRequest struct {
	Message *string `json:"message,omitempty" validate:"omitempty,max=500"`
}
