package dto

import "time"

// ChallengeCreateRequest is the payload for creating a challenge.
type ChallengeCreateRequest struct {
	Title              string    `json:"title" validate:"required,min=1,max=200"`
	Description        string    `json:"description" validate:"required,min=1"`
	ChallengeType      string    `json:"challenge_type" validate:"required,oneof=fitness academic social creative environmental wellness"`
	Difficulty         string    `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Points             int       `json:"points" validate:"min=0,max=1000"`
	StartDate          time.Time `json:"start_date" validate:"required"`
	EndDate            time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	MaxParticipants    *int      `json:"max_participants,omitempty" validate:"omitempty,min=1"`
	CompletionPassword string    `json:"completion_password" validate:"required,min=1,max=100"`
}

// ChallengeUpdateRequest carries the challenge fields to change.
type ChallengeUpdateRequest struct {
	Title              *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description        *string    `json:"description,omitempty" validate:"omitempty,min=1"`
	ChallengeType      *string    `json:"challenge_type,omitempty" validate:"omitempty,oneof=fitness academic social creative environmental wellness"`
	Difficulty         *string    `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
	Points             *int       `json:"points,omitempty" validate:"omitempty,min=0,max=1000"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	MaxParticipants    *int       `json:"max_participants,omitempty" validate:"omitempty,min=1"`
	CompletionPassword *string    `json:"completion_password,omitempty" validate:"omitempty,min=1,max=100"`
	IsActive           *bool      `json:"is_active,omitempty"`
}
