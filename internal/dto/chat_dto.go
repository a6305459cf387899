package dto

// ChatGroupCreateRequest is the payload for creating a group.
type ChatGroupCreateRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=255"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=1000"`
	MemberIDs   []string `json:"member_ids,omitempty" validate:"omitempty,dive,required,max=64"`
}

// ChatGroupUpdateRequest carries the group fields to change.
type ChatGroupUpdateRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// ChatMembersRequest lists users to add to a group.
type ChatMembersRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,dive,required,max=64"`
}

// ChatMessageRequest is the payload for posting a message.
type ChatMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}
