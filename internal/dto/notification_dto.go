package dto

// NotificationCreateRequest describes a notification raised by another service.
type NotificationCreateRequest struct {
	UserID      string  `json:"user_id" validate:"required,max=64"`
	Type        string  `json:"type" validate:"required,oneof=announcement message issue team challenge mess_review system"`
	Title       string  `json:"title" validate:"required,max=200"`
	Message     string  `json:"message" validate:"required,max=2000"`
	Link        *string `json:"link,omitempty" validate:"omitempty,max=500"`
	ReferenceID *string `json:"reference_id,omitempty" validate:"omitempty,max=64"`
}
