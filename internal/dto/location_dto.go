package dto

// LocationShareRequest shares or replaces the caller's location.
type LocationShareRequest struct {
	Latitude   *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude  *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	Address    *string  `json:"address,omitempty" validate:"omitempty,max=500"`
	Visibility string   `json:"visibility,omitempty" validate:"omitempty,oneof=public friends hostel private"`
}

// LocationUpdateRequest carries the location fields to change.
type LocationUpdateRequest struct {
	Latitude   *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude  *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	Address    *string  `json:"address,omitempty" validate:"omitempty,max=500"`
	Visibility *string  `json:"visibility,omitempty" validate:"omitempty,oneof=public friends hostel private"`
	IsActive   *bool    `json:"is_active,omitempty"`
}

// LocationToggleRequest turns location sharing on or off.
type LocationToggleRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}
