package dto

// BuildingCreateRequest is the payload for pinning a building on the map.
type BuildingCreateRequest struct {
	Name         string  `json:"name" validate:"required,min=1,max=100"`
	Code         *string `json:"code,omitempty" validate:"omitempty,max=20"`
	BuildingType string  `json:"building_type" validate:"required,oneof=academic hostel dining sports administrative recreational library other"`
	Latitude     float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude    float64 `json:"longitude" validate:"min=-180,max=180"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=500"`
	FloorCount   *string `json:"floor_count,omitempty" validate:"omitempty,max=10"`
	Capacity     *string `json:"capacity,omitempty" validate:"omitempty,max=50"`
}

// BuildingUpdateRequest carries the building fields to change.
type BuildingUpdateRequest struct {
	Name         *string  `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Code         *string  `json:"code,omitempty" validate:"omitempty,max=20"`
	BuildingType *string  `json:"building_type,omitempty" validate:"omitempty,oneof=academic hostel dining sports administrative recreational library other"`
	Latitude     *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude    *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	Description  *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	FloorCount   *string  `json:"floor_count,omitempty" validate:"omitempty,max=10"`
	Capacity     *string  `json:"capacity,omitempty" validate:"omitempty,max=50"`
}
