package models

import (
	"strings"
	"time"

	"github.com/noah-isme/plaksha-connect/internal/geo"
)

// Building types.
const (
	BuildingAcademic       = "academic"
	BuildingHostel         = "hostel"
	BuildingDining         = "dining"
	BuildingSports         = "sports"
	BuildingAdministrative = "administrative"
	BuildingRecreational   = "recreational"
	BuildingLibrary        = "library"
	BuildingOther          = "other"
)

// Building is a pinned place on the campus map.
type Building struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Code         *string   `json:"code,omitempty"`
	BuildingType string    `json:"building_type"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Description  *string   `json:"description,omitempty"`
	FloorCount   *string   `json:"floor_count,omitempty"`
	Capacity     *string   `json:"capacity,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Point returns the building's coordinates.
func (b Building) Point() geo.Point {
	return geo.Point{Latitude: b.Latitude, Longitude: b.Longitude}
}

// SameIdentity reports whether b and other clash on name or code. Both are
// unique across the campus, compared case-insensitively.
func (b Building) SameIdentity(other Building) bool {
	if strings.EqualFold(b.Name, other.Name) {
		return true
	}
	return b.Code != nil && other.Code != nil && strings.EqualFold(*b.Code, *other.Code)
}

// BuildingDistance is a building annotated with its distance from a point.
type BuildingDistance struct {
	Building
	DistanceMeters float64 `json:"distance_meters"`
}
