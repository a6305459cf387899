package models

import (
	"time"

	"github.com/noah-isme/plaksha-connect/internal/geo"
)

// Location visibility levels.
const (
	VisibilityPublic  = "public"
	VisibilityFriends = "friends"
	VisibilityHostel  = "hostel"
	VisibilityPrivate = "private"
)

// Location is a user's shared position. A user has at most one.
type Location struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name,omitempty"`
	UserYear   *int      `json:"user_year,omitempty"`
	UserBranch *string   `json:"user_branch,omitempty"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Address    *string   `json:"address,omitempty"`
	Visibility string    `json:"visibility"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Point returns the location's coordinates.
func (l Location) Point() geo.Point {
	return geo.Point{Latitude: l.Latitude, Longitude: l.Longitude}
}

// NearbyUser is another user's location annotated with its distance.
type NearbyUser struct {
	UserID     string    `json:"user_id"`
	FullName   string    `json:"full_name"`
	Year       *int      `json:"year,omitempty"`
	Branch     *string   `json:"branch,omitempty"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Address    *string   `json:"address,omitempty"`
	DistanceKm float64   `json:"distance_km"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NearbyFrom builds the nearby view of l at the given distance.
func NearbyFrom(l Location, distanceKm float64) NearbyUser {
	return NearbyUser{
		UserID:     l.UserID,
		FullName:   l.UserName,
		Year:       l.UserYear,
		Branch:     l.UserBranch,
		Latitude:   l.Latitude,
		Longitude:  l.Longitude,
		Address:    l.Address,
		DistanceKm: geo.Round(distanceKm, 2),
		UpdatedAt:  l.UpdatedAt,
	}
}
