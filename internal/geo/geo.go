package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate pair in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point lies within coordinate bounds.
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Distance returns the great-circle distance between a and b in kilometres.
func Distance(a, b Point) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Position lookup failures.
var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("location unavailable")
	ErrPositionTimeout     = errors.New("location request timed out")
)

// PositionProvider supplies the device's current position on demand.
type PositionProvider interface {
	CurrentPosition(ctx context.Context) (Point, error)
}

// PositionFunc adapts a function to PositionProvider.
type PositionFunc func(ctx context.Context) (Point, error)

func (f PositionFunc) CurrentPosition(ctx context.Context) (Point, error) {
	return f(ctx)
}

// Locate asks the provider for a position and turns every failure into a
// descriptive error wrapping one of the sentinel errors above.
func Locate(ctx context.Context, provider PositionProvider) (Point, error) {
	if provider == nil {
		return Point{}, fmt.Errorf("no position source configured: %w", ErrPositionUnavailable)
	}
	point, err := provider.CurrentPosition(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrPermissionDenied):
		return Point{}, fmt.Errorf("cannot share location, access was denied: %w", err)
	case errors.Is(err, ErrPositionTimeout), errors.Is(err, context.DeadlineExceeded):
		return Point{}, fmt.Errorf("cannot share location, the position lookup timed out: %w", ErrPositionTimeout)
	default:
		return Point{}, fmt.Errorf("cannot share location, position unavailable (%v): %w", err, ErrPositionUnavailable)
	}
	if !point.Valid() {
		return Point{}, fmt.Errorf("cannot share location, coordinates out of range: %w", ErrPositionUnavailable)
	}
	return point, nil
}

// RelationshipChecker decides whether viewer may see a friends-only location of owner.
type RelationshipChecker interface {
	AreFriends(ctx context.Context, viewerID, ownerID string) (bool, error)
}

// AllowAllRelationships treats every pair of users as friends.
type AllowAllRelationships struct{}

func (AllowAllRelationships) AreFriends(context.Context, string, string) (bool, error) {
	return true, nil
}
