package remote

import (
	"context"
	"net/http"
	"strconv"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/session"
)

type locationRepository struct {
	client *Client
}

// NewLocationRepository reads and writes /locations. The upstream only
// exposes the caller's own record, so userID arguments must name the caller.
func NewLocationRepository(client *Client) repository.LocationRepository {
	return &locationRepository{client: client}
}

func (r *locationRepository) FindByUser(ctx context.Context, userID string) (*models.Location, error) {
	if err := callerOnly(ctx, userID); err != nil {
		return nil, err
	}
	return find[models.Location](ctx, r.client, "/locations/me", failed("load location"))
}

func (r *locationRepository) Upsert(ctx context.Context, location *models.Location) (*models.Location, error) {
	if err := callerOnly(ctx, location.UserID); err != nil {
		return nil, err
	}
	lat, lng := location.Latitude, location.Longitude
	body := dto.LocationShareRequest{
		Latitude:   &lat,
		Longitude:  &lng,
		Address:    location.Address,
		Visibility: location.Visibility,
	}
	return submit[models.Location](ctx, r.client, http.MethodPost, "/locations/", body, failed("share location"))
}

func (r *locationRepository) Update(ctx context.Context, id string, patch dto.LocationUpdateRequest) (*models.Location, error) {
	return submit[models.Location](ctx, r.client, http.MethodPut, "/locations/"+segment(id), patch, failed("update location"))
}

func (r *locationRepository) Deactivate(ctx context.Context, userID string) error {
	if err := callerOnly(ctx, userID); err != nil {
		return err
	}
	return exec(ctx, r.client, http.MethodDelete, "/locations/me", nil, failed("stop sharing location"))
}

func (r *locationRepository) Toggle(ctx context.Context, userID string, active bool) (*models.Location, error) {
	if err := callerOnly(ctx, userID); err != nil {
		return nil, err
	}
	body := dto.LocationToggleRequest{IsActive: &active}
	return submit[models.Location](ctx, r.client, http.MethodPost, "/locations/toggle", body, failed("toggle location sharing"))
}

func (r *locationRepository) Nearby(ctx context.Context, userID string, maxDistanceKm float64) ([]models.NearbyUser, error) {
	if err := callerOnly(ctx, userID); err != nil {
		return nil, err
	}
	params := queryOf("max_distance", strconv.FormatFloat(maxDistanceKm, 'f', -1, 64))
	return list[models.NearbyUser](ctx, r.client, "/locations/nearby", params, failed("load nearby users"))
}

// callerOnly rejects access to another user's location record.
func callerOnly(ctx context.Context, userID string) error {
	actor, ok := session.FromContext(ctx)
	if !ok || userID == "" || actor.UserID == userID {
		return nil
	}
	return notUpstream("other users' locations")
}
