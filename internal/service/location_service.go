package service

import (
	"context"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/geo"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/session"
)

// Nearby search radius bounds in kilometres.
const (
	DefaultNearbyRadiusKm = 5.0
	MaxNearbyRadiusKm     = 100.0
)

// LocationService shares user positions and finds nearby users.
type LocationService interface {
	Mine(ctx context.Context, actor session.Actor) (*models.Location, error)
	Share(ctx context.Context, actor session.Actor, payload dto.LocationShareRequest) (*models.Location, error)
	ShareCurrent(ctx context.Context, actor session.Actor, provider geo.PositionProvider, visibility string) (*models.Location, error)
	Update(ctx context.Context, actor session.Actor, id string, payload dto.LocationUpdateRequest) (*models.Location, error)
	Delete(ctx context.Context, actor session.Actor) error
	Toggle(ctx context.Context, actor session.Actor, active bool) (*models.Location, error)
	Nearby(ctx context.Context, actor session.Actor, radiusKm float64) ([]models.NearbyUser, error)
}

type locationService struct {
	repo      repository.LocationRepository
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewLocationService constructs the location service.
func NewLocationService(repo repository.LocationRepository, validate *validator.Validate, logger zerolog.Logger) LocationService {
	return &locationService{
		repo:      repo,
		validator: validate,
		logger:    componentLogger(logger, "location_service"),
		tracer:    otel.Tracer(tracerPrefix + "location"),
	}
}

func (s *locationService) Mine(ctx context.Context, actor session.Actor) (*models.Location, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	location, err := s.repo.FindByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, apperror.NotFound("no location shared")
	}
	return location, nil
}

// Share replaces the caller's single location record.
func (s *locationService) Share(ctx context.Context, actor session.Actor, payload dto.LocationShareRequest) (*models.Location, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}
	visibility := payload.Visibility
	if visibility == "" {
		visibility = models.VisibilityFriends
	}

	ctx, span := s.tracer.Start(ctx, "locations.share", trace.WithAttributes(
		attribute.String("location.user_id", actor.UserID),
		attribute.String("location.visibility", visibility),
	))
	defer span.End()

	saved, err := s.repo.Upsert(ctx, &models.Location{
		UserID:     actor.UserID,
		UserName:   actor.FullName,
		UserYear:   actor.Year,
		UserBranch: actor.Branch,
		Latitude:   *payload.Latitude,
		Longitude:  *payload.Longitude,
		Address:    trimmed(payload.Address),
		Visibility: visibility,
		IsActive:   true,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return saved, nil
}

// ShareCurrent asks provider for the device position and shares it. Lookup
// failures come back as validation errors carrying the reason.
func (s *locationService) ShareCurrent(ctx context.Context, actor session.Actor, provider geo.PositionProvider, visibility string) (*models.Location, error) {
	if !actor.Authenticated() {
		return nil, apperror.Unauthorized("authentication required")
	}
	point, err := geo.Locate(ctx, provider)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", actor.UserID).Msg("position lookup failed")
		return nil, apperror.Wrap(err, apperror.KindValidation, err.Error())
	}
	return s.Share(ctx, actor, dto.LocationShareRequest{
		Latitude:   &point.Latitude,
		Longitude:  &point.Longitude,
		Visibility: visibility,
	})
}

func (s *locationService) Update(ctx context.Context, actor session.Actor, id string, payload dto.LocationUpdateRequest) (*models.Location, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}
	current, err := s.repo.FindByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if current == nil || current.ID != id {
		return nil, apperror.NotFound("location not found")
	}
	payload.Address = trimmed(payload.Address)
	return s.repo.Update(ctx, id, payload)
}

// Delete stops sharing; the record is kept but deactivated.
func (s *locationService) Delete(ctx context.Context, actor session.Actor) error {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return err
	}
	return s.repo.Deactivate(ctx, actor.UserID)
}

func (s *locationService) Toggle(ctx context.Context, actor session.Actor, active bool) (*models.Location, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.repo.Toggle(ctx, actor.UserID, active)
}

// Nearby lists other visible users within radiusKm, nearest first. Zero
// selects the default radius.
func (s *locationService) Nearby(ctx context.Context, actor session.Actor, radiusKm float64) ([]models.NearbyUser, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if radiusKm == 0 {
		radiusKm = DefaultNearbyRadiusKm
	}
	if math.IsNaN(radiusKm) || radiusKm <= 0 || radiusKm > MaxNearbyRadiusKm {
		return nil, apperror.Validation("max_distance must be greater than 0 and at most %g km", MaxNearbyRadiusKm)
	}

	ctx, span := s.tracer.Start(ctx, "locations.nearby", trace.WithAttributes(
		attribute.String("location.user_id", actor.UserID),
		attribute.Float64("location.radius_km", radiusKm),
	))
	defer span.End()

	users, err := s.repo.Nearby(ctx, actor.UserID, radiusKm)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("location.results", len(users)))
	return users, nil
}
