package service

import (
	"context"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
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

// Building search radii in metres.
const (
	DefaultBuildingRadiusM = 500.0
	MaxBuildingRadiusM     = 5000.0
	// BuildingMatchRadiusM is how close a shared location must be to count
	// as being at a building.
	BuildingMatchRadiusM = 200.0
)

// BuildingService manages the campus map.
type BuildingService interface {
	List(ctx context.Context, actor session.Actor, filter repository.BuildingFilter) ([]models.Building, error)
	Get(ctx context.Context, actor session.Actor, id string) (*models.Building, error)
	Create(ctx context.Context, actor session.Actor, payload dto.BuildingCreateRequest) (*models.Building, error)
	Update(ctx context.Context, actor session.Actor, id string, payload dto.BuildingUpdateRequest) (*models.Building, error)
	Delete(ctx context.Context, actor session.Actor, id string) error
	Nearest(ctx context.Context, actor session.Actor, point geo.Point) (*models.BuildingDistance, error)
	WithinRadius(ctx context.Context, actor session.Actor, point geo.Point, radiusM float64) ([]models.BuildingDistance, error)
	// AtMyLocation resolves the building the caller's shared location is at.
	AtMyLocation(ctx context.Context, actor session.Actor) (*models.BuildingDistance, error)
}

type buildingService struct {
	repo      repository.BuildingRepository
	locations repository.LocationRepository
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	sanitizer *bluemonday.Policy
}

// NewBuildingService constructs the building service. locations may be nil,
// in which case AtMyLocation reports that no location is shared.
func NewBuildingService(repo repository.BuildingRepository, locations repository.LocationRepository, validate *validator.Validate, logger zerolog.Logger) BuildingService {
	return &buildingService{
		repo:      repo,
		locations: locations,
		validator: validate,
		logger:    componentLogger(logger, "building_service"),
		tracer:    otel.Tracer(tracerPrefix + "building"),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *buildingService) List(ctx context.Context, actor session.Actor, filter repository.BuildingFilter) ([]models.Building, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, filter)
}

func (s *buildingService) Get(ctx context.Context, actor session.Actor, id string) (*models.Building, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	building, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if building == nil {
		return nil, apperror.NotFound("building not found")
	}
	return building, nil
}

func (s *buildingService) Create(ctx context.Context, actor session.Actor, payload dto.BuildingCreateRequest) (*models.Building, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := requireStaff(actor, "edit the campus map"); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}
	name := plainText(s.sanitizer, payload.Name)
	if name == "" {
		return nil, apperror.Validation("name is empty after sanitization")
	}

	created, err := s.repo.Create(ctx, &models.Building{
		Name:         name,
		Code:         trimmed(payload.Code),
		BuildingType: payload.BuildingType,
		Latitude:     payload.Latitude,
		Longitude:    payload.Longitude,
		Description:  s.cleanRef(payload.Description),
		FloorCount:   trimmed(payload.FloorCount),
		Capacity:     trimmed(payload.Capacity),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("building_id", created.ID).Str("actor_id", actor.UserID).Msg("building added to map")
	return created, nil
}

func (s *buildingService) Update(ctx context.Context, actor session.Actor, id string, payload dto.BuildingUpdateRequest) (*models.Building, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := requireStaff(actor, "edit the campus map"); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}
	if payload.Name != nil {
		name := plainText(s.sanitizer, *payload.Name)
		if name == "" {
			return nil, apperror.Validation("name is empty after sanitization")
		}
		payload.Name = &name
	}
	payload.Code = trimmed(payload.Code)
	payload.Description = s.cleanRef(payload.Description)

	updated, err := s.repo.Update(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("building_id", id).Str("actor_id", actor.UserID).Msg("building updated")
	return updated, nil
}

func (s *buildingService) Delete(ctx context.Context, actor session.Actor, id string) error {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return err
	}
	if err := requireStaff(actor, "edit the campus map"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("building_id", id).Str("actor_id", actor.UserID).Msg("building removed from map")
	return nil
}

func (s *buildingService) Nearest(ctx context.Context, actor session.Actor, point geo.Point) (*models.BuildingDistance, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !point.Valid() {
		return nil, apperror.Validation("coordinates out of range")
	}
	ranked, err := s.rank(ctx, point, -1)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, apperror.NotFound("no buildings found")
	}
	return &ranked[0], nil
}

// WithinRadius lists buildings within radiusM of point, closest first. A
// non-positive radius uses DefaultBuildingRadiusM.
func (s *buildingService) WithinRadius(ctx context.Context, actor session.Actor, point geo.Point, radiusM float64) ([]models.BuildingDistance, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !point.Valid() {
		return nil, apperror.Validation("coordinates out of range")
	}
	if radiusM <= 0 {
		radiusM = DefaultBuildingRadiusM
	}
	if radiusM > MaxBuildingRadiusM {
		return nil, apperror.Validation("radius must be at most %.0f metres", MaxBuildingRadiusM)
	}
	return s.rank(ctx, point, radiusM)
}

func (s *buildingService) AtMyLocation(ctx context.Context, actor session.Actor) (*models.BuildingDistance, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	var location *models.Location
	if s.locations != nil {
		if location, err = s.locations.FindByUser(ctx, actor.UserID); err != nil {
			return nil, err
		}
	}
	if location == nil || !location.IsActive {
		return nil, apperror.NotFound("no location shared")
	}
	ranked, err := s.rank(ctx, location.Point(), BuildingMatchRadiusM)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, apperror.NotFound("not near any campus building")
	}
	return &ranked[0], nil
}

// rank annotates buildings with their distance from point and sorts them
// closest first. A negative radius keeps every building.
func (s *buildingService) rank(ctx context.Context, point geo.Point, radiusM float64) ([]models.BuildingDistance, error) {
	ctx, span := s.tracer.Start(ctx, "buildings.rank", trace.WithAttributes(
		attribute.Float64("geo.latitude", point.Latitude),
		attribute.Float64("geo.longitude", point.Longitude),
		attribute.Float64("geo.radius_m", radiusM),
	))
	defer span.End()

	buildings, err := s.repo.List(ctx, repository.BuildingFilter{})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	out := make([]models.BuildingDistance, 0, len(buildings))
	for _, b := range buildings {
		meters := geo.Distance(point, b.Point()) * 1000
		if radiusM >= 0 && meters > radiusM {
			continue
		}
		out = append(out, models.BuildingDistance{Building: b, DistanceMeters: geo.Round(meters, 1)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceMeters < out[j].DistanceMeters })
	span.SetAttributes(attribute.Int("buildings.count", len(out)))
	return out, nil
}

func (s *buildingService) cleanRef(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := plainText(s.sanitizer, *value)
	return trimmed(&cleaned)
}
