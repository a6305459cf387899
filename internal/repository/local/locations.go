package local

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/geo"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

type locationRepository struct {
	store     *Store
	items     *collection[models.Location]
	relations geo.RelationshipChecker
}

// NewLocationRepository stores locations under mock_locations. A nil checker
// treats every user as a friend.
func NewLocationRepository(store *Store, relations geo.RelationshipChecker) repository.LocationRepository {
	if relations == nil {
		relations = geo.AllowAllRelationships{}
	}
	return &locationRepository{store: store, items: newCollection(store, "locations", seedLocations), relations: relations}
}

func (r *locationRepository) FindByUser(ctx context.Context, userID string) (*models.Location, error) {
	items, err := r.items.all(ctx, "find")
	if err != nil {
		return nil, err
	}
	if i := indexOf(items, func(l models.Location) bool { return l.UserID == userID }); i >= 0 {
		return &items[i], nil
	}
	return nil, nil
}

// Upsert replaces the user's single location record, keeping its id.
func (r *locationRepository) Upsert(ctx context.Context, location *models.Location) (*models.Location, error) {
	saved := *location
	err := r.items.mutate(ctx, "upsert", func(items []models.Location) ([]models.Location, error) {
		saved.IsActive = true
		if i := indexOf(items, func(l models.Location) bool { return l.UserID == saved.UserID }); i >= 0 {
			saved.ID = items[i].ID
			saved.CreatedAt = items[i].CreatedAt
			saved.UpdatedAt = r.store.touch(items[i].UpdatedAt)
			items[i] = saved
			return items, nil
		}
		now := r.store.now()
		saved.ID = uuid.NewString()
		saved.CreatedAt = now
		saved.UpdatedAt = now
		return append(items, saved), nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *locationRepository) Update(ctx context.Context, id string, patch dto.LocationUpdateRequest) (*models.Location, error) {
	return r.modify(ctx, "update", func(l models.Location) bool { return l.ID == id }, func(l *models.Location) {
		setIf(&l.Latitude, patch.Latitude)
		setIf(&l.Longitude, patch.Longitude)
		setRef(&l.Address, patch.Address)
		setIf(&l.Visibility, patch.Visibility)
		setIf(&l.IsActive, patch.IsActive)
	})
}

func (r *locationRepository) Deactivate(ctx context.Context, userID string) error {
	_, err := r.modify(ctx, "deactivate", func(l models.Location) bool { return l.UserID == userID }, func(l *models.Location) {
		l.IsActive = false
	})
	return err
}

func (r *locationRepository) Toggle(ctx context.Context, userID string, active bool) (*models.Location, error) {
	return r.modify(ctx, "toggle", func(l models.Location) bool { return l.UserID == userID }, func(l *models.Location) {
		l.IsActive = active
	})
}

// Nearby lists other users' active locations within maxDistanceKm of the
// user's own active location, closest first. Only public locations and
// friends' locations qualify.
func (r *locationRepository) Nearby(ctx context.Context, userID string, maxDistanceKm float64) ([]models.NearbyUser, error) {
	items, err := r.items.all(ctx, "nearby")
	if err != nil {
		return nil, err
	}
	i := indexOf(items, func(l models.Location) bool { return l.UserID == userID && l.IsActive })
	if i < 0 {
		return []models.NearbyUser{}, nil
	}
	origin := items[i].Point()

	out := make([]models.NearbyUser, 0)
	for _, l := range items {
		if l.UserID == userID || !l.IsActive {
			continue
		}
		visible, err := r.visible(ctx, userID, l)
		if err != nil {
			return nil, err
		}
		if !visible {
			continue
		}
		distance := geo.Distance(origin, l.Point())
		if distance > maxDistanceKm {
			continue
		}
		out = append(out, models.NearbyFrom(l, distance))
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].DistanceKm < out[b].DistanceKm })
	return out, nil
}

func (r *locationRepository) visible(ctx context.Context, viewerID string, l models.Location) (bool, error) {
	switch l.Visibility {
	case models.VisibilityPublic:
		return true, nil
	case models.VisibilityFriends:
		return r.relations.AreFriends(ctx, viewerID, l.UserID)
	default:
		return false, nil
	}
}

func (r *locationRepository) modify(ctx context.Context, action string, match func(models.Location) bool, fn func(*models.Location)) (*models.Location, error) {
	var updated models.Location
	err := r.items.mutate(ctx, action, func(items []models.Location) ([]models.Location, error) {
		i := indexOf(items, match)
		if i < 0 {
			return nil, apperror.NotFound("location not found")
		}
		fn(&items[i])
		items[i].UpdatedAt = r.store.touch(items[i].UpdatedAt)
		updated = items[i]
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
