package local

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

type buildingRepository struct {
	items *collection[models.Building]
}

// NewBuildingRepository stores the campus map under mock_buildings.
func NewBuildingRepository(store *Store) repository.BuildingRepository {
	return &buildingRepository{items: newCollection(store, "buildings", seedBuildings)}
}

// List returns buildings ordered by name.
func (r *buildingRepository) List(ctx context.Context, filter repository.BuildingFilter) ([]models.Building, error) {
	items, err := r.items.all(ctx, "list")
	if err != nil {
		return nil, err
	}
	out := filterItems(items, func(b models.Building) bool {
		code := ""
		if b.Code != nil {
			code = *b.Code
		}
		return matches(filter.Type, b.BuildingType) && containsFold(filter.Search, b.Name, code)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *buildingRepository) FindByID(ctx context.Context, id string) (*models.Building, error) {
	items, err := r.items.all(ctx, "find")
	if err != nil {
		return nil, err
	}
	if i := indexOf(items, func(b models.Building) bool { return b.ID == id }); i >= 0 {
		return &items[i], nil
	}
	return nil, nil
}

func (r *buildingRepository) Create(ctx context.Context, building *models.Building) (*models.Building, error) {
	created := *building
	err := r.items.mutate(ctx, "create", func(items []models.Building) ([]models.Building, error) {
		if indexOf(items, created.SameIdentity) >= 0 {
			return nil, apperror.Conflict("a building named %q or coded the same already exists", created.Name)
		}
		now := r.items.store.now()
		created.ID = uuid.NewString()
		created.CreatedAt = now
		created.UpdatedAt = now
		return append(items, created), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *buildingRepository) Update(ctx context.Context, id string, patch dto.BuildingUpdateRequest) (*models.Building, error) {
	var updated models.Building
	err := r.items.mutate(ctx, "update", func(items []models.Building) ([]models.Building, error) {
		i := indexOf(items, func(b models.Building) bool { return b.ID == id })
		if i < 0 {
			return nil, apperror.NotFound("building not found")
		}
		next := items[i]
		setIf(&next.Name, patch.Name)
		setRef(&next.Code, patch.Code)
		setIf(&next.BuildingType, patch.BuildingType)
		setIf(&next.Latitude, patch.Latitude)
		setIf(&next.Longitude, patch.Longitude)
		setRef(&next.Description, patch.Description)
		setRef(&next.FloorCount, patch.FloorCount)
		setRef(&next.Capacity, patch.Capacity)
		for j, other := range items {
			if j != i && next.SameIdentity(other) {
				return nil, apperror.Conflict("a building named %q or coded the same already exists", next.Name)
			}
		}
		next.UpdatedAt = r.items.store.touch(next.UpdatedAt)
		items[i] = next
		updated = next
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *buildingRepository) Delete(ctx context.Context, id string) error {
	return r.items.mutate(ctx, "delete", func(items []models.Building) ([]models.Building, error) {
		return filterItems(items, func(b models.Building) bool { return b.ID != id }), nil
	})
}
