package remote

import (
	"context"
	"net/http"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

// buildingPageSize covers the whole campus in one page; the upstream
// defaults to 100.
const buildingPageSize = "1000"

type buildingRepository struct {
	client *Client
}

// NewBuildingRepository reads and writes /buildings.
func NewBuildingRepository(client *Client) repository.BuildingRepository {
	return &buildingRepository{client: client}
}

func buildingPath(id string) string {
	return "/buildings/" + segment(id)
}

// List filters client-side; the upstream only pages.
func (r *buildingRepository) List(ctx context.Context, filter repository.BuildingFilter) ([]models.Building, error) {
	items, err := list[models.Building](ctx, r.client, "/buildings/", queryOf("limit", buildingPageSize), failed("load buildings"))
	if err != nil {
		return nil, err
	}
	return keep(items, func(b models.Building) bool {
		code := ""
		if b.Code != nil {
			code = *b.Code
		}
		return matches(filter.Type, b.BuildingType) && containsFold(filter.Search, b.Name, code)
	}), nil
}

func (r *buildingRepository) FindByID(ctx context.Context, id string) (*models.Building, error) {
	return find[models.Building](ctx, r.client, buildingPath(id), failed("load building"))
}

func (r *buildingRepository) Create(ctx context.Context, building *models.Building) (*models.Building, error) {
	body := dto.BuildingCreateRequest{
		Name:         building.Name,
		Code:         building.Code,
		BuildingType: building.BuildingType,
		Latitude:     building.Latitude,
		Longitude:    building.Longitude,
		Description:  building.Description,
		FloorCount:   building.FloorCount,
		Capacity:     building.Capacity,
	}
	return submit[models.Building](ctx, r.client, http.MethodPost, "/buildings/", body, failed("create building"))
}

func (r *buildingRepository) Update(ctx context.Context, id string, patch dto.BuildingUpdateRequest) (*models.Building, error) {
	return submit[models.Building](ctx, r.client, http.MethodPut, buildingPath(id), patch, failed("update building"))
}

func (r *buildingRepository) Delete(ctx context.Context, id string) error {
	return exec(ctx, r.client, http.MethodDelete, buildingPath(id), nil, failed("delete building"))
}
