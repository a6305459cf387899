package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
)

func TestBuildingHandler_MapLookups(t *testing.T) {
	srv := newTestServer(t)
	student := srv.token(t, devActor)

	resp := srv.call(t, http.MethodGet, "/api/buildings", nil, student)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decodeData[[]models.Building](t, resp), 14)

	resp = srv.call(t, http.MethodGet, "/api/buildings?type=hostel", nil, student)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	hostels := decodeData[[]models.Building](t, resp)
	require.Len(t, hostels, 4)
	for _, b := range hostels {
		require.Equal(t, models.BuildingHostel, b.BuildingType)
	}

	resp = srv.call(t, http.MethodGet, "/api/buildings/nearest/30.7333/76.7794", nil, student)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	nearest := decodeData[models.BuildingDistance](t, resp)
	require.Equal(t, "Mess Hall", nearest.Name)
	require.Zero(t, nearest.DistanceMeters)

	resp = srv.call(t, http.MethodGet, "/api/buildings/radius/30.7333/76.7794?radius=50", nil, student)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	inRadius := decodeData[[]models.BuildingDistance](t, resp)
	require.NotEmpty(t, inRadius)
	require.Less(t, len(inRadius), 14)
	require.Equal(t, "Mess Hall", inRadius[0].Name)
	for i, b := range inRadius {
		require.LessOrEqual(t, b.DistanceMeters, 50.0)
		if i > 0 {
			require.GreaterOrEqual(t, b.DistanceMeters, inRadius[i-1].DistanceMeters)
		}
	}

	// The development user's seeded location sits on the campus centre.
	resp = srv.call(t, http.MethodGet, "/api/buildings/here", nil, student)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Mess Hall", decodeData[models.BuildingDistance](t, resp).Name)

	resp = srv.call(t, http.MethodGet, "/api/buildings/nearest/north/76.7794", nil, student)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = srv.call(t, http.MethodGet, "/api/buildings/nearest/95/76.7794", nil, student)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp = srv.call(t, http.MethodGet, "/api/buildings/radius/30.7333/76.7794?radius=50000", nil, student)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestBuildingHandler_StaffEditsMap(t *testing.T) {
	srv := newTestServer(t)
	student := srv.token(t, devActor)
	admin := srv.token(t, adminActor)

	code := "MKR"
	payload := dto.BuildingCreateRequest{
		Name:         "Makerspace",
		Code:         &code,
		BuildingType: models.BuildingAcademic,
		Latitude:     30.7329,
		Longitude:    76.7801,
	}
	resp := srv.call(t, http.MethodPost, "/api/buildings", payload, student)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = srv.call(t, http.MethodPost, "/api/buildings", payload, admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeData[models.Building](t, resp)
	require.NotEmpty(t, created.ID)

	resp = srv.call(t, http.MethodPost, "/api/buildings", payload, admin)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	capacity := "40"
	resp = srv.call(t, http.MethodPut, "/api/buildings/"+created.ID, dto.BuildingUpdateRequest{Capacity: &capacity}, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeData[models.Building](t, resp)
	require.Equal(t, "40", *updated.Capacity)
	require.Equal(t, "Makerspace", updated.Name)
	require.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	clash := "Gym"
	resp = srv.call(t, http.MethodPut, "/api/buildings/"+created.ID, dto.BuildingUpdateRequest{Name: &clash}, admin)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = srv.call(t, http.MethodGet, "/api/buildings/"+created.ID, nil, student)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.call(t, http.MethodDelete, "/api/buildings/"+created.ID, nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = srv.call(t, http.MethodGet, "/api/buildings/"+created.ID, nil, student)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
