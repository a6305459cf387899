package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
)

func TestIssueHandler_ReportAndTriage(t *testing.T) {
	srv := newTestServer(t)
	student := srv.token(t, devActor)
	admin := srv.token(t, adminActor)

	resp := srv.call(t, http.MethodPost, "/api/issues", dto.IssueCreateRequest{
		Title:       "Leaking tap",
		Description: "Tap in washroom 3 keeps dripping",
		Category:    models.IssueCategoryHostel,
	}, student)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeData[models.Issue](t, resp)
	require.Equal(t, devActor.UserID, created.ReporterID)
	require.Equal(t, models.IssueStatusOpen, created.Status)

	resp = srv.call(t, http.MethodGet, "/api/issues?my_issues=true", nil, student)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	mine := decodeData[[]models.Issue](t, resp)
	require.Len(t, mine, 1)
	require.Equal(t, created.ID, mine[0].ID)

	statusPath := "/api/issues/" + created.ID + "/status"
	resp = srv.call(t, http.MethodPatch, statusPath, dto.IssueStatusRequest{Status: models.IssueStatusResolved}, student)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = srv.call(t, http.MethodPatch, statusPath, dto.IssueStatusRequest{Status: models.IssueStatusResolved}, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resolved := decodeData[models.Issue](t, resp)
	require.NotNil(t, resolved.ResolvedAt)

	resp = srv.call(t, http.MethodPatch, "/api/issues/"+created.ID+"/assign/admin-1", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Campus Admin", *decodeData[models.Issue](t, resp).AssignedToName)

	resp = srv.call(t, http.MethodGet, "/api/issues/missing", nil, student)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	var failure envelope[any]
	decodeResponse(t, resp, &failure)
	require.False(t, failure.Success)
	require.Equal(t, "not_found", failure.Kind)

	resp = srv.call(t, http.MethodGet, "/api/issues?my_issues=maybe", nil, student)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadHandler_IssueImageOnlyForReporter(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.upload(t, "/api/uploads/issues/issue-1", "ac.png", pngBytes(), srv.token(t, devActor))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = srv.upload(t, "/api/uploads/issues/issue-1", "ac.png", pngBytes(), srv.token(t, aliceActor))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body envelope[struct {
		Upload dto.UploadResponse `json:"upload"`
		Issue  models.Issue       `json:"issue"`
	}]
	decodeResponse(t, resp, &body)
	require.True(t, strings.HasPrefix(body.Data.Upload.URL, "/uploads/issue/user-1-ac-"))
	require.Equal(t, body.Data.Upload.URL, *body.Data.Issue.ImageURL)

	stored := filepath.Join(srv.uploadDir, filepath.FromSlash(strings.TrimPrefix(body.Data.Upload.URL, "/uploads/")))
	_, err := os.Stat(stored)
	require.NoError(t, err)
}

func TestUploadHandler_AvatarUpdatesProfile(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token(t, devActor)

	resp := srv.upload(t, "/api/uploads/avatar", "notes.txt", []byte("plain text, not an image"), token)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = srv.upload(t, "/api/uploads/avatar", "me.png", pngBytes(), token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = srv.call(t, http.MethodGet, "/api/users/me", nil, token)
	me := decodeData[models.User](t, resp)
	require.NotNil(t, me.ProfilePicture)
	require.True(t, strings.HasPrefix(*me.ProfilePicture, "/uploads/avatar/mock-user-123-me-"))
}

func (s *testServer) upload(t *testing.T, path, filename string, content []byte, token string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func pngBytes() []byte {
	return []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}
}
