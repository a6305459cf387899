package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/plaksha-connect/internal/config"
	"github.com/noah-isme/plaksha-connect/internal/geo"
	"github.com/noah-isme/plaksha-connect/internal/handler"
	"github.com/noah-isme/plaksha-connect/internal/kvstore"
	"github.com/noah-isme/plaksha-connect/internal/middleware"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/repository/local"
	"github.com/noah-isme/plaksha-connect/internal/router"
	"github.com/noah-isme/plaksha-connect/internal/service"
	"github.com/noah-isme/plaksha-connect/internal/session"
)

var (
	devActor   = session.Actor{UserID: local.MockUserID, Email: local.MockUserEmail, FullName: local.MockUserName, Role: session.RoleStudent}
	aliceActor = session.Actor{UserID: "user-1", Email: "alice@plaksha.edu.in", FullName: "Alice Johnson", Role: session.RoleStudent}
	adminActor = session.Actor{UserID: "admin-1", Email: "admin@plaksha.edu.in", FullName: "Campus Admin", Role: session.RoleAdmin}
)

type testServer struct {
	app       *fiber.App
	tokens    *session.Tokens
	registry  repository.Registry
	uploadDir string
}

// newTestServer wires the full API over an in-memory local store.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zerolog.New(io.Discard)

	store := local.NewStore(kvstore.NewMemory(), local.Options{Logger: logger})
	registry := local.NewRegistry(store, geo.AllowAllRelationships{}, local.AuthOptions{})
	tokens := session.NewTokens("handler-test-secret", time.Hour)
	validate := service.NewValidator()
	uploadDir := t.TempDir()

	notifications := service.NewNotificationService(registry.Notifications, nil, "", nil, validate, logger)
	auth := service.NewAuthService(registry.Auth, registry.Users, tokens, nil, validate, logger)
	announcements := service.NewAnnouncementService(registry.Announcements, registry.Users, notifications, nil, 0, validate, logger)
	chat := service.NewChatService(service.ChatDeps{
		Repo:      registry.Chat,
		Users:     registry.Users,
		Notifier:  notifications,
		Validator: validate,
		Logger:    logger,
	})
	issues := service.NewIssueService(registry.Issues, registry.Users, notifications, validate, logger)
	uploads := service.NewUploadService(service.DiskStorage{Dir: uploadDir, URLPrefix: "/uploads"}, 1, logger)

	cfg := config.Config{AppEnv: "test", DataMode: "local"}
	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(auth, logger),
		AnnouncementHandler: handler.NewAnnouncementHandler(announcements, logger),
		ChatHandler:         handler.NewChatHandler(chat, logger),
		IssueHandler:        handler.NewIssueHandler(issues, logger),
		TeamHandler:         handler.NewTeamHandler(service.NewTeamService(registry.Teams, notifications, validate, logger), logger),
		ChallengeHandler:    handler.NewChallengeHandler(service.NewChallengeService(registry.Challenges, notifications, validate, logger), logger),
		MessHandler:         handler.NewMessHandler(service.NewMessService(registry.MessReviews, nil, validate, logger), logger),
		LocationHandler:     handler.NewLocationHandler(service.NewLocationService(registry.Locations, validate, logger), logger),
		BuildingHandler:     handler.NewBuildingHandler(service.NewBuildingService(registry.Buildings, registry.Locations, validate, logger), logger),
		NotificationHandler: handler.NewNotificationHandler(notifications, logger, 0),
		UploadHandler:       handler.NewUploadHandler(uploads, auth, issues, logger),
		DevHandler:          handler.NewDevHandler(service.NewDevService(store, logger, announcements), logger),
		JWTMiddleware:       middleware.JWTProtected(tokens),
		OTPLimit:            middleware.RateLimit("otp", 3, time.Minute),
		VerifyLimit:         middleware.RateLimit("otp_verify", 5, time.Minute),
	})

	return &testServer{app: app, tokens: tokens, registry: registry, uploadDir: uploadDir}
}

func (s *testServer) token(t *testing.T, actor session.Actor) string {
	t.Helper()
	signed, _, err := s.tokens.Issue(actor, "")
	require.NoError(t, err)
	return signed
}

// call performs a JSON request. A nil body sends none; an empty token skips
// the Authorization header.
func (s *testServer) call(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func decodeData[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var body envelope[T]
	decodeResponse(t, resp, &body)
	require.True(t, body.Success, body.Message)
	return body.Data
}
