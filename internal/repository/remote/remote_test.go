package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/repository/remote"
	"github.com/noah-isme/plaksha-connect/internal/session"
)

type recorded struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Corr   string
	Body   map[string]any
}

type upstream struct {
	mu       sync.Mutex
	requests []recorded
	server   *httptest.Server
}

func newUpstream(t *testing.T, mux *http.ServeMux) (*upstream, repository.Registry) {
	t.Helper()
	u := &upstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Auth: r.Header.Get("Authorization"), Corr: r.Header.Get(session.CorrelationHeader)}
		_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		u.mu.Lock()
		u.requests = append(u.requests, rec)
		u.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(u.server.Close)
	client := remote.NewClient(u.server.URL+"/api", 2*time.Second, zerolog.Nop())
	return u, remote.NewRegistry(client)
}

func (u *upstream) last() recorded {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.requests[len(u.requests)-1]
}

func reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func asUser(token string) context.Context {
	return session.WithActor(context.Background(), session.Actor{UserID: "user-1", Role: session.RoleStudent, Token: token})
}

func TestBearerTokenForwarded(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/announcements/", reply(http.StatusOK, `[{"id":"a1","title":"Exam","category":"academic","priority":"high"},{"id":"a2","title":"Fest","category":"event","priority":"low"}]`))
	up, reg := newUpstream(t, mux)

	ctx := session.WithCorrelation(asUser("tok-123"), "corr-42")
	items, err := reg.Announcements.List(ctx, repository.AnnouncementFilter{Category: "academic"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "a1", items[0].ID)

	last := up.last()
	require.Equal(t, "Bearer tok-123", last.Auth)
	require.Equal(t, "corr-42", last.Corr)
	require.Equal(t, "category=academic", last.Query)
}

func TestLookupMissIsNilButMutationMissIsNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/issues/", reply(http.StatusNotFound, `{"detail":"Issue not found"}`))
	_, reg := newUpstream(t, mux)
	ctx := asUser("tok")

	issue, err := reg.Issues.FindByID(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, issue)

	err = reg.Issues.Delete(ctx, "missing")
	require.ErrorIs(t, err, apperror.ErrNotFound)
	require.Equal(t, "Issue not found", apperror.MessageOf(err))
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		want    *apperror.Error
		message string
		code    int
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"Not authenticated"}`, apperror.ErrUnauthorized, "Not authenticated", 401},
		{"forbidden", http.StatusForbidden, `{"detail":"Only team leader can update"}`, apperror.ErrForbidden, "Only team leader can update", 403},
		{"bad request", http.StatusBadRequest, `{"detail":"Team is full"}`, apperror.ErrValidation, "Team is full", 422},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"},{"msg":"value too long"}]}`, apperror.ErrValidation, "field required; value too long", 422},
		{"conflict", http.StatusConflict, `{"message":"duplicate"}`, apperror.ErrConflict, "duplicate", 409},
		{"server with detail", http.StatusInternalServerError, `{"detail":"db down"}`, apperror.ErrServer, "db down", 500},
		{"server without body", http.StatusServiceUnavailable, ``, apperror.ErrServer, "failed to update team", 503},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/api/teams/", reply(tc.status, tc.body))
			_, reg := newUpstream(t, mux)

			name := "Robotics"
			_, err := reg.Teams.Update(asUser("tok"), "team-1", dto.TeamUpdateRequest{Name: &name})
			require.ErrorIs(t, err, tc.want)
			require.Equal(t, tc.message, apperror.MessageOf(err))
			require.Equal(t, tc.code, apperror.StatusOf(err))
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	up, reg := newUpstream(t, http.NewServeMux())
	up.server.Close()

	_, err := reg.Challenges.Leaderboard(asUser("tok"), 5)
	require.ErrorIs(t, err, apperror.ErrNetwork)
}

func TestTeamJoinUsesRequestID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/teams/team-9/join", reply(http.StatusCreated, `{"message":"Join request sent successfully","request_id":"req-77"}`))
	up, reg := newUpstream(t, mux)

	note := "I can solder"
	req, err := reg.Teams.RequestJoin(asUser("tok"), &models.JoinRequest{TeamID: "team-9", UserID: "user-1", Message: &note})
	require.NoError(t, err)
	require.Equal(t, "req-77", req.ID)
	require.Equal(t, models.JoinRequestPending, req.Status)
	require.Equal(t, "message=I+can+solder", up.last().Query)
}

func TestFindRequestScansLedTeams(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/teams/my-teams", reply(http.StatusOK, `[{"id":"t1","leader_id":"someone"},{"id":"t2","leader_id":"user-1"}]`))
	mux.HandleFunc("/api/teams/t2/requests", reply(http.StatusOK, `[{"id":"r5","team_id":"t2","user_id":"user-7","status":"pending"}]`))
	mux.HandleFunc("/api/teams/t1/requests", reply(http.StatusForbidden, `{"detail":"not leader"}`))
	_, reg := newUpstream(t, mux)

	found, err := reg.Teams.FindRequest(asUser("tok"), "r5")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "t2", found.TeamID)

	missing, err := reg.Teams.FindRequest(asUser("tok"), "r6")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestChallengeCompleteSendsPassword(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/challenges/c1/complete", reply(http.StatusOK, `{"user_id":"user-1","completed":true,"progress":100}`))
	up, reg := newUpstream(t, mux)

	p, err := reg.Challenges.Complete(asUser("tok"), "c1", "user-1", "RUN 2024")
	require.NoError(t, err)
	require.True(t, p.Completed)
	require.Equal(t, "password=RUN+2024", up.last().Query)
	require.Equal(t, http.MethodPost, up.last().Method)
}

func TestMarkAllReadCount(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/notifications/read-all", reply(http.StatusOK, `{"marked_as_read":4}`))
	_, reg := newUpstream(t, mux)

	n, err := reg.Notifications.MarkAllRead(asUser("tok"), "user-1")
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func TestMessageCursorResolvedToTimestamp(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/groups/g1/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("before") != "" {
			reply(http.StatusOK, `[{"id":"m1","group_id":"g1","content":"first"}]`)(w, r)
			return
		}
		reply(http.StatusOK, `[{"id":"m1","created_at":"2025-01-01T10:00:00Z"},{"id":"m2","created_at":"2025-01-01T10:05:00Z"}]`)(w, r)
	})
	up, reg := newUpstream(t, mux)

	msgs, err := reg.Chat.ListMessages(asUser("tok"), "g1", repository.MessageQuery{Before: "m2", Limit: 20})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Contains(t, up.last().Query, "before=2025-01-01T10%3A05%3A00Z")
	require.Contains(t, up.last().Query, "limit=20")

	_, err = reg.Chat.ListMessages(asUser("tok"), "g1", repository.MessageQuery{Before: "nope"})
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestVerifyOTPMapsUpstreamToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/verify-otp", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] == "new@plaksha.edu.in" {
			reply(http.StatusOK, `{"requires_registration":true,"verification_token":"x","email":"new@plaksha.edu.in"}`)(w, r)
			return
		}
		reply(http.StatusOK, `{"requires_registration":false,"token":{"access_token":"up-jwt","token_type":"bearer","user":{"id":"u9","email":"old@plaksha.edu.in","full_name":"Old Timer","role":"student"}}}`)(w, r)
	})
	_, reg := newUpstream(t, mux)

	known, err := reg.Auth.VerifyOTP(context.Background(), "old@plaksha.edu.in", "123456")
	require.NoError(t, err)
	require.False(t, known.IsNewUser)
	require.Equal(t, "up-jwt", known.UpstreamToken)
	require.Equal(t, "u9", known.User.ID)

	fresh, err := reg.Auth.VerifyOTP(context.Background(), "new@plaksha.edu.in", "123456")
	require.NoError(t, err)
	require.True(t, fresh.IsNewUser)
	require.Nil(t, fresh.User)
}

func TestUnsupportedLookupsReportNotImplemented(t *testing.T) {
	_, reg := newUpstream(t, http.NewServeMux())

	_, err := reg.Users.FindByEmail(asUser("tok"), "a@b.c")
	require.ErrorIs(t, err, apperror.ErrServer)
	require.Equal(t, http.StatusNotImplemented, apperror.StatusOf(err))

	_, err = reg.Locations.Nearby(asUser("tok"), "user-2", 5)
	require.Equal(t, http.StatusNotImplemented, apperror.StatusOf(err))
}

func TestBuildingsListFiltersAfterPaging(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/buildings/", reply(http.StatusOK, `[
		{"id":"b1","name":"Central Library","code":"LIB","building_type":"library","latitude":30.7335,"longitude":76.7793},
		{"id":"b2","name":"Boys Hostel 1","code":"BH1","building_type":"hostel","latitude":30.7326,"longitude":76.7799}
	]`))
	up, reg := newUpstream(t, mux)

	items, err := reg.Buildings.List(asUser("tok"), repository.BuildingFilter{Type: models.BuildingHostel})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "b2", items[0].ID)
	require.Equal(t, "limit=1000", up.last().Query)

	items, err = reg.Buildings.List(asUser("tok"), repository.BuildingFilter{Search: "lib"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "b1", items[0].ID)
}

func TestBuildingUpdateSendsPartialBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/buildings/b1", reply(http.StatusOK, `{"id":"b1","name":"Library","building_type":"library"}`))
	up, reg := newUpstream(t, mux)

	name := "Library"
	updated, err := reg.Buildings.Update(asUser("tok"), "b1", dto.BuildingUpdateRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Library", updated.Name)
	require.Equal(t, http.MethodPut, up.last().Method)
	require.Equal(t, map[string]any{"name": "Library"}, up.last().Body)
}
