package local

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/kvstore"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

var baseTime = time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)

// frozenClock never advances, forcing updated_at bumps to come from touch.
func frozenClock() time.Time { return baseTime }

func newTestStore(t *testing.T, mutate ...func(*Options)) *Store {
	t.Helper()
	opts := Options{Clock: frozenClock, Logger: zerolog.Nop()}
	for _, fn := range mutate {
		fn(&opts)
	}
	return NewStore(kvstore.NewMemory(), opts)
}

func strPtr(v string) *string { return &v }

func TestAnnouncementsSeedThenCreatePrepends(t *testing.T) {
	ctx := context.Background()
	repo := NewAnnouncementRepository(newTestStore(t))

	items, err := repo.List(ctx, repository.AnnouncementFilter{})
	require.NoError(t, err)
	require.Len(t, items, 4)
	for i, id := range []string{"ann-1", "ann-2", "ann-3", "ann-4"} {
		require.Equal(t, id, items[i].ID)
	}

	created, err := repo.Create(ctx, &models.Announcement{
		Title: "Library closed", Content: "Closed for maintenance", Category: models.AnnouncementCategoryGeneral,
		Priority: models.AnnouncementPriorityNormal, AuthorID: MockUserID, AuthorName: MockUserName, IsActive: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, created.CreatedAt, created.UpdatedAt)

	items, err = repo.List(ctx, repository.AnnouncementFilter{})
	require.NoError(t, err)
	require.Len(t, items, 5)
	require.Equal(t, created.ID, items[0].ID)
	require.Equal(t, "ann-1", items[1].ID)
}

func TestUpdateMergesPartialAndBumpsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	repo := NewIssueRepository(newTestStore(t))

	before, err := repo.FindByID(ctx, "issue-1")
	require.NoError(t, err)

	updated, err := repo.Update(ctx, "issue-1", dto.IssueUpdateRequest{Title: strPtr("AC fixed?")})
	require.NoError(t, err)
	require.Equal(t, "AC fixed?", updated.Title)
	require.Equal(t, before.Description, updated.Description)
	require.Equal(t, before.Category, updated.Category)
	require.True(t, updated.UpdatedAt.After(before.UpdatedAt))

	again, err := repo.Update(ctx, "issue-1", dto.IssueUpdateRequest{Priority: strPtr(models.IssuePriorityLow)})
	require.NoError(t, err)
	require.True(t, again.UpdatedAt.After(updated.UpdatedAt))

	_, err = repo.Update(ctx, "missing", dto.IssueUpdateRequest{Title: strPtr("x")})
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestIssueResolvedAtStampedOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewIssueRepository(newTestStore(t))

	resolved, err := repo.UpdateStatus(ctx, "issue-1", models.IssueStatusResolved)
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	require.Equal(t, resolved.UpdatedAt, *resolved.ResolvedAt)

	reopened, err := repo.UpdateStatus(ctx, "issue-1", models.IssueStatusOpen)
	require.NoError(t, err)
	require.True(t, resolved.ResolvedAt.Equal(*reopened.ResolvedAt))
}

func TestEmptiedCollectionReseedsOnNextLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewAnnouncementRepository(newTestStore(t))

	for _, id := range []string{"ann-1", "ann-2", "ann-3", "ann-4"} {
		require.NoError(t, repo.Delete(ctx, id))
	}

	items, err := repo.List(ctx, repository.AnnouncementFilter{})
	require.NoError(t, err)
	require.Len(t, items, 4)
	require.Equal(t, "ann-1", items[0].ID)
}

func TestStripedLocksStayBounded(t *testing.T) {
	store := newTestStore(t)

	keys := make([]string, 0, 500)
	for i := 0; i < 500; i++ {
		keys = append(keys, fmt.Sprintf("messages_group-%d", i))
	}
	seen := map[int]bool{}
	for _, key := range keys {
		stripe := stripeOf(key)
		require.GreaterOrEqual(t, stripe, 0)
		require.Less(t, stripe, lockStripes)
		seen[stripe] = true
	}
	require.LessOrEqual(t, len(seen), lockStripes)

	// Keys sharing a stripe, and repeated keys, must not self-deadlock.
	done := make(chan struct{})
	go func() {
		defer close(done)
		unlock := store.lock(append(keys, keys[0], "groups")...)
		unlock()
		store.lockAll()()
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				store.lock(keys[i], keys[len(keys)-1-i])()
			}(i)
		}
		wg.Wait()
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock acquisition deadlocked")
	}
}

func TestListFiltersByCategory(t *testing.T) {
	ctx := context.Background()
	repo := NewIssueRepository(newTestStore(t))

	items, err := repo.List(ctx, repository.IssueFilter{Category: models.IssueCategoryInternet})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, models.IssueCategoryInternet, items[0].Category)

	items, err = repo.List(ctx, repository.IssueFilter{Search: "LIGHT"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "issue-5", items[0].ID)
}

func sendConcurrently(t *testing.T, repo repository.ChatRepository) {
	t.Helper()
	var wg sync.WaitGroup
	for _, content := range []string{"first", "second"} {
		wg.Add(1)
		go func(content string) {
			defer wg.Done()
			_, err := repo.SendMessage(context.Background(), &models.ChatMessage{GroupID: "group-1", UserID: MockUserID, Content: content})
			require.NoError(t, err)
		}(content)
	}
	wg.Wait()
}

func TestUnguardedWritesLoseConcurrentMessage(t *testing.T) {
	var (
		armed   sync.Mutex
		barrier *sync.WaitGroup
	)
	latency := func(ctx context.Context) error {
		armed.Lock()
		b := barrier
		armed.Unlock()
		if b != nil {
			b.Done()
			b.Wait()
		}
		return nil
	}
	store := newTestStore(t, func(o *Options) {
		o.WriteMode = WriteUnguarded
		o.Latency = latency
	})
	repo := NewChatRepository(store)

	seeded, err := repo.ListMessages(context.Background(), "group-1", repository.MessageQuery{})
	require.NoError(t, err)

	armed.Lock()
	barrier = &sync.WaitGroup{}
	barrier.Add(2)
	armed.Unlock()
	sendConcurrently(t, repo)

	armed.Lock()
	barrier = nil
	armed.Unlock()
	after, err := repo.ListMessages(context.Background(), "group-1", repository.MessageQuery{})
	require.NoError(t, err)
	require.Len(t, after, len(seeded)+1)
}

func TestSerializedWritesKeepBothMessages(t *testing.T) {
	store := newTestStore(t, func(o *Options) {
		o.WriteMode = WriteSerialized
		o.Latency = FixedLatency(20 * time.Millisecond)
	})
	repo := NewChatRepository(store)

	seeded, err := repo.ListMessages(context.Background(), "group-1", repository.MessageQuery{})
	require.NoError(t, err)

	sendConcurrently(t, repo)

	after, err := repo.ListMessages(context.Background(), "group-1", repository.MessageQuery{})
	require.NoError(t, err)
	require.Len(t, after, len(seeded)+2)

	group, err := repo.FindGroup(context.Background(), "group-1")
	require.NoError(t, err)
	require.Equal(t, after[len(after)-1].Content, *group.LastMessage)
}

func TestListMessagesBefore(t *testing.T) {
	ctx := context.Background()
	repo := NewChatRepository(newTestStore(t))

	older, err := repo.ListMessages(ctx, "group-1", repository.MessageQuery{Before: "group-1-msg-3"})
	require.NoError(t, err)
	require.Len(t, older, 2)
	require.Equal(t, "group-1-msg-1", older[0].ID)

	latest, err := repo.ListMessages(ctx, "group-1", repository.MessageQuery{Limit: 1})
	require.NoError(t, err)
	require.Equal(t, "group-1-msg-3", latest[0].ID)
}

func TestLeavingLastMemberRemovesGroup(t *testing.T) {
	ctx := context.Background()
	repo := NewChatRepository(newTestStore(t))

	group, err := repo.CreateGroup(ctx, &models.ChatGroup{
		Name:      "Solo",
		CreatedBy: MockUserID,
		Members:   []models.ChatMember{{UserID: MockUserID, UserName: MockUserName, Role: models.ChatRoleAdmin}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, group.MemberCount)

	require.NoError(t, repo.LeaveGroup(ctx, group.ID, MockUserID))
	gone, err := repo.FindGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Nil(t, gone)

	err = repo.LeaveGroup(ctx, "group-1", "stranger")
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestNearbyUsesHaversineAndVisibility(t *testing.T) {
	ctx := context.Background()
	repo := NewLocationRepository(newTestStore(t), nil)

	nearby, err := repo.Nearby(ctx, MockUserID, 5)
	require.NoError(t, err)
	require.Len(t, nearby, 3)
	require.Equal(t, "user-1", nearby[0].UserID)
	require.Equal(t, "user-2", nearby[1].UserID)
	require.Equal(t, "user-3", nearby[2].UserID)
	require.InDelta(t, 0.03, nearby[0].DistanceKm, 0.001)
	for i := 1; i < len(nearby); i++ {
		require.LessOrEqual(t, nearby[i-1].DistanceKm, nearby[i].DistanceKm)
	}

	wide, err := repo.Nearby(ctx, MockUserID, 10)
	require.NoError(t, err)
	require.Len(t, wide, 4)
	require.Equal(t, "user-5", wide[3].UserID)

	require.NoError(t, repo.Deactivate(ctx, MockUserID))
	none, err := repo.Nearby(ctx, MockUserID, 10)
	require.NoError(t, err)
	require.Empty(t, none)
}

type noFriends struct{}

func (noFriends) AreFriends(context.Context, string, string) (bool, error) { return false, nil }

func TestNearbyFriendsVisibilityUsesChecker(t *testing.T) {
	ctx := context.Background()
	repo := NewLocationRepository(newTestStore(t), noFriends{})

	nearby, err := repo.Nearby(ctx, "user-1", 5)
	require.NoError(t, err)
	for _, n := range nearby {
		require.NotEqual(t, MockUserID, n.UserID)
	}

	open := NewLocationRepository(newTestStore(t), nil)
	nearby, err = open.Nearby(ctx, "user-1", 5)
	require.NoError(t, err)
	require.Equal(t, MockUserID, nearby[0].UserID)
}

func TestLocationUpsertKeepsSingleRecord(t *testing.T) {
	ctx := context.Background()
	repo := NewLocationRepository(newTestStore(t), nil)

	first, err := repo.Upsert(ctx, &models.Location{UserID: "new-user", Latitude: 1, Longitude: 2, Visibility: models.VisibilityPublic})
	require.NoError(t, err)
	second, err := repo.Upsert(ctx, &models.Location{UserID: "new-user", Latitude: 3, Longitude: 4, Visibility: models.VisibilityPrivate})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.True(t, second.UpdatedAt.After(first.UpdatedAt))

	toggled, err := repo.Toggle(ctx, "new-user", false)
	require.NoError(t, err)
	require.False(t, toggled.IsActive)
}

func TestFaultInjectorFailsSelectedOperation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, func(o *Options) {
		o.Faults = func(op Operation) error {
			if op.Collection == "issues" && op.Action == "create" {
				return apperror.New(apperror.KindNetwork, "network down")
			}
			return nil
		}
	})
	repo := NewIssueRepository(store)

	_, err := repo.Create(ctx, &models.Issue{Title: "x"})
	require.ErrorIs(t, err, apperror.ErrNetwork)

	items, err := repo.List(ctx, repository.IssueFilter{})
	require.NoError(t, err)
	require.Len(t, items, 5)
}

func TestLatencyHonoursCancellation(t *testing.T) {
	store := newTestStore(t, func(o *Options) { o.Latency = FixedLatency(time.Minute) })
	repo := NewAnnouncementRepository(store)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := repo.List(ctx, repository.AnnouncementFilter{})
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestTeamJoinFlow(t *testing.T) {
	ctx := context.Background()
	repo := NewTeamRepository(newTestStore(t))

	_, err := repo.RequestJoin(ctx, &models.JoinRequest{TeamID: "team-1", UserID: "user-3"})
	require.ErrorIs(t, err, apperror.ErrConflict)

	_, err = repo.RequestJoin(ctx, &models.JoinRequest{TeamID: "team-1", UserID: "user-5"})
	require.ErrorIs(t, err, apperror.ErrConflict)

	req, err := repo.RequestJoin(ctx, &models.JoinRequest{TeamID: "team-1", UserID: MockUserID, UserName: MockUserName})
	require.NoError(t, err)
	require.Equal(t, "AI Research Group", req.TeamName)

	pending, err := repo.ListRequests(ctx, "team-1")
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, repo.ApproveRequest(ctx, req.ID))
	team, err := repo.FindByID(ctx, "team-1")
	require.NoError(t, err)
	require.True(t, team.IsMember(MockUserID))
	require.Equal(t, 3, team.CurrentMembers)

	require.ErrorIs(t, repo.ApproveRequest(ctx, req.ID), apperror.ErrConflict)
	require.NoError(t, repo.RejectRequest(ctx, "request-1"))
}

func TestApproveIntoFullTeamConflicts(t *testing.T) {
	ctx := context.Background()
	repo := NewTeamRepository(newTestStore(t))

	a, err := repo.RequestJoin(ctx, &models.JoinRequest{TeamID: "team-3", UserID: "user-1"})
	require.NoError(t, err)
	b, err := repo.RequestJoin(ctx, &models.JoinRequest{TeamID: "team-3", UserID: "user-2"})
	require.NoError(t, err)

	require.NoError(t, repo.ApproveRequest(ctx, a.ID))
	err = repo.ApproveRequest(ctx, b.ID)
	require.ErrorIs(t, err, apperror.ErrConflict)

	team, err := repo.FindByID(ctx, "team-3")
	require.NoError(t, err)
	require.Equal(t, team.MaxMembers, team.CurrentMembers)
}

func TestTeamLeaderCannotLeave(t *testing.T) {
	ctx := context.Background()
	repo := NewTeamRepository(newTestStore(t))

	require.ErrorIs(t, repo.Leave(ctx, "team-1", "user-1"), apperror.ErrConflict)
	require.NoError(t, repo.Leave(ctx, "team-1", "user-3"))

	team, err := repo.FindByID(ctx, "team-1")
	require.NoError(t, err)
	require.Equal(t, 1, team.CurrentMembers)
	require.False(t, team.IsMember("user-3"))
}

func TestChallengeJoinThroughRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewChallengeRepository(newTestStore(t))

	_, err := repo.Join(ctx, "challenge-1", models.ChallengeParticipant{UserID: MockUserID, UserName: MockUserName})
	require.NoError(t, err)
	_, err = repo.Join(ctx, "challenge-1", models.ChallengeParticipant{UserID: MockUserID, UserName: MockUserName})
	require.NoError(t, err)

	challenge, err := repo.FindByID(ctx, "challenge-1")
	require.NoError(t, err)
	require.Equal(t, 3, challenge.ParticipantCount)

	_, err = repo.Join(ctx, "challenge-4", models.ChallengeParticipant{UserID: MockUserID})
	require.ErrorIs(t, err, apperror.ErrConflict)

	_, err = repo.Complete(ctx, "challenge-1", MockUserID, "run2024")
	require.ErrorIs(t, err, apperror.ErrValidation)
	done, err := repo.Complete(ctx, "challenge-1", MockUserID, "RUN2024")
	require.NoError(t, err)
	require.True(t, done.Completed)

	board, err := repo.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, "user-4", board[0].UserID)
	require.Equal(t, 300, board[0].TotalPoints)
}

func TestMessReviewOnePerMealPerDay(t *testing.T) {
	ctx := context.Background()
	repo := NewMessReviewRepository(newTestStore(t))

	_, err := repo.Create(ctx, &models.MessReview{UserID: "user-1", MealType: models.MealBreakfast, Rating: 2, MealDate: "2025-11-10"})
	require.ErrorIs(t, err, apperror.ErrConflict)

	_, err = repo.Create(ctx, &models.MessReview{UserID: "user-1", MealType: models.MealDinner, Rating: 2, MealDate: "2025-11-10"})
	require.NoError(t, err)

	averages, err := repo.DailyAverages(ctx, repository.AveragesQuery{StartDate: "2025-11-03", EndDate: "2025-11-10"})
	require.NoError(t, err)
	require.Equal(t, "2025-11-10", averages[0].Date)
}

func TestOTPFlow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewAuthRepository(store, AuthOptions{Generate: func() (string, error) { return "123456", nil }})

	ticket, err := repo.RequestOTP(ctx, "DEV@plaksha.edu.in")
	require.NoError(t, err)
	require.True(t, ticket.UserExists)
	require.Equal(t, "123456", ticket.Code)

	_, err = repo.VerifyOTP(ctx, MockUserEmail, "000000")
	require.ErrorIs(t, err, apperror.ErrValidation)

	result, err := repo.VerifyOTP(ctx, MockUserEmail, "123456")
	require.NoError(t, err)
	require.Equal(t, MockUserID, result.User.ID)

	_, err = repo.VerifyOTP(ctx, MockUserEmail, "123456")
	require.ErrorIs(t, err, apperror.ErrValidation)

	_, err = repo.RequestOTP(ctx, "new@plaksha.edu.in")
	require.NoError(t, err)
	result, err = repo.VerifyOTP(ctx, "new@plaksha.edu.in", "123456")
	require.NoError(t, err)
	require.True(t, result.IsNewUser)

	registered, err := repo.Register(ctx, dto.RegisterRequest{Email: "new@plaksha.edu.in", FullName: "New Student"})
	require.NoError(t, err)
	require.Equal(t, "student", registered.User.Role)

	_, err = repo.Register(ctx, dto.RegisterRequest{Email: "new@plaksha.edu.in", FullName: "Again"})
	require.ErrorIs(t, err, apperror.ErrConflict)
}

func TestOTPBurnedAfterFailedAttempts(t *testing.T) {
	ctx := context.Background()
	repo := NewAuthRepository(newTestStore(t), AuthOptions{MaxAttempts: 3, Generate: func() (string, error) { return "246810", nil }})

	_, err := repo.RequestOTP(ctx, MockUserEmail)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = repo.VerifyOTP(ctx, MockUserEmail, "000000")
		require.ErrorIs(t, err, apperror.ErrValidation)
		require.Equal(t, "invalid OTP", apperror.MessageOf(err))
	}
	_, err = repo.VerifyOTP(ctx, MockUserEmail, "000000")
	require.ErrorIs(t, err, apperror.ErrValidation)
	require.Contains(t, apperror.MessageOf(err), "too many failed attempts")

	_, err = repo.VerifyOTP(ctx, MockUserEmail, "246810")
	require.ErrorIs(t, err, apperror.ErrValidation)

	_, err = repo.RequestOTP(ctx, MockUserEmail)
	require.NoError(t, err)
	result, err := repo.VerifyOTP(ctx, MockUserEmail, "246810")
	require.NoError(t, err)
	require.Equal(t, MockUserID, result.User.ID)
}

func TestExpiredOTPRejected(t *testing.T) {
	ctx := context.Background()
	now := baseTime
	store := newTestStore(t, func(o *Options) { o.Clock = func() time.Time { return now } })
	repo := NewAuthRepository(store, AuthOptions{OTPTTL: time.Minute, Generate: func() (string, error) { return "654321", nil }})

	_, err := repo.RequestOTP(ctx, MockUserEmail)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)

	_, err = repo.VerifyOTP(ctx, MockUserEmail, "654321")
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestResetReseedsOnRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewStore(kvstore.NewRedis(client, ""), Options{Clock: frozenClock})
	repo := NewAnnouncementRepository(store)

	require.NoError(t, repo.Delete(ctx, "ann-1"))
	items, err := repo.List(ctx, repository.AnnouncementFilter{})
	require.NoError(t, err)
	require.Len(t, items, 3)

	cleared, err := store.Reset(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, cleared)

	items, err = repo.List(ctx, repository.AnnouncementFilter{})
	require.NoError(t, err)
	require.Len(t, items, 4)
}

func TestParseWriteMode(t *testing.T) {
	mode, err := ParseWriteMode("")
	require.NoError(t, err)
	require.Equal(t, WriteSerialized, mode)

	mode, err = ParseWriteMode("unguarded")
	require.NoError(t, err)
	require.Equal(t, WriteUnguarded, mode)

	_, err = ParseWriteMode("chaos")
	require.Error(t, err)
}
