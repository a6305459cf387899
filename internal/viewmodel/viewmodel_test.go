package viewmodel

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/kvstore"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/repository/local"
	"github.com/noah-isme/plaksha-connect/internal/service"
	"github.com/noah-isme/plaksha-connect/internal/session"
)

var dev = session.Actor{UserID: local.MockUserID, Email: local.MockUserEmail, FullName: local.MockUserName, Role: session.RoleStudent}

// outage fails the named write action while it is switched on.
type outage struct {
	action string
	on     atomic.Bool
}

func (o *outage) inject(op local.Operation) error {
	if o.on.Load() && op.Action == o.action {
		return apperror.New(apperror.KindNetwork, "network unreachable")
	}
	return nil
}

func newRegistry(t *testing.T, faults *outage) repository.Registry {
	t.Helper()
	opts := local.Options{Logger: zerolog.Nop()}
	if faults != nil {
		opts.Faults = faults.inject
	}
	return local.NewRegistry(local.NewStore(kvstore.NewMemory(), opts), nil, local.AuthOptions{})
}

func newChatService(registry repository.Registry) service.ChatService {
	return service.NewChatService(service.ChatDeps{
		Repo:      registry.Chat,
		Users:     registry.Users,
		Validator: service.NewValidator(),
		Logger:    zerolog.Nop(),
	})
}

func TestChatRoomSendReplacesPendingWithStored(t *testing.T) {
	registry := newRegistry(t, nil)
	room := NewChatRoom(newChatService(registry), dev, "group-1")
	ctx := context.Background()

	require.NoError(t, room.Load(ctx, 0))
	require.Len(t, room.Messages.Items(), 3)

	stored, err := room.Send(ctx, "Demo at five?")
	require.NoError(t, err)

	items := room.Messages.Items()
	require.Len(t, items, 4)
	require.Equal(t, stored.ID, items[3].ID)
	require.False(t, IsPending(items[3]))
	require.Empty(t, room.Messages.Snapshot().Error)

	room.Receive(*stored)
	require.Len(t, room.Messages.Items(), 4)
}

func TestChatRoomSendRollsBackOnFailure(t *testing.T) {
	faults := &outage{action: "send_message"}
	registry := newRegistry(t, faults)
	room := NewChatRoom(newChatService(registry), dev, "group-1")
	ctx := context.Background()

	require.NoError(t, room.Load(ctx, 0))
	faults.on.Store(true)

	_, err := room.Send(ctx, "Is anyone there?")
	require.ErrorIs(t, err, apperror.ErrNetwork)

	state := room.Messages.Snapshot()
	require.Len(t, state.Items, 3)
	require.Equal(t, "network unreachable", state.Error)
	for _, m := range state.Items {
		require.False(t, IsPending(m))
	}
}

func TestChatRoomLoadOlderPrepends(t *testing.T) {
	registry := newRegistry(t, nil)
	room := NewChatRoom(newChatService(registry), dev, "group-1")
	ctx := context.Background()

	require.NoError(t, room.Load(ctx, 0))
	room.Messages.SetItems(room.Messages.Items()[2:])

	require.NoError(t, room.LoadOlder(ctx, 0))
	items := room.Messages.Items()
	require.Len(t, items, 3)
	require.Equal(t, "group-1-msg-1", items[0].ID)

	room.Receive(models.ChatMessage{ID: "elsewhere", GroupID: "group-2"})
	require.Len(t, room.Messages.Items(), 3)
}

func TestChallengeBoardJoinAndProgress(t *testing.T) {
	registry := newRegistry(t, nil)
	board := NewChallengeBoard(service.NewChallengeService(registry.Challenges, nil, service.NewValidator(), zerolog.Nop()), dev)
	ctx := context.Background()

	require.NoError(t, board.Load(ctx, repository.ChallengeFilter{}))
	before := find(t, board, "challenge-1")

	joined, err := board.Join(ctx, "challenge-1")
	require.NoError(t, err)
	require.Equal(t, dev.UserID, joined.UserID)

	after := find(t, board, "challenge-1")
	require.Equal(t, before.ParticipantCount+1, after.ParticipantCount)
	require.NotNil(t, after.Participant(dev.UserID))

	_, err = board.SetProgress(ctx, "challenge-1", 130)
	require.NoError(t, err)
	progressed := find(t, board, "challenge-1")
	require.Equal(t, 100, progressed.Participant(dev.UserID).Progress)

	require.NoError(t, board.Leave(ctx, "challenge-1"))
	left := find(t, board, "challenge-1")
	require.Equal(t, before.ParticipantCount, left.ParticipantCount)
	require.Nil(t, left.Participant(dev.UserID))
}

func TestChallengeBoardRollsBackFailedJoin(t *testing.T) {
	faults := &outage{action: "join"}
	registry := newRegistry(t, faults)
	board := NewChallengeBoard(service.NewChallengeService(registry.Challenges, nil, service.NewValidator(), zerolog.Nop()), dev)
	ctx := context.Background()

	require.NoError(t, board.Load(ctx, repository.ChallengeFilter{}))
	before := find(t, board, "challenge-1")
	faults.on.Store(true)

	_, err := board.Join(ctx, "challenge-1")
	require.ErrorIs(t, err, apperror.ErrNetwork)

	after := find(t, board, "challenge-1")
	require.Equal(t, before.ParticipantCount, after.ParticipantCount)
	require.Nil(t, after.Participant(dev.UserID))
	require.Equal(t, "network unreachable", board.Challenges.Snapshot().Error)

	_, err = board.Join(ctx, "challenge-404")
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestChallengeBoardCompleteNeedsExactPassword(t *testing.T) {
	registry := newRegistry(t, nil)
	board := NewChallengeBoard(service.NewChallengeService(registry.Challenges, nil, service.NewValidator(), zerolog.Nop()), dev)
	ctx := context.Background()

	require.NoError(t, board.Load(ctx, repository.ChallengeFilter{}))
	_, err := board.Join(ctx, "challenge-1")
	require.NoError(t, err)

	_, err = board.Complete(ctx, "challenge-1", "wrong")
	require.Error(t, err)
	pending := find(t, board, "challenge-1")
	require.False(t, pending.Participant(dev.UserID).Completed)

	_, err = board.Complete(ctx, "challenge-1", "RUN2024")
	require.NoError(t, err)
	completed := find(t, board, "challenge-1")
	done := completed.Participant(dev.UserID)
	require.True(t, done.Completed)
	require.Equal(t, 100, done.Progress)
}

func TestInboxMarkReadAndRemove(t *testing.T) {
	faults := &outage{action: "delete"}
	registry := newRegistry(t, faults)
	notifications := service.NewNotificationService(registry.Notifications, nil, "", nil, service.NewValidator(), zerolog.Nop())
	inbox := NewInbox(notifications, dev)
	ctx := context.Background()

	require.NoError(t, inbox.Load(ctx, service.NotificationQuery{}))
	require.Equal(t, 2, inbox.Unread())

	require.NoError(t, inbox.MarkRead(ctx, "notification-1"))
	require.Equal(t, 1, inbox.Unread())

	faults.on.Store(true)
	err := inbox.Remove(ctx, "notification-1")
	require.ErrorIs(t, err, apperror.ErrNetwork)
	require.Len(t, inbox.Notifications.Items(), 3)

	faults.on.Store(false)
	require.NoError(t, inbox.Remove(ctx, "notification-1"))
	require.Len(t, inbox.Notifications.Items(), 2)

	inbox.Push(models.Notification{ID: "fresh", UserID: dev.UserID})
	inbox.Push(models.Notification{ID: "other", UserID: "user-2"})
	require.Equal(t, "fresh", inbox.Notifications.Items()[0].ID)
	require.Len(t, inbox.Notifications.Items(), 3)
}

func find(t *testing.T, board *ChallengeBoard, id string) models.Challenge {
	t.Helper()
	for _, c := range board.Challenges.Items() {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("challenge %s not on board", id)
	return models.Challenge{}
}
