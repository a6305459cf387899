package service

import (
	"context"
	"encoding/json"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

func newTestChatService(t *testing.T, notifier Notifier, redisClient *redis.Client) ChatService {
	t.Helper()
	registry, _ := newTestRegistry(t)
	return NewChatService(ChatDeps{
		Repo:        registry.Chat,
		Users:       registry.Users,
		Notifier:    notifier,
		Redis:       redisClient,
		ChannelBase: "plaksha.test",
		Validator:   NewValidator(),
		Logger:      testLogger(),
	})
}

func TestChatListGroupsOnlyReturnsMemberships(t *testing.T) {
	svc := newTestChatService(t, nil, nil)
	ctx := context.Background()

	groups, err := svc.ListGroups(ctx, bobActor)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, "group-1", groups[0].ID)

	_, err = svc.GetGroup(ctx, bobActor, "group-2")
	require.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.GetGroup(ctx, bobActor, "group-404")
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestChatSendStampsSenderAndNotifiesOthers(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	notifier := &recordingNotifier{}
	svc := newTestChatService(t, notifier, redisClient)
	ctx := context.Background()

	message, err := svc.Send(ctx, devActor, "group-1", dto.ChatMessageRequest{Content: "<b>Library</b> at 5 & bring notes"})
	require.NoError(t, err)
	require.Equal(t, devActor.UserID, message.UserID)
	require.Equal(t, devActor.FullName, message.UserName)
	require.Equal(t, "Library at 5 & bring notes", message.Content)
	require.ElementsMatch(t, []string{"user-1", "user-2"}, notifier.recipients())
	require.Equal(t, 1, notifier.batches)

	cached, err := server.Get("plaksha.test:chat:last:group-1")
	require.NoError(t, err)
	var last models.ChatMessage
	require.NoError(t, json.Unmarshal([]byte(cached), &last))
	require.Equal(t, message.ID, last.ID)

	group, err := svc.GetGroup(ctx, devActor, "group-1")
	require.NoError(t, err)
	require.NotNil(t, group.LastMessage)
	require.Equal(t, message.Content, *group.LastMessage)

	_, err = svc.Send(ctx, bobActor, "group-2", dto.ChatMessageRequest{Content: "hi"})
	require.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.Send(ctx, devActor, "group-1", dto.ChatMessageRequest{Content: "<script></script>"})
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestChatHistoryPagesBackwards(t *testing.T) {
	svc := newTestChatService(t, nil, nil)
	ctx := context.Background()

	all, err := svc.History(ctx, devActor, "group-1", repository.MessageQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	older, err := svc.History(ctx, devActor, "group-1", repository.MessageQuery{Before: all[2].ID, Limit: 1})
	require.NoError(t, err)
	require.Len(t, older, 1)
	require.Equal(t, all[1].ID, older[0].ID)
}

func TestChatCreateGroupAndAdminOnlyMembership(t *testing.T) {
	svc := newTestChatService(t, nil, nil)
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, bobActor, dto.ChatGroupCreateRequest{Name: " Robotics ", MemberIDs: []string{"user-3", "user-3", bobActor.UserID}})
	require.NoError(t, err)
	require.Equal(t, "Robotics", group.Name)
	require.Equal(t, 2, group.MemberCount)
	require.True(t, group.HasMember("user-3"))

	_, err = svc.CreateGroup(ctx, bobActor, dto.ChatGroupCreateRequest{Name: "Ghosts", MemberIDs: []string{"nobody"}})
	require.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.AddMembers(ctx, devActor, "group-2", dto.ChatMembersRequest{UserIDs: []string{"user-5"}})
	require.ErrorIs(t, err, apperror.ErrForbidden)

	updated, err := svc.AddMembers(ctx, aliceActor, "group-2", dto.ChatMembersRequest{UserIDs: []string{"user-5"}})
	require.NoError(t, err)
	require.True(t, updated.HasMember("user-5"))
	require.Equal(t, 5, updated.MemberCount)

	require.NoError(t, svc.LeaveGroup(ctx, evanActor, "group-2"))
	_, err = svc.GetGroup(ctx, evanActor, "group-2")
	require.ErrorIs(t, err, apperror.ErrForbidden)
}
