package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

func TestTeamCreateDefaultsAndPrivacy(t *testing.T) {
	registry, _ := newTestRegistry(t)
	svc := NewTeamService(registry.Teams, nil, NewValidator(), testLogger())
	ctx := context.Background()

	private := false
	team, err := svc.Create(ctx, devActor, dto.TeamCreateRequest{
		Name:     "Quiet Coders",
		Category: models.TeamCategoryStudy,
		IsPublic: &private,
		Tags:     []string{" Go ", "go", "", "Systems"},
	})
	require.NoError(t, err)
	require.Equal(t, 10, team.MaxMembers)
	require.Equal(t, []string{"go", "systems"}, team.Tags)
	require.Equal(t, devActor.UserID, team.LeaderID)
	require.True(t, team.IsMember(devActor.UserID))

	_, err = svc.Get(ctx, bobActor, team.ID)
	require.ErrorIs(t, err, apperror.ErrNotFound)

	listed, err := svc.List(ctx, bobActor, repository.TeamFilter{})
	require.NoError(t, err)
	for _, item := range listed {
		require.NotEqual(t, team.ID, item.ID)
	}

	mine, err := svc.MyTeams(ctx, devActor)
	require.NoError(t, err)
	ids := make([]string, 0, len(mine))
	for _, item := range mine {
		ids = append(ids, item.ID)
	}
	require.ElementsMatch(t, []string{"team-2", team.ID}, ids)
}

func TestTeamJoinRequestLifecycle(t *testing.T) {
	registry, _ := newTestRegistry(t)
	notifier := &recordingNotifier{}
	svc := NewTeamService(registry.Teams, notifier, NewValidator(), testLogger())
	ctx := context.Background()

	request, err := svc.RequestJoin(ctx, devActor, "team-1", dto.TeamJoinRequest{Message: strPtr("I like NLP")})
	require.NoError(t, err)
	require.Equal(t, models.JoinRequestPending, request.Status)
	require.Equal(t, []string{"user-1"}, notifier.recipients())

	_, err = svc.RequestJoin(ctx, devActor, "team-1", dto.TeamJoinRequest{})
	require.ErrorIs(t, err, apperror.ErrConflict)

	_, err = svc.ListRequests(ctx, devActor, "team-1")
	require.ErrorIs(t, err, apperror.ErrForbidden)

	requests, err := svc.ListRequests(ctx, aliceActor, "team-1")
	require.NoError(t, err)
	require.Len(t, requests, 2)

	require.ErrorIs(t, svc.ApproveRequest(ctx, devActor, request.ID), apperror.ErrForbidden)
	require.NoError(t, svc.ApproveRequest(ctx, aliceActor, request.ID))
	require.NoError(t, svc.RejectRequest(ctx, aliceActor, "request-1"))
	require.ErrorIs(t, svc.ApproveRequest(ctx, aliceActor, "request-1"), apperror.ErrConflict)
	require.ErrorIs(t, svc.ApproveRequest(ctx, aliceActor, "request-404"), apperror.ErrNotFound)

	team, err := svc.Get(ctx, devActor, "team-1")
	require.NoError(t, err)
	require.True(t, team.IsMember(devActor.UserID))
	require.False(t, team.IsMember(evanActor.UserID))
	require.Equal(t, []string{"user-1", devActor.UserID, evanActor.UserID}, notifier.recipients())

	require.NoError(t, svc.Leave(ctx, devActor, "team-1"))
	require.ErrorIs(t, svc.Leave(ctx, aliceActor, "team-1"), apperror.ErrConflict)
}

func TestTeamUpdateAndDeleteRequireLeader(t *testing.T) {
	registry, _ := newTestRegistry(t)
	svc := NewTeamService(registry.Teams, nil, NewValidator(), testLogger())
	ctx := context.Background()

	name := "Web Dev Legends"
	_, err := svc.Update(ctx, devActor, "team-2", dto.TeamUpdateRequest{Name: &name})
	require.ErrorIs(t, err, apperror.ErrForbidden)

	updated, err := svc.Update(ctx, bobActor, "team-2", dto.TeamUpdateRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)

	require.ErrorIs(t, svc.Delete(ctx, devActor, "team-2"), apperror.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, adminActor, "team-2"))
	_, err = svc.Get(ctx, bobActor, "team-2")
	require.ErrorIs(t, err, apperror.ErrNotFound)
}
