package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
)

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) InvalidateCache(context.Context) { c.calls++ }

func TestDevResetRequiresAdmin(t *testing.T) {
	_, store := newTestRegistry(t)
	svc := NewDevService(store, testLogger())

	_, err := svc.Reset(context.Background(), devActor)
	require.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestDevResetUnavailableWithoutResetter(t *testing.T) {
	svc := NewDevService(nil, testLogger())

	_, err := svc.Reset(context.Background(), adminActor)
	require.Error(t, err)
	require.Equal(t, http.StatusNotImplemented, apperror.StatusOf(err))
}

func TestDevResetReseedsAndInvalidatesCaches(t *testing.T) {
	registry, store := newTestRegistry(t)
	ctx := context.Background()
	issues := NewIssueService(registry.Issues, registry.Users, nil, NewValidator(), testLogger())
	cache := &countingInvalidator{}
	svc := NewDevService(store, testLogger(), cache)

	created, err := issues.Create(ctx, devActor, dto.IssueCreateRequest{
		Title: "Broken tap", Description: "Second floor washroom", Category: models.IssueCategoryHostel,
	})
	require.NoError(t, err)

	result, err := svc.Reset(ctx, adminActor)
	require.NoError(t, err)
	require.Positive(t, result.Cleared)
	require.Equal(t, 1, cache.calls)

	_, err = issues.Get(ctx, devActor, created.ID)
	require.ErrorIs(t, err, apperror.ErrNotFound)

	seeded, err := issues.Get(ctx, devActor, "issue-1")
	require.NoError(t, err)
	require.Equal(t, "issue-1", seeded.ID)
}
