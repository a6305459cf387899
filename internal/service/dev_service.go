package service

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/session"
)

// Resetter clears persisted collections so the next read reseeds them.
type Resetter interface {
	Reset(ctx context.Context) (int, error)
}

// CacheInvalidator drops derived state after a reset.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context)
}

// DevService exposes maintenance operations for local mode.
type DevService interface {
	Reset(ctx context.Context, actor session.Actor) (dto.ResetResponse, error)
}

type devService struct {
	resetter Resetter
	caches   []CacheInvalidator
	logger   zerolog.Logger
}

// NewDevService constructs the dev service. A nil resetter means the data
// source cannot be reset and every call fails with 501.
func NewDevService(resetter Resetter, logger zerolog.Logger, caches ...CacheInvalidator) DevService {
	return &devService{resetter: resetter, caches: caches, logger: componentLogger(logger, "dev_service")}
}

func (s *devService) Reset(ctx context.Context, actor session.Actor) (dto.ResetResponse, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return dto.ResetResponse{}, err
	}
	if !actor.IsAdmin() {
		return dto.ResetResponse{}, apperror.Forbidden("only admins can reset the local store")
	}
	if s.resetter == nil {
		return dto.ResetResponse{}, apperror.WithStatus(apperror.KindServer, http.StatusNotImplemented, "reset is only available in local mode")
	}

	cleared, err := s.resetter.Reset(ctx)
	if err != nil {
		return dto.ResetResponse{}, err
	}
	for _, cache := range s.caches {
		cache.InvalidateCache(ctx)
	}
	s.logger.Warn().Str("user_id", actor.UserID).Int("cleared", cleared).Msg("local store reset")
	return dto.ResetResponse{Cleared: cleared}, nil
}
