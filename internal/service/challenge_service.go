package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/session"
)

const defaultLeaderboardSize = 10

// ChallengeService runs campus challenges and the leaderboard.
type ChallengeService interface {
	List(ctx context.Context, actor session.Actor, filter repository.ChallengeFilter) ([]models.Challenge, error)
	MyChallenges(ctx context.Context, actor session.Actor) ([]models.Challenge, error)
	Get(ctx context.Context, actor session.Actor, id string) (*models.Challenge, error)
	Participants(ctx context.Context, actor session.Actor, id string) ([]models.ChallengeParticipant, error)
	Create(ctx context.Context, actor session.Actor, payload dto.ChallengeCreateRequest) (*models.Challenge, error)
	Update(ctx context.Context, actor session.Actor, id string, payload dto.ChallengeUpdateRequest) (*models.Challenge, error)
	Delete(ctx context.Context, actor session.Actor, id string) error
	Join(ctx context.Context, actor session.Actor, id string) (*models.ChallengeParticipant, error)
	Leave(ctx context.Context, actor session.Actor, id string) error
	Complete(ctx context.Context, actor session.Actor, id, password string) (*models.ChallengeParticipant, error)
	SetProgress(ctx context.Context, actor session.Actor, id string, progress int) (*models.ChallengeParticipant, error)
	Leaderboard(ctx context.Context, actor session.Actor, limit int) ([]models.LeaderboardEntry, error)
}

type challengeService struct {
	repo      repository.ChallengeRepository
	notifier  Notifier
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewChallengeService constructs the challenge service.
func NewChallengeService(repo repository.ChallengeRepository, notifier Notifier, validate *validator.Validate, logger zerolog.Logger) ChallengeService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &challengeService{
		repo:      repo,
		notifier:  notifier,
		validator: validate,
		logger:    componentLogger(logger, "challenge_service"),
		tracer:    otel.Tracer(tracerPrefix + "challenge"),
	}
}

func (s *challengeService) List(ctx context.Context, actor session.Actor, filter repository.ChallengeFilter) ([]models.Challenge, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i] = items[i].Redacted(actor.UserID, actor.IsAdmin())
	}
	return items, nil
}

func (s *challengeService) MyChallenges(ctx context.Context, actor session.Actor) ([]models.Challenge, error) {
	return s.List(ctx, actor, repository.ChallengeFilter{UserID: actor.UserID})
}

func (s *challengeService) Get(ctx context.Context, actor session.Actor, id string) (*models.Challenge, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	challenge, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	redacted := challenge.Redacted(actor.UserID, actor.IsAdmin())
	return &redacted, nil
}

func (s *challengeService) Participants(ctx context.Context, actor session.Actor, id string) ([]models.ChallengeParticipant, error) {
	challenge, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if challenge.Participants == nil {
		return []models.ChallengeParticipant{}, nil
	}
	return challenge.Participants, nil
}

func (s *challengeService) Create(ctx context.Context, actor session.Actor, payload dto.ChallengeCreateRequest) (*models.Challenge, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "challenges.create", trace.WithAttributes(
		attribute.String("challenge.type", payload.ChallengeType),
		attribute.String("challenge.creator_id", actor.UserID),
	))
	defer span.End()

	created, err := s.repo.Create(ctx, &models.Challenge{
		CreatorID:          actor.UserID,
		CreatorName:        actor.FullName,
		Title:              strings.TrimSpace(payload.Title),
		Description:        strings.TrimSpace(payload.Description),
		ChallengeType:      payload.ChallengeType,
		Difficulty:         payload.Difficulty,
		Points:             payload.Points,
		StartDate:          payload.StartDate.UTC(),
		EndDate:            payload.EndDate.UTC(),
		MaxParticipants:    payload.MaxParticipants,
		CompletionPassword: payload.CompletionPassword,
		IsActive:           true,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return created, nil
}

func (s *challengeService) Update(ctx context.Context, actor session.Actor, id string, payload dto.ChallengeUpdateRequest) (*models.Challenge, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}
	challenge, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, challenge.CreatorID, "edit this challenge"); err != nil {
		return nil, err
	}
	payload.Title = trimmed(payload.Title)
	payload.Description = trimmed(payload.Description)
	return s.repo.Update(ctx, id, payload)
}

func (s *challengeService) Delete(ctx context.Context, actor session.Actor, id string) error {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return err
	}
	challenge, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if challenge != nil {
		if err := requireOwner(actor, challenge.CreatorID, "delete this challenge"); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}

// Join is idempotent: joining twice returns the existing entry.
func (s *challengeService) Join(ctx context.Context, actor session.Actor, id string) (*models.ChallengeParticipant, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "challenges.join", trace.WithAttributes(
		attribute.String("challenge.id", id),
		attribute.String("challenge.user_id", actor.UserID),
	))
	defer span.End()

	participant, err := s.repo.Join(ctx, id, models.ChallengeParticipant{UserID: actor.UserID, UserName: actor.FullName})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return participant, nil
}

func (s *challengeService) Leave(ctx context.Context, actor session.Actor, id string) error {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return err
	}
	return s.repo.Leave(ctx, id, actor.UserID)
}

func (s *challengeService) Complete(ctx context.Context, actor session.Actor, id, password string) (*models.ChallengeParticipant, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, apperror.Validation("completion password is required")
	}
	ctx, span := s.tracer.Start(ctx, "challenges.complete", trace.WithAttributes(
		attribute.String("challenge.id", id),
		attribute.String("challenge.user_id", actor.UserID),
	))
	defer span.End()

	participant, err := s.repo.Complete(ctx, id, actor.UserID, password)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	link := "/challenges/" + id
	s.notifier.Notify(ctx, dto.NotificationCreateRequest{
		UserID:      actor.UserID,
		Type:        models.NotificationChallenge,
		Title:       "Challenge completed",
		Message:     "Nice work! Your points have been added to the leaderboard.",
		Link:        &link,
		ReferenceID: strPtr(id),
	})
	s.logger.Info().Str("challenge_id", id).Str("user_id", actor.UserID).Msg("challenge completed")
	return participant, nil
}

func (s *challengeService) SetProgress(ctx context.Context, actor session.Actor, id string, progress int) (*models.ChallengeParticipant, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.repo.SetProgress(ctx, id, actor.UserID, models.ClampProgress(progress))
}

func (s *challengeService) Leaderboard(ctx context.Context, actor session.Actor, limit int) ([]models.LeaderboardEntry, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.Leaderboard(ctx, limit)
}

func (s *challengeService) find(ctx context.Context, id string) (*models.Challenge, error) {
	challenge, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, apperror.NotFound("challenge not found")
	}
	return challenge, nil
}
