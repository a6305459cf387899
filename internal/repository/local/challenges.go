package local

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

type challengeRepository struct {
	store *Store
	items *collection[models.Challenge]
}

// NewChallengeRepository stores challenges under mock_challenges.
func NewChallengeRepository(store *Store) repository.ChallengeRepository {
	return &challengeRepository{store: store, items: newCollection(store, "challenges", seedChallenges)}
}

func (r *challengeRepository) List(ctx context.Context, filter repository.ChallengeFilter) ([]models.Challenge, error) {
	items, err := r.items.all(ctx, "list")
	if err != nil {
		return nil, err
	}
	now := r.store.now()
	return filterItems(items, func(c models.Challenge) bool {
		if filter.ActiveOnly && (!c.IsActive || c.EndDate.Before(now)) {
			return false
		}
		if filter.UserID != "" && c.CreatorID != filter.UserID && c.Participant(filter.UserID) == nil {
			return false
		}
		return matches(filter.Type, c.ChallengeType) && matches(filter.Difficulty, c.Difficulty)
	}), nil
}

func (r *challengeRepository) FindByID(ctx context.Context, id string) (*models.Challenge, error) {
	items, err := r.items.all(ctx, "find")
	if err != nil {
		return nil, err
	}
	if i := indexOf(items, func(c models.Challenge) bool { return c.ID == id }); i >= 0 {
		return &items[i], nil
	}
	return nil, nil
}

func (r *challengeRepository) Create(ctx context.Context, challenge *models.Challenge) (*models.Challenge, error) {
	created := *challenge
	err := r.items.mutate(ctx, "create", func(items []models.Challenge) ([]models.Challenge, error) {
		now := r.store.now()
		created.ID = uuid.NewString()
		created.IsActive = true
		created.Participants = []models.ChallengeParticipant{}
		created.ParticipantCount = 0
		created.CreatedAt = now
		created.UpdatedAt = now
		return prepend(items, created), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *challengeRepository) Update(ctx context.Context, id string, patch dto.ChallengeUpdateRequest) (*models.Challenge, error) {
	var updated models.Challenge
	err := r.modify(ctx, "update", id, func(c *models.Challenge) error {
		setIf(&c.Title, patch.Title)
		setIf(&c.Description, patch.Description)
		setIf(&c.ChallengeType, patch.ChallengeType)
		setIf(&c.Difficulty, patch.Difficulty)
		setIf(&c.Points, patch.Points)
		setIf(&c.StartDate, patch.StartDate)
		setIf(&c.EndDate, patch.EndDate)
		setRef(&c.MaxParticipants, patch.MaxParticipants)
		setIf(&c.CompletionPassword, patch.CompletionPassword)
		setIf(&c.IsActive, patch.IsActive)
		if !c.EndDate.After(c.StartDate) {
			return apperror.Validation("end_date must be after start_date")
		}
		c.UpdatedAt = r.store.touch(c.UpdatedAt)
		updated = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *challengeRepository) Delete(ctx context.Context, id string) error {
	return r.items.mutate(ctx, "delete", func(items []models.Challenge) ([]models.Challenge, error) {
		return filterItems(items, func(c models.Challenge) bool { return c.ID != id }), nil
	})
}

// Join is idempotent: a second join returns the existing entry unchanged.
func (r *challengeRepository) Join(ctx context.Context, id string, participant models.ChallengeParticipant) (*models.ChallengeParticipant, error) {
	var joined models.ChallengeParticipant
	err := r.modify(ctx, "join", id, func(c *models.Challenge) error {
		participant.JoinedAt = r.store.now()
		added, err := c.Join(participant)
		if err != nil {
			return err
		}
		if added {
			c.UpdatedAt = r.store.touch(c.UpdatedAt)
		}
		joined = *c.Participant(participant.UserID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &joined, nil
}

func (r *challengeRepository) Leave(ctx context.Context, id, userID string) error {
	return r.modify(ctx, "leave", id, func(c *models.Challenge) error {
		if !c.Leave(userID) {
			return apperror.NotFound("not a participant of this challenge")
		}
		c.UpdatedAt = r.store.touch(c.UpdatedAt)
		return nil
	})
}

func (r *challengeRepository) Complete(ctx context.Context, id, userID, password string) (*models.ChallengeParticipant, error) {
	var participant models.ChallengeParticipant
	err := r.modify(ctx, "complete", id, func(c *models.Challenge) error {
		if err := c.Complete(userID, password, r.store.now()); err != nil {
			return err
		}
		c.UpdatedAt = r.store.touch(c.UpdatedAt)
		participant = *c.Participant(userID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *challengeRepository) SetProgress(ctx context.Context, id, userID string, progress int) (*models.ChallengeParticipant, error) {
	var participant models.ChallengeParticipant
	err := r.modify(ctx, "progress", id, func(c *models.Challenge) error {
		if err := c.SetProgress(userID, progress); err != nil {
			return err
		}
		c.UpdatedAt = r.store.touch(c.UpdatedAt)
		participant = *c.Participant(userID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *challengeRepository) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	items, err := r.items.all(ctx, "leaderboard")
	if err != nil {
		return nil, err
	}
	return models.Leaderboard(items, limit), nil
}

func (r *challengeRepository) modify(ctx context.Context, action, id string, fn func(*models.Challenge) error) error {
	return r.items.mutate(ctx, action, func(items []models.Challenge) ([]models.Challenge, error) {
		i := indexOf(items, func(c models.Challenge) bool { return c.ID == id })
		if i < 0 {
			return nil, apperror.NotFound("challenge not found")
		}
		if err := fn(&items[i]); err != nil {
			return nil, err
		}
		return items, nil
	})
}
