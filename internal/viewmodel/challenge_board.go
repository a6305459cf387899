package viewmodel

import (
	"context"
	"time"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/session"
	"github.com/noah-isme/plaksha-connect/internal/viewstate"
)

// ChallengeGateway is the part of the challenge service a board needs.
type ChallengeGateway interface {
	List(ctx context.Context, actor session.Actor, filter repository.ChallengeFilter) ([]models.Challenge, error)
	Get(ctx context.Context, actor session.Actor, id string) (*models.Challenge, error)
	Join(ctx context.Context, actor session.Actor, id string) (*models.ChallengeParticipant, error)
	Leave(ctx context.Context, actor session.Actor, id string) error
	SetProgress(ctx context.Context, actor session.Actor, id string, progress int) (*models.ChallengeParticipant, error)
	Complete(ctx context.Context, actor session.Actor, id, password string) (*models.ChallengeParticipant, error)
}

// ChallengeBoard lists challenges and applies the caller's participation
// changes ahead of the server.
type ChallengeBoard struct {
	actor      session.Actor
	gateway    ChallengeGateway
	Challenges *viewstate.Container[models.Challenge]
	now        func() time.Time
}

// NewChallengeBoard constructs a board for actor.
func NewChallengeBoard(gateway ChallengeGateway, actor session.Actor) *ChallengeBoard {
	return &ChallengeBoard{
		actor:      actor,
		gateway:    gateway,
		Challenges: viewstate.New[models.Challenge](),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func challengeKey(c models.Challenge) string { return c.ID }

// Load replaces the board with the challenges matching filter.
func (b *ChallengeBoard) Load(ctx context.Context, filter repository.ChallengeFilter) error {
	return viewstate.Run(ctx, b.Challenges, func(ctx context.Context) ([]models.Challenge, error) {
		return b.gateway.List(ctx, b.actor, filter)
	})
}

// Open loads one challenge into the detail slot.
func (b *ChallengeBoard) Open(ctx context.Context, id string) error {
	return viewstate.RunSelected(ctx, b.Challenges, func(ctx context.Context) (*models.Challenge, error) {
		return b.gateway.Get(ctx, b.actor, id)
	})
}

// Join shows the caller as a participant, then stores the participation.
func (b *ChallengeBoard) Join(ctx context.Context, id string) (*models.ChallengeParticipant, error) {
	current, err := b.shown(id)
	if err != nil {
		return nil, err
	}
	draft := cloneChallenge(current)
	if draft.Participant(b.actor.UserID) == nil {
		draft.Participants = append(draft.Participants, models.ChallengeParticipant{
			UserID: b.actor.UserID, UserName: b.actor.FullName, JoinedAt: b.now(),
		})
		draft.ParticipantCount++
	}
	return viewstate.Commit(ctx, b.Challenges, viewstate.Optimistic[models.Challenge, *models.ChallengeParticipant]{
		Key:   challengeKey,
		Draft: draft,
		Persist: func(ctx context.Context) (*models.ChallengeParticipant, error) {
			return b.gateway.Join(ctx, b.actor, id)
		},
		Settle: b.settleParticipant,
	})
}

// Leave hides the caller's participation, then removes it on the server.
func (b *ChallengeBoard) Leave(ctx context.Context, id string) error {
	current, err := b.shown(id)
	if err != nil {
		return err
	}
	draft := cloneChallenge(current)
	kept := draft.Participants[:0]
	for _, p := range draft.Participants {
		if p.UserID != b.actor.UserID {
			kept = append(kept, p)
		}
	}
	if len(kept) < len(draft.Participants) && draft.ParticipantCount > 0 {
		draft.ParticipantCount--
	}
	draft.Participants = kept
	_, err = viewstate.Commit(ctx, b.Challenges, viewstate.Optimistic[models.Challenge, struct{}]{
		Key:   challengeKey,
		Draft: draft,
		Persist: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, b.gateway.Leave(ctx, b.actor, id)
		},
	})
	return err
}

// SetProgress shows the new progress, clamped to 0..100, then stores it.
func (b *ChallengeBoard) SetProgress(ctx context.Context, id string, progress int) (*models.ChallengeParticipant, error) {
	current, err := b.shown(id)
	if err != nil {
		return nil, err
	}
	draft := cloneChallenge(current)
	if p := draft.Participant(b.actor.UserID); p != nil {
		p.Progress = models.ClampProgress(progress)
	}
	return viewstate.Commit(ctx, b.Challenges, viewstate.Optimistic[models.Challenge, *models.ChallengeParticipant]{
		Key:   challengeKey,
		Draft: draft,
		Persist: func(ctx context.Context) (*models.ChallengeParticipant, error) {
			return b.gateway.SetProgress(ctx, b.actor, id, progress)
		},
		Settle: b.settleParticipant,
	})
}

// Complete checks the password on the server before anything is shown.
func (b *ChallengeBoard) Complete(ctx context.Context, id, password string) (*models.ChallengeParticipant, error) {
	return viewstate.Mutate(ctx, b.Challenges, func(ctx context.Context) (*models.ChallengeParticipant, error) {
		return b.gateway.Complete(ctx, b.actor, id, password)
	}, func(items []models.Challenge, stored *models.ChallengeParticipant) []models.Challenge {
		for i := range items {
			if items[i].ID == id {
				settled, _ := b.settleParticipant(items[i], stored)
				items[i] = settled
			}
		}
		return items
	})
}

// settleParticipant swaps the caller's optimistic entry for the stored one.
func (b *ChallengeBoard) settleParticipant(draft models.Challenge, stored *models.ChallengeParticipant) (models.Challenge, bool) {
	if stored == nil {
		return draft, true
	}
	settled := cloneChallenge(draft)
	if p := settled.Participant(stored.UserID); p != nil {
		*p = *stored
	} else {
		settled.Participants = append(settled.Participants, *stored)
		settled.ParticipantCount++
	}
	return settled, true
}

func (b *ChallengeBoard) shown(id string) (models.Challenge, error) {
	for _, c := range b.Challenges.Items() {
		if c.ID == id {
			return c, nil
		}
	}
	err := apperror.NotFound("challenge %s is not loaded", id)
	b.Challenges.Fail(err)
	return models.Challenge{}, err
}

// cloneChallenge copies c so edits to its participants do not leak into
// other snapshots.
func cloneChallenge(c models.Challenge) models.Challenge {
	c.Participants = append([]models.ChallengeParticipant(nil), c.Participants...)
	return c
}
