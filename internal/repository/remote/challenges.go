package remote

import (
	"context"
	"net/http"
	"strconv"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

type challengeRepository struct {
	client *Client
}

// NewChallengeRepository reads and writes /challenges.
func NewChallengeRepository(client *Client) repository.ChallengeRepository {
	return &challengeRepository{client: client}
}

func challengePath(id string) string {
	return "/challenges/" + segment(id)
}

func (r *challengeRepository) List(ctx context.Context, filter repository.ChallengeFilter) ([]models.Challenge, error) {
	path := "/challenges/"
	params := queryOf("challenge_type", filter.Type, "difficulty", filter.Difficulty)
	switch {
	case filter.UserID != "":
		path, params = "/challenges/my-challenges", nil
	case filter.ActiveOnly:
		path, params = "/challenges/active", nil
	}
	items, err := list[models.Challenge](ctx, r.client, path, params, failed("load challenges"))
	if err != nil {
		return nil, err
	}
	return keep(items, func(c models.Challenge) bool {
		return matches(filter.Type, c.ChallengeType) &&
			matches(filter.Difficulty, c.Difficulty) &&
			(!filter.ActiveOnly || c.IsActive)
	}), nil
}

func (r *challengeRepository) FindByID(ctx context.Context, id string) (*models.Challenge, error) {
	return find[models.Challenge](ctx, r.client, challengePath(id), failed("load challenge"))
}

func (r *challengeRepository) Create(ctx context.Context, challenge *models.Challenge) (*models.Challenge, error) {
	body := dto.ChallengeCreateRequest{
		Title:              challenge.Title,
		Description:        challenge.Description,
		ChallengeType:      challenge.ChallengeType,
		Difficulty:         challenge.Difficulty,
		Points:             challenge.Points,
		StartDate:          challenge.StartDate,
		EndDate:            challenge.EndDate,
		MaxParticipants:    challenge.MaxParticipants,
		CompletionPassword: challenge.CompletionPassword,
	}
	return submit[models.Challenge](ctx, r.client, http.MethodPost, "/challenges/", body, failed("create challenge"))
}

func (r *challengeRepository) Update(ctx context.Context, id string, patch dto.ChallengeUpdateRequest) (*models.Challenge, error) {
	return submit[models.Challenge](ctx, r.client, http.MethodPut, challengePath(id), patch, failed("update challenge"))
}

func (r *challengeRepository) Delete(ctx context.Context, id string) error {
	return exec(ctx, r.client, http.MethodDelete, challengePath(id), nil, failed("delete challenge"))
}

func (r *challengeRepository) Join(ctx context.Context, id string, _ models.ChallengeParticipant) (*models.ChallengeParticipant, error) {
	return submit[models.ChallengeParticipant](ctx, r.client, http.MethodPost, challengePath(id)+"/join", nil, failed("join challenge"))
}

func (r *challengeRepository) Leave(ctx context.Context, id, _ string) error {
	return exec(ctx, r.client, http.MethodPost, challengePath(id)+"/leave", nil, failed("leave challenge"))
}

func (r *challengeRepository) Complete(ctx context.Context, id, _ string, password string) (*models.ChallengeParticipant, error) {
	var out models.ChallengeParticipant
	err := r.client.do(ctx, call{
		method:  http.MethodPost,
		path:    challengePath(id) + "/complete",
		query:   queryOf("password", password),
		out:     &out,
		failure: failed("complete challenge"),
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *challengeRepository) SetProgress(ctx context.Context, id, _ string, progress int) (*models.ChallengeParticipant, error) {
	var out models.ChallengeParticipant
	err := r.client.do(ctx, call{
		method:  http.MethodPut,
		path:    challengePath(id) + "/progress",
		query:   queryOf("progress", strconv.Itoa(models.ClampProgress(progress))),
		out:     &out,
		failure: failed("update progress"),
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *challengeRepository) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	return list[models.LeaderboardEntry](ctx, r.client, "/challenges/leaderboard", queryOf("limit", strconv.Itoa(limit)), failed("load leaderboard"))
}
