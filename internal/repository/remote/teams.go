package remote

import (
	"context"
	"net/http"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/session"
)

type teamRepository struct {
	client *Client
}

// NewTeamRepository reads and writes /teams.
func NewTeamRepository(client *Client) repository.TeamRepository {
	return &teamRepository{client: client}
}

func teamPath(id string) string {
	return "/teams/" + segment(id)
}

func (r *teamRepository) List(ctx context.Context, filter repository.TeamFilter) ([]models.Team, error) {
	var (
		items []models.Team
		err   error
	)
	if filter.MemberID != "" {
		items, err = list[models.Team](ctx, r.client, "/teams/my-teams", nil, failed("load teams"))
	} else {
		params := queryOf("category", filter.Category, "status", filter.Status, "search", filter.Search)
		items, err = list[models.Team](ctx, r.client, "/teams/", params, failed("load teams"))
	}
	if err != nil {
		return nil, err
	}
	return keep(items, func(t models.Team) bool {
		return matches(filter.Category, t.Category) &&
			matches(filter.Status, t.Status) &&
			containsFold(filter.Search, t.Name, t.Description) &&
			(filter.MemberID == "" || t.LeaderID == filter.MemberID || t.IsMember(filter.MemberID))
	}), nil
}

func (r *teamRepository) FindByID(ctx context.Context, id string) (*models.Team, error) {
	return find[models.Team](ctx, r.client, teamPath(id), failed("load team"))
}

func (r *teamRepository) Create(ctx context.Context, team *models.Team) (*models.Team, error) {
	public := team.IsPublic
	body := dto.TeamCreateRequest{
		Name:        team.Name,
		Description: team.Description,
		Category:    team.Category,
		MaxMembers:  team.MaxMembers,
		IsPublic:    &public,
		Tags:        team.Tags,
	}
	return submit[models.Team](ctx, r.client, http.MethodPost, "/teams/", body, failed("create team"))
}

func (r *teamRepository) Update(ctx context.Context, id string, patch dto.TeamUpdateRequest) (*models.Team, error) {
	return submit[models.Team](ctx, r.client, http.MethodPut, teamPath(id), patch, failed("update team"))
}

func (r *teamRepository) Delete(ctx context.Context, id string) error {
	return exec(ctx, r.client, http.MethodDelete, teamPath(id), nil, failed("delete team"))
}

// RequestJoin sends the note as a query parameter, which is how the upstream reads it.
func (r *teamRepository) RequestJoin(ctx context.Context, request *models.JoinRequest) (*models.JoinRequest, error) {
	params := queryOf()
	if request.Message != nil {
		params.Set("message", *request.Message)
	}
	var ack struct {
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	}
	err := r.client.do(ctx, call{
		method:  http.MethodPost,
		path:    teamPath(request.TeamID) + "/join",
		query:   params,
		out:     &ack,
		failure: failed("send join request"),
	})
	if err != nil {
		return nil, err
	}
	created := *request
	created.ID = ack.RequestID
	created.Status = models.JoinRequestPending
	return &created, nil
}

func (r *teamRepository) ListRequests(ctx context.Context, teamID string) ([]models.JoinRequest, error) {
	return list[models.JoinRequest](ctx, r.client, teamPath(teamID)+"/requests", nil, failed("load join requests"))
}

// FindRequest has no upstream endpoint. It scans the pending requests of the
// teams the caller leads, which are the only ones the caller may decide.
func (r *teamRepository) FindRequest(ctx context.Context, requestID string) (*models.JoinRequest, error) {
	actor, _ := session.FromContext(ctx)
	teams, err := list[models.Team](ctx, r.client, "/teams/my-teams", nil, failed("load teams"))
	if err != nil {
		return nil, err
	}
	for _, team := range teams {
		if team.LeaderID != actor.UserID {
			continue
		}
		requests, err := r.ListRequests(ctx, team.ID)
		if err != nil {
			return nil, err
		}
		for i := range requests {
			if requests[i].ID == requestID {
				return &requests[i], nil
			}
		}
	}
	return nil, nil
}

func (r *teamRepository) ApproveRequest(ctx context.Context, requestID string) error {
	return exec(ctx, r.client, http.MethodPost, "/teams/requests/"+segment(requestID)+"/approve", nil, failed("approve join request"))
}

func (r *teamRepository) RejectRequest(ctx context.Context, requestID string) error {
	return exec(ctx, r.client, http.MethodPost, "/teams/requests/"+segment(requestID)+"/reject", nil, failed("reject join request"))
}

func (r *teamRepository) Leave(ctx context.Context, teamID, userID string) error {
	return exec(ctx, r.client, http.MethodPost, teamPath(teamID)+"/leave", nil, failed("leave team"))
}
