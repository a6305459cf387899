package local

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

type teamRepository struct {
	store    *Store
	teams    *collection[models.Team]
	requests *collection[models.JoinRequest]
}

// NewTeamRepository stores teams under mock_teams and join requests under
// mock_join_requests.
func NewTeamRepository(store *Store) repository.TeamRepository {
	return &teamRepository{
		store:    store,
		teams:    newCollection(store, "teams", seedTeams),
		requests: newCollection(store, "join_requests", seedJoinRequests),
	}
}

func (r *teamRepository) List(ctx context.Context, filter repository.TeamFilter) ([]models.Team, error) {
	teams, err := r.teams.all(ctx, "list")
	if err != nil {
		return nil, err
	}
	return filterItems(teams, func(t models.Team) bool {
		search := append([]string{t.Name, t.Description}, t.Tags...)
		return matches(filter.Category, t.Category) &&
			matches(filter.Status, t.Status) &&
			(filter.MemberID == "" || t.IsMember(filter.MemberID)) &&
			containsFold(filter.Search, search...)
	}), nil
}

func (r *teamRepository) FindByID(ctx context.Context, id string) (*models.Team, error) {
	teams, err := r.teams.all(ctx, "find")
	if err != nil {
		return nil, err
	}
	if i := indexOf(teams, func(t models.Team) bool { return t.ID == id }); i >= 0 {
		return &teams[i], nil
	}
	return nil, nil
}

// Create stores the team. Without explicit members the leader is the only one.
func (r *teamRepository) Create(ctx context.Context, team *models.Team) (*models.Team, error) {
	created := *team
	err := r.teams.mutate(ctx, "create", func(teams []models.Team) ([]models.Team, error) {
		now := r.store.now()
		created.ID = uuid.NewString()
		if created.Status == "" {
			created.Status = models.TeamStatusActive
		}
		if len(created.Members) == 0 {
			created.Members = []models.TeamMember{{
				UserID:   created.LeaderID,
				FullName: created.LeaderName,
				Role:     models.TeamRoleLeader,
			}}
		}
		created.Members = append([]models.TeamMember(nil), created.Members...)
		for i := range created.Members {
			created.Members[i].JoinedAt = now
		}
		created.CurrentMembers = len(created.Members)
		created.CreatedAt = now
		created.UpdatedAt = now
		return prepend(teams, created), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *teamRepository) Update(ctx context.Context, id string, patch dto.TeamUpdateRequest) (*models.Team, error) {
	var updated models.Team
	err := r.teams.mutate(ctx, "update", func(teams []models.Team) ([]models.Team, error) {
		i := indexOf(teams, func(t models.Team) bool { return t.ID == id })
		if i < 0 {
			return nil, apperror.NotFound("team not found")
		}
		t := &teams[i]
		if patch.MaxMembers != nil && *patch.MaxMembers < t.CurrentMembers {
			return nil, apperror.Validation("max_members cannot be below the current member count (%d)", t.CurrentMembers)
		}
		setIf(&t.Name, patch.Name)
		setIf(&t.Description, patch.Description)
		setIf(&t.Category, patch.Category)
		setIf(&t.MaxMembers, patch.MaxMembers)
		setIf(&t.IsPublic, patch.IsPublic)
		setIf(&t.Status, patch.Status)
		setIf(&t.Tags, patch.Tags)
		t.UpdatedAt = r.store.touch(t.UpdatedAt)
		updated = *t
		return teams, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *teamRepository) Delete(ctx context.Context, id string) error {
	return mutatePair(ctx, "delete", r.teams, r.requests, func(teams []models.Team, requests []models.JoinRequest) ([]models.Team, []models.JoinRequest, error) {
		teams = filterItems(teams, func(t models.Team) bool { return t.ID != id })
		requests = filterItems(requests, func(jr models.JoinRequest) bool { return jr.TeamID != id })
		return teams, requests, nil
	})
}

// RequestJoin files a pending request. Members, duplicate pending requests
// and full teams are rejected.
func (r *teamRepository) RequestJoin(ctx context.Context, request *models.JoinRequest) (*models.JoinRequest, error) {
	created := *request
	err := mutatePair(ctx, "request_join", r.teams, r.requests, func(teams []models.Team, requests []models.JoinRequest) ([]models.Team, []models.JoinRequest, error) {
		i := indexOf(teams, func(t models.Team) bool { return t.ID == created.TeamID })
		if i < 0 {
			return nil, nil, apperror.NotFound("team not found")
		}
		team := teams[i]
		if team.IsMember(created.UserID) {
			return nil, nil, apperror.Conflict("already a member of this team")
		}
		pending := indexOf(requests, func(jr models.JoinRequest) bool {
			return jr.TeamID == created.TeamID && jr.UserID == created.UserID && jr.Status == models.JoinRequestPending
		})
		if pending >= 0 {
			return nil, nil, apperror.Conflict("a join request is already pending")
		}
		if team.Full() {
			return nil, nil, apperror.Conflict("team is full")
		}
		now := r.store.now()
		created.ID = uuid.NewString()
		created.TeamName = team.Name
		created.Status = models.JoinRequestPending
		created.CreatedAt = now
		created.UpdatedAt = now
		return teams, prepend(requests, created), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *teamRepository) ListRequests(ctx context.Context, teamID string) ([]models.JoinRequest, error) {
	requests, err := r.requests.all(ctx, "list_requests")
	if err != nil {
		return nil, err
	}
	return filterItems(requests, func(jr models.JoinRequest) bool {
		return jr.TeamID == teamID && jr.Status == models.JoinRequestPending
	}), nil
}

func (r *teamRepository) FindRequest(ctx context.Context, requestID string) (*models.JoinRequest, error) {
	requests, err := r.requests.all(ctx, "find_request")
	if err != nil {
		return nil, err
	}
	if i := indexOf(requests, func(jr models.JoinRequest) bool { return jr.ID == requestID }); i >= 0 {
		return &requests[i], nil
	}
	return nil, nil
}

// ApproveRequest adds the requester as a member. A full team is a conflict.
func (r *teamRepository) ApproveRequest(ctx context.Context, requestID string) error {
	return mutatePair(ctx, "approve_request", r.teams, r.requests, func(teams []models.Team, requests []models.JoinRequest) ([]models.Team, []models.JoinRequest, error) {
		ri := indexOf(requests, func(jr models.JoinRequest) bool { return jr.ID == requestID })
		if ri < 0 {
			return nil, nil, apperror.NotFound("join request not found")
		}
		jr := &requests[ri]
		if jr.Status != models.JoinRequestPending {
			return nil, nil, apperror.Conflict("join request already %s", jr.Status)
		}
		ti := indexOf(teams, func(t models.Team) bool { return t.ID == jr.TeamID })
		if ti < 0 {
			return nil, nil, apperror.NotFound("team not found")
		}
		t := &teams[ti]
		if t.Full() {
			return nil, nil, apperror.Conflict("team is full")
		}
		now := r.store.touch(t.UpdatedAt)
		if !t.IsMember(jr.UserID) {
			t.Members = append(t.Members, models.TeamMember{
				UserID:   jr.UserID,
				FullName: jr.UserName,
				Email:    jr.UserEmail,
				Role:     models.TeamRoleMember,
				JoinedAt: now,
			})
			t.CurrentMembers++
		}
		t.UpdatedAt = now
		jr.Status = models.JoinRequestApproved
		jr.UpdatedAt = r.store.touch(jr.UpdatedAt)
		return teams, requests, nil
	})
}

func (r *teamRepository) RejectRequest(ctx context.Context, requestID string) error {
	return r.requests.mutate(ctx, "reject_request", func(requests []models.JoinRequest) ([]models.JoinRequest, error) {
		i := indexOf(requests, func(jr models.JoinRequest) bool { return jr.ID == requestID })
		if i < 0 {
			return nil, apperror.NotFound("join request not found")
		}
		jr := &requests[i]
		if jr.Status != models.JoinRequestPending {
			return nil, apperror.Conflict("join request already %s", jr.Status)
		}
		jr.Status = models.JoinRequestRejected
		jr.UpdatedAt = r.store.touch(jr.UpdatedAt)
		return requests, nil
	})
}

// Leave removes a member. The leader cannot leave and the count never
// drops below one.
func (r *teamRepository) Leave(ctx context.Context, teamID, userID string) error {
	return r.teams.mutate(ctx, "leave", func(teams []models.Team) ([]models.Team, error) {
		i := indexOf(teams, func(t models.Team) bool { return t.ID == teamID })
		if i < 0 {
			return nil, apperror.NotFound("team not found")
		}
		t := &teams[i]
		if t.LeaderID == userID {
			return nil, apperror.Conflict("the team leader cannot leave the team")
		}
		if !t.IsMember(userID) {
			return nil, apperror.NotFound("not a member of this team")
		}
		t.Members = filterItems(t.Members, func(m models.TeamMember) bool { return m.UserID != userID })
		if t.CurrentMembers > 1 {
			t.CurrentMembers--
		}
		t.UpdatedAt = r.store.touch(t.UpdatedAt)
		return teams, nil
	})
}
