package service

import (
	"context"
	"fmt"
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

const defaultTeamSize = 10

// TeamService manages teams and the join request flow.
type TeamService interface {
	List(ctx context.Context, actor session.Actor, filter repository.TeamFilter) ([]models.Team, error)
	MyTeams(ctx context.Context, actor session.Actor) ([]models.Team, error)
	Get(ctx context.Context, actor session.Actor, id string) (*models.Team, error)
	Create(ctx context.Context, actor session.Actor, payload dto.TeamCreateRequest) (*models.Team, error)
	Update(ctx context.Context, actor session.Actor, id string, payload dto.TeamUpdateRequest) (*models.Team, error)
	Delete(ctx context.Context, actor session.Actor, id string) error
	RequestJoin(ctx context.Context, actor session.Actor, teamID string, payload dto.TeamJoinRequest) (*models.JoinRequest, error)
	ListRequests(ctx context.Context, actor session.Actor, teamID string) ([]models.JoinRequest, error)
	ApproveRequest(ctx context.Context, actor session.Actor, requestID string) error
	RejectRequest(ctx context.Context, actor session.Actor, requestID string) error
	Leave(ctx context.Context, actor session.Actor, teamID string) error
}

type teamService struct {
	repo      repository.TeamRepository
	notifier  Notifier
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewTeamService constructs the team service.
func NewTeamService(repo repository.TeamRepository, notifier Notifier, validate *validator.Validate, logger zerolog.Logger) TeamService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &teamService{
		repo:      repo,
		notifier:  notifier,
		validator: validate,
		logger:    componentLogger(logger, "team_service"),
		tracer:    otel.Tracer(tracerPrefix + "team"),
	}
}

// List returns public teams, plus private ones the caller belongs to.
func (s *teamService) List(ctx context.Context, actor session.Actor, filter repository.TeamFilter) ([]models.Team, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	teams, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	visible := teams[:0]
	for _, t := range teams {
		if t.IsPublic || actor.IsAdmin() || t.IsMember(actor.UserID) {
			visible = append(visible, t)
		}
	}
	return visible, nil
}

func (s *teamService) MyTeams(ctx context.Context, actor session.Actor) ([]models.Team, error) {
	return s.List(ctx, actor, repository.TeamFilter{MemberID: actor.UserID})
}

func (s *teamService) Get(ctx context.Context, actor session.Actor, id string) (*models.Team, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	team, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !team.IsPublic && !actor.IsAdmin() && !team.IsMember(actor.UserID) {
		return nil, apperror.NotFound("team not found")
	}
	return team, nil
}

func (s *teamService) Create(ctx context.Context, actor session.Actor, payload dto.TeamCreateRequest) (*models.Team, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "teams.create", trace.WithAttributes(
		attribute.String("team.category", payload.Category),
		attribute.String("team.leader_id", actor.UserID),
	))
	defer span.End()

	maxMembers := payload.MaxMembers
	if maxMembers == 0 {
		maxMembers = defaultTeamSize
	}
	public := true
	if payload.IsPublic != nil {
		public = *payload.IsPublic
	}

	team, err := s.repo.Create(ctx, &models.Team{
		Name:        strings.TrimSpace(payload.Name),
		Description: strings.TrimSpace(payload.Description),
		Category:    payload.Category,
		Status:      models.TeamStatusActive,
		MaxMembers:  maxMembers,
		IsPublic:    public,
		Tags:        normalizeTags(payload.Tags),
		LeaderID:    actor.UserID,
		LeaderName:  actor.FullName,
		Members: []models.TeamMember{{
			UserID: actor.UserID, FullName: actor.FullName, Email: actor.Email, Role: models.TeamRoleLeader,
		}},
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info().Str("team_id", team.ID).Str("leader_id", actor.UserID).Msg("team created")
	return team, nil
}

func (s *teamService) Update(ctx context.Context, actor session.Actor, id string, payload dto.TeamUpdateRequest) (*models.Team, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}
	team, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, team.LeaderID, "update this team"); err != nil {
		return nil, err
	}
	payload.Name = trimmed(payload.Name)
	payload.Description = trimmed(payload.Description)
	if payload.Tags != nil {
		tags := normalizeTags(*payload.Tags)
		payload.Tags = &tags
	}
	return s.repo.Update(ctx, id, payload)
}

func (s *teamService) Delete(ctx context.Context, actor session.Actor, id string) error {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return err
	}
	team, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if team != nil {
		if err := requireOwner(actor, team.LeaderID, "delete this team"); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *teamService) RequestJoin(ctx context.Context, actor session.Actor, teamID string, payload dto.TeamJoinRequest) (*models.JoinRequest, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}
	team, err := s.find(ctx, teamID)
	if err != nil {
		return nil, err
	}

	request, err := s.repo.RequestJoin(ctx, &models.JoinRequest{
		TeamID:    team.ID,
		TeamName:  team.Name,
		UserID:    actor.UserID,
		UserName:  actor.FullName,
		UserEmail: actor.Email,
		Message:   trimmed(payload.Message),
	})
	if err != nil {
		return nil, err
	}

	link := "/teams/" + team.ID
	s.notifier.Notify(ctx, dto.NotificationCreateRequest{
		UserID:      team.LeaderID,
		Type:        models.NotificationTeam,
		Title:       "New join request",
		Message:     fmt.Sprintf("%s wants to join %s", actor.FullName, team.Name),
		Link:        &link,
		ReferenceID: strPtr(request.ID),
	})
	return request, nil
}

func (s *teamService) ListRequests(ctx context.Context, actor session.Actor, teamID string) ([]models.JoinRequest, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	team, err := s.find(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, team.LeaderID, "view join requests for this team"); err != nil {
		return nil, err
	}
	return s.repo.ListRequests(ctx, teamID)
}

func (s *teamService) ApproveRequest(ctx context.Context, actor session.Actor, requestID string) error {
	return s.decide(ctx, actor, requestID, models.JoinRequestApproved)
}

func (s *teamService) RejectRequest(ctx context.Context, actor session.Actor, requestID string) error {
	return s.decide(ctx, actor, requestID, models.JoinRequestRejected)
}

func (s *teamService) decide(ctx context.Context, actor session.Actor, requestID, outcome string) error {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return err
	}
	ctx, span := s.tracer.Start(ctx, "teams.decide_request", trace.WithAttributes(
		attribute.String("team.request_id", requestID),
		attribute.String("team.outcome", outcome),
	))
	defer span.End()

	request, err := s.repo.FindRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request == nil {
		return apperror.NotFound("join request not found")
	}
	team, err := s.find(ctx, request.TeamID)
	if err != nil {
		return err
	}
	if err := requireOwner(actor, team.LeaderID, "handle join requests for this team"); err != nil {
		return err
	}

	if outcome == models.JoinRequestApproved {
		err = s.repo.ApproveRequest(ctx, requestID)
	} else {
		err = s.repo.RejectRequest(ctx, requestID)
	}
	if err != nil {
		span.RecordError(err)
		return err
	}

	link := "/teams/" + team.ID
	s.notifier.Notify(ctx, dto.NotificationCreateRequest{
		UserID:      request.UserID,
		Type:        models.NotificationTeam,
		Title:       "Join request " + outcome,
		Message:     fmt.Sprintf("Your request to join %s was %s", team.Name, outcome),
		Link:        &link,
		ReferenceID: strPtr(team.ID),
	})
	s.logger.Info().Str("request_id", requestID).Str("team_id", team.ID).Str("outcome", outcome).Msg("join request handled")
	return nil
}

func (s *teamService) Leave(ctx context.Context, actor session.Actor, teamID string) error {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return err
	}
	return s.repo.Leave(ctx, teamID, actor.UserID)
}

func (s *teamService) find(ctx context.Context, id string) (*models.Team, error) {
	team, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, apperror.NotFound("team not found")
	}
	return team, nil
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
