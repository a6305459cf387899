package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
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

// IssueService handles campus issue reports.
type IssueService interface {
	List(ctx context.Context, actor session.Actor, filter repository.IssueFilter) ([]models.Issue, error)
	Get(ctx context.Context, actor session.Actor, id string) (*models.Issue, error)
	Create(ctx context.Context, actor session.Actor, payload dto.IssueCreateRequest) (*models.Issue, error)
	Update(ctx context.Context, actor session.Actor, id string, payload dto.IssueUpdateRequest) (*models.Issue, error)
	UpdateStatus(ctx context.Context, actor session.Actor, id string, payload dto.IssueStatusRequest) (*models.Issue, error)
	Assign(ctx context.Context, actor session.Actor, id, assigneeID string) (*models.Issue, error)
	AttachImage(ctx context.Context, actor session.Actor, id, imageURL string) (*models.Issue, error)
	Delete(ctx context.Context, actor session.Actor, id string) error
}

type issueService struct {
	repo      repository.IssueRepository
	users     repository.UserRepository
	notifier  Notifier
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	sanitizer *bluemonday.Policy
}

// NewIssueService constructs the issue service.
func NewIssueService(repo repository.IssueRepository, users repository.UserRepository, notifier Notifier, validate *validator.Validate, logger zerolog.Logger) IssueService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &issueService{
		repo:      repo,
		users:     users,
		notifier:  notifier,
		validator: validate,
		logger:    componentLogger(logger, "issue_service"),
		tracer:    otel.Tracer(tracerPrefix + "issue"),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *issueService) List(ctx context.Context, actor session.Actor, filter repository.IssueFilter) ([]models.Issue, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, filter)
}

func (s *issueService) Get(ctx context.Context, actor session.Actor, id string) (*models.Issue, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *issueService) Create(ctx context.Context, actor session.Actor, payload dto.IssueCreateRequest) (*models.Issue, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "issues.create", trace.WithAttributes(
		attribute.String("issue.category", payload.Category),
		attribute.String("issue.reporter_id", actor.UserID),
	))
	defer span.End()

	priority := payload.Priority
	if priority == "" {
		priority = models.IssuePriorityMedium
	}
	description := s.clean(payload.Description)
	if description == "" {
		return nil, apperror.Validation("description is empty after sanitization")
	}

	created, err := s.repo.Create(ctx, &models.Issue{
		Title:        s.clean(payload.Title),
		Description:  description,
		Category:     payload.Category,
		Priority:     priority,
		Status:       models.IssueStatusOpen,
		Location:     trimmed(payload.Location),
		ReporterID:   actor.UserID,
		ReporterName: actor.FullName,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info().Str("issue_id", created.ID).Str("reporter_id", actor.UserID).Msg("issue reported")
	return created, nil
}

// Update lets the reporter edit their issue. Status changes through this
// path are reserved for staff.
func (s *issueService) Update(ctx context.Context, actor session.Actor, id string, payload dto.IssueUpdateRequest) (*models.Issue, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}
	issue, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, issue.ReporterID, "edit this issue"); err != nil {
		return nil, err
	}
	if payload.Status != nil && *payload.Status != issue.Status {
		if err := requireStaff(actor, "change issue status"); err != nil {
			return nil, err
		}
	}
	if payload.Title != nil {
		payload.Title = strPtr(s.clean(*payload.Title))
	}
	if payload.Description != nil {
		payload.Description = strPtr(s.clean(*payload.Description))
	}
	payload.Location = trimmed(payload.Location)

	updated, err := s.repo.Update(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	if payload.Status != nil && *payload.Status != issue.Status {
		s.notifyStatus(ctx, actor, *updated)
	}
	return updated, nil
}

func (s *issueService) UpdateStatus(ctx context.Context, actor session.Actor, id string, payload dto.IssueStatusRequest) (*models.Issue, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := requireStaff(actor, "change issue status"); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "issues.update_status", trace.WithAttributes(
		attribute.String("issue.id", id),
		attribute.String("issue.status", payload.Status),
	))
	defer span.End()

	updated, err := s.repo.UpdateStatus(ctx, id, payload.Status)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.notifyStatus(ctx, actor, *updated)
	return updated, nil
}

func (s *issueService) Assign(ctx context.Context, actor session.Actor, id, assigneeID string) (*models.Issue, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := requireStaff(actor, "assign issues"); err != nil {
		return nil, err
	}
	assigneeID = strings.TrimSpace(assigneeID)
	if assigneeID == "" {
		return nil, apperror.Validation("assignee is required")
	}

	name := assigneeID
	if assigneeID == actor.UserID {
		name = actor.FullName
	} else if s.users != nil {
		user, err := s.users.FindByID(ctx, assigneeID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, apperror.Validation("user %s does not exist", assigneeID)
		}
		name = user.FullName
	}

	updated, err := s.repo.Assign(ctx, id, assigneeID, name)
	if err != nil {
		return nil, err
	}
	if assigneeID != actor.UserID {
		link := "/issues/" + updated.ID
		s.notifier.Notify(ctx, dto.NotificationCreateRequest{
			UserID:      assigneeID,
			Type:        models.NotificationIssue,
			Title:       "Issue assigned to you",
			Message:     updated.Title,
			Link:        &link,
			ReferenceID: strPtr(updated.ID),
		})
	}
	return updated, nil
}

func (s *issueService) AttachImage(ctx context.Context, actor session.Actor, id, imageURL string) (*models.Issue, error) {
	return s.Update(ctx, actor, id, dto.IssueUpdateRequest{ImageURL: &imageURL})
}

func (s *issueService) Delete(ctx context.Context, actor session.Actor, id string) error {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return err
	}
	issue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if issue != nil {
		if err := requireOwner(actor, issue.ReporterID, "delete this issue"); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *issueService) find(ctx context.Context, id string) (*models.Issue, error) {
	issue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if issue == nil {
		return nil, apperror.NotFound("issue not found")
	}
	return issue, nil
}

func (s *issueService) notifyStatus(ctx context.Context, actor session.Actor, issue models.Issue) {
	if issue.ReporterID == actor.UserID {
		return
	}
	link := "/issues/" + issue.ID
	s.notifier.Notify(ctx, dto.NotificationCreateRequest{
		UserID:      issue.ReporterID,
		Type:        models.NotificationIssue,
		Title:       "Issue status updated",
		Message:     fmt.Sprintf("%q is now %s", issue.Title, strings.ReplaceAll(issue.Status, "_", " ")),
		Link:        &link,
		ReferenceID: strPtr(issue.ID),
	})
}

func (s *issueService) clean(value string) string {
	return plainText(s.sanitizer, value)
}
