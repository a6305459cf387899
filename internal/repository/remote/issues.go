package remote

import (
	"context"
	"net/http"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/session"
)

type issueRepository struct {
	client *Client
}

// NewIssueRepository reads and writes /issues.
func NewIssueRepository(client *Client) repository.IssueRepository {
	return &issueRepository{client: client}
}

func issuePath(id string) string {
	return "/issues/" + segment(id)
}

func (r *issueRepository) List(ctx context.Context, filter repository.IssueFilter) ([]models.Issue, error) {
	params := queryOf("category", filter.Category, "status", filter.Status, "priority", filter.Priority)
	if filter.ReporterID != "" {
		if actor, ok := session.FromContext(ctx); ok && actor.UserID == filter.ReporterID {
			params.Set("my_issues", "true")
		}
	}
	items, err := list[models.Issue](ctx, r.client, "/issues/", params, failed("load issues"))
	if err != nil {
		return nil, err
	}
	return keep(items, func(i models.Issue) bool {
		return matches(filter.Category, i.Category) &&
			matches(filter.Status, i.Status) &&
			matches(filter.Priority, i.Priority) &&
			matches(filter.ReporterID, i.ReporterID) &&
			containsFold(filter.Search, i.Title, i.Description)
	}), nil
}

func (r *issueRepository) FindByID(ctx context.Context, id string) (*models.Issue, error) {
	return find[models.Issue](ctx, r.client, issuePath(id), failed("load issue"))
}

func (r *issueRepository) Create(ctx context.Context, issue *models.Issue) (*models.Issue, error) {
	body := dto.IssueCreateRequest{
		Title:       issue.Title,
		Description: issue.Description,
		Category:    issue.Category,
		Priority:    issue.Priority,
		Location:    issue.Location,
	}
	return submit[models.Issue](ctx, r.client, http.MethodPost, "/issues/", body, failed("report issue"))
}

func (r *issueRepository) Update(ctx context.Context, id string, patch dto.IssueUpdateRequest) (*models.Issue, error) {
	return submit[models.Issue](ctx, r.client, http.MethodPut, issuePath(id), patch, failed("update issue"))
}

func (r *issueRepository) UpdateStatus(ctx context.Context, id, status string) (*models.Issue, error) {
	return submit[models.Issue](ctx, r.client, http.MethodPatch, issuePath(id)+"/status", dto.IssueStatusRequest{Status: status}, failed("update issue status"))
}

// Assign returns the reloaded issue; the upstream answers with a bare message.
func (r *issueRepository) Assign(ctx context.Context, id, assigneeID, assigneeName string) (*models.Issue, error) {
	if err := exec(ctx, r.client, http.MethodPatch, issuePath(id)+"/assign/"+segment(assigneeID), nil, failed("assign issue")); err != nil {
		return nil, err
	}
	issue, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if issue == nil {
		return nil, apperror.NotFound("issue not found")
	}
	return issue, nil
}

func (r *issueRepository) Delete(ctx context.Context, id string) error {
	return exec(ctx, r.client, http.MethodDelete, issuePath(id), nil, failed("delete issue"))
}
