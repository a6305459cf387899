package local

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

type issueRepository struct {
	items *collection[models.Issue]
}

// NewIssueRepository stores issues under mock_issues.
func NewIssueRepository(store *Store) repository.IssueRepository {
	return &issueRepository{items: newCollection(store, "issues", seedIssues)}
}

func (r *issueRepository) List(ctx context.Context, filter repository.IssueFilter) ([]models.Issue, error) {
	items, err := r.items.all(ctx, "list")
	if err != nil {
		return nil, err
	}
	return filterItems(items, func(i models.Issue) bool {
		return matches(filter.Category, i.Category) &&
			matches(filter.Status, i.Status) &&
			matches(filter.Priority, i.Priority) &&
			matches(filter.ReporterID, i.ReporterID) &&
			containsFold(filter.Search, i.Title, i.Description)
	}), nil
}

func (r *issueRepository) FindByID(ctx context.Context, id string) (*models.Issue, error) {
	items, err := r.items.all(ctx, "find")
	if err != nil {
		return nil, err
	}
	if i := indexOf(items, func(i models.Issue) bool { return i.ID == id }); i >= 0 {
		return &items[i], nil
	}
	return nil, nil
}

func (r *issueRepository) Create(ctx context.Context, issue *models.Issue) (*models.Issue, error) {
	created := *issue
	err := r.items.mutate(ctx, "create", func(items []models.Issue) ([]models.Issue, error) {
		now := r.items.store.now()
		created.ID = uuid.NewString()
		if created.Status == "" {
			created.Status = models.IssueStatusOpen
		}
		created.ResolvedAt = nil
		created.CreatedAt = now
		created.UpdatedAt = now
		return prepend(items, created), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *issueRepository) Update(ctx context.Context, id string, patch dto.IssueUpdateRequest) (*models.Issue, error) {
	return r.modify(ctx, "update", id, func(i *models.Issue) {
		setIf(&i.Title, patch.Title)
		setIf(&i.Description, patch.Description)
		setIf(&i.Category, patch.Category)
		setIf(&i.Priority, patch.Priority)
		setRef(&i.Location, patch.Location)
		setRef(&i.ImageURL, patch.ImageURL)
		if patch.Status != nil {
			i.SetStatus(*patch.Status, i.UpdatedAt)
		}
	})
}

func (r *issueRepository) UpdateStatus(ctx context.Context, id, status string) (*models.Issue, error) {
	return r.modify(ctx, "update_status", id, func(i *models.Issue) {
		i.SetStatus(status, i.UpdatedAt)
	})
}

func (r *issueRepository) Assign(ctx context.Context, id, assigneeID, assigneeName string) (*models.Issue, error) {
	return r.modify(ctx, "assign", id, func(i *models.Issue) {
		i.AssignedTo = &assigneeID
		i.AssignedToName = &assigneeName
	})
}

// modify applies fn and refreshes updated_at. A first move to resolved is
// stamped with the same instant.
func (r *issueRepository) modify(ctx context.Context, action, id string, fn func(*models.Issue)) (*models.Issue, error) {
	var updated models.Issue
	err := r.items.mutate(ctx, action, func(items []models.Issue) ([]models.Issue, error) {
		idx := indexOf(items, func(i models.Issue) bool { return i.ID == id })
		if idx < 0 {
			return nil, apperror.NotFound("issue not found")
		}
		issue := &items[idx]
		wasResolved := issue.ResolvedAt != nil
		fn(issue)
		now := r.items.store.touch(issue.UpdatedAt)
		issue.UpdatedAt = now
		if !wasResolved && issue.ResolvedAt != nil {
			issue.ResolvedAt = &now
		}
		updated = *issue
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *issueRepository) Delete(ctx context.Context, id string) error {
	return r.items.mutate(ctx, "delete", func(items []models.Issue) ([]models.Issue, error) {
		return filterItems(items, func(i models.Issue) bool { return i.ID != id }), nil
	})
}
