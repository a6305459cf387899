package local

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

type announcementRepository struct {
	items *collection[models.Announcement]
}

// NewAnnouncementRepository stores announcements under mock_announcements.
func NewAnnouncementRepository(store *Store) repository.AnnouncementRepository {
	return &announcementRepository{items: newCollection(store, "announcements", seedAnnouncements)}
}

func (r *announcementRepository) List(ctx context.Context, filter repository.AnnouncementFilter) ([]models.Announcement, error) {
	items, err := r.items.all(ctx, "list")
	if err != nil {
		return nil, err
	}
	return filterItems(items, func(a models.Announcement) bool {
		return matches(filter.Category, a.Category) &&
			matches(filter.Priority, a.Priority) &&
			containsFold(filter.Search, a.Title, a.Content)
	}), nil
}

func (r *announcementRepository) FindByID(ctx context.Context, id string) (*models.Announcement, error) {
	items, err := r.items.all(ctx, "find")
	if err != nil {
		return nil, err
	}
	if i := indexOf(items, func(a models.Announcement) bool { return a.ID == id }); i >= 0 {
		return &items[i], nil
	}
	return nil, nil
}

func (r *announcementRepository) Create(ctx context.Context, item *models.Announcement) (*models.Announcement, error) {
	created := *item
	err := r.items.mutate(ctx, "create", func(items []models.Announcement) ([]models.Announcement, error) {
		now := r.items.store.now()
		created.ID = uuid.NewString()
		created.CreatedAt = now
		created.UpdatedAt = now
		return prepend(items, created), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *announcementRepository) Update(ctx context.Context, id string, patch dto.AnnouncementUpdateRequest) (*models.Announcement, error) {
	var updated models.Announcement
	err := r.items.mutate(ctx, "update", func(items []models.Announcement) ([]models.Announcement, error) {
		i := indexOf(items, func(a models.Announcement) bool { return a.ID == id })
		if i < 0 {
			return nil, apperror.NotFound("announcement not found")
		}
		a := &items[i]
		setIf(&a.Title, patch.Title)
		setIf(&a.Content, patch.Content)
		setIf(&a.Category, patch.Category)
		setIf(&a.Priority, patch.Priority)
		setIf(&a.IsPinned, patch.IsPinned)
		setIf(&a.IsActive, patch.IsActive)
		setRef(&a.TargetYear, patch.TargetYear)
		setRef(&a.TargetBranch, patch.TargetBranch)
		setRef(&a.ScheduledAt, patch.ScheduledAt)
		setRef(&a.ExpiresAt, patch.ExpiresAt)
		a.UpdatedAt = r.items.store.touch(a.UpdatedAt)
		updated = *a
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *announcementRepository) Delete(ctx context.Context, id string) error {
	return r.items.mutate(ctx, "delete", func(items []models.Announcement) ([]models.Announcement, error) {
		return filterItems(items, func(a models.Announcement) bool { return a.ID != id }), nil
	})
}
