package remote

import (
	"context"
	"net/http"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

type announcementRepository struct {
	client *Client
}

// NewAnnouncementRepository reads and writes /announcements.
func NewAnnouncementRepository(client *Client) repository.AnnouncementRepository {
	return &announcementRepository{client: client}
}

func (r *announcementRepository) List(ctx context.Context, filter repository.AnnouncementFilter) ([]models.Announcement, error) {
	items, err := list[models.Announcement](ctx, r.client, "/announcements/", queryOf("category", filter.Category), failed("load announcements"))
	if err != nil {
		return nil, err
	}
	return keep(items, func(a models.Announcement) bool {
		return matches(filter.Category, a.Category) &&
			matches(filter.Priority, a.Priority) &&
			containsFold(filter.Search, a.Title, a.Content)
	}), nil
}

func (r *announcementRepository) FindByID(ctx context.Context, id string) (*models.Announcement, error) {
	return find[models.Announcement](ctx, r.client, "/announcements/"+segment(id), failed("load announcement"))
}

func (r *announcementRepository) Create(ctx context.Context, item *models.Announcement) (*models.Announcement, error) {
	body := dto.AnnouncementCreateRequest{
		Title:        item.Title,
		Content:      item.Content,
		Category:     item.Category,
		Priority:     item.Priority,
		TargetYear:   item.TargetYear,
		TargetBranch: item.TargetBranch,
		IsPinned:     item.IsPinned,
		ScheduledAt:  item.ScheduledAt,
		ExpiresAt:    item.ExpiresAt,
	}
	return submit[models.Announcement](ctx, r.client, http.MethodPost, "/announcements/", body, failed("create announcement"))
}

func (r *announcementRepository) Update(ctx context.Context, id string, patch dto.AnnouncementUpdateRequest) (*models.Announcement, error) {
	return submit[models.Announcement](ctx, r.client, http.MethodPut, "/announcements/"+segment(id), patch, failed("update announcement"))
}

func (r *announcementRepository) Delete(ctx context.Context, id string) error {
	return exec(ctx, r.client, http.MethodDelete, "/announcements/"+segment(id), nil, failed("delete announcement"))
}
