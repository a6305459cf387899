package remote

import (
	"context"
	"net/http"
	"strconv"

	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

type notificationRepository struct {
	client *Client
}

// NewNotificationRepository reads and writes the caller's /notifications.
func NewNotificationRepository(client *Client) repository.NotificationRepository {
	return &notificationRepository{client: client}
}

func (r *notificationRepository) List(ctx context.Context, filter repository.NotificationFilter) ([]models.Notification, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	params := queryOf("limit", strconv.Itoa(limit), "notification_type", filter.Type)
	if filter.UnreadOnly {
		params.Set("unread_only", "true")
	}
	items, err := list[models.Notification](ctx, r.client, "/notifications/", params, failed("load notifications"))
	if err != nil {
		return nil, err
	}
	return keep(items, func(n models.Notification) bool {
		return matches(filter.Type, n.Type) && (!filter.UnreadOnly || !n.IsRead)
	}), nil
}

func (r *notificationRepository) Stats(ctx context.Context, _ string) (models.NotificationStats, error) {
	stats, err := submit[models.NotificationStats](ctx, r.client, http.MethodGet, "/notifications/stats", nil, failed("load notification stats"))
	if err != nil {
		return models.NotificationStats{}, err
	}
	if stats.ByType == nil {
		stats.ByType = map[string]int{}
	}
	return *stats, nil
}

// Create is not offered upstream: the backend raises its own notifications.
func (r *notificationRepository) Create(context.Context, *models.Notification) (*models.Notification, error) {
	return nil, notUpstream("notification creation")
}

func (r *notificationRepository) CreateMany(context.Context, []models.Notification) ([]models.Notification, error) {
	return nil, notUpstream("notification creation")
}

func (r *notificationRepository) MarkRead(ctx context.Context, _ string, id string) (*models.Notification, error) {
	return submit[models.Notification](ctx, r.client, http.MethodPut, "/notifications/"+segment(id)+"/read", nil, failed("mark notification read"))
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, _ string) (int, error) {
	out, err := submit[struct {
		MarkedAsRead int `json:"marked_as_read"`
	}](ctx, r.client, http.MethodPut, "/notifications/read-all", nil, failed("mark notifications read"))
	if err != nil {
		return 0, err
	}
	return out.MarkedAsRead, nil
}

func (r *notificationRepository) Delete(ctx context.Context, _ string, id string) error {
	return exec(ctx, r.client, http.MethodDelete, "/notifications/"+segment(id), nil, failed("delete notification"))
}
