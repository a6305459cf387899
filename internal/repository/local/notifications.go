package local

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

const defaultNotificationLimit = 50

type notificationRepository struct {
	store *Store
	items *collection[models.Notification]
}

// NewNotificationRepository stores notifications under mock_notifications.
func NewNotificationRepository(store *Store) repository.NotificationRepository {
	return &notificationRepository{store: store, items: newCollection(store, "notifications", seedNotifications)}
}

// List returns the user's notifications, newest first.
func (r *notificationRepository) List(ctx context.Context, filter repository.NotificationFilter) ([]models.Notification, error) {
	items, err := r.items.all(ctx, "list")
	if err != nil {
		return nil, err
	}
	out := filterItems(items, func(n models.Notification) bool {
		return n.UserID == filter.UserID &&
			matches(filter.Type, n.Type) &&
			(!filter.UnreadOnly || !n.IsRead)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *notificationRepository) Stats(ctx context.Context, userID string) (models.NotificationStats, error) {
	items, err := r.items.all(ctx, "stats")
	if err != nil {
		return models.NotificationStats{}, err
	}
	return models.StatsOf(filterItems(items, func(n models.Notification) bool { return n.UserID == userID })), nil
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) (*models.Notification, error) {
	created, err := r.CreateMany(ctx, []models.Notification{*notification})
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

// CreateMany prepends the batch in one collection write, so a fan-out pays
// the simulated latency once.
func (r *notificationRepository) CreateMany(ctx context.Context, notifications []models.Notification) ([]models.Notification, error) {
	if len(notifications) == 0 {
		return []models.Notification{}, nil
	}
	created := make([]models.Notification, len(notifications))
	err := r.items.mutate(ctx, "create", func(items []models.Notification) ([]models.Notification, error) {
		now := r.store.now()
		for i, n := range notifications {
			n.ID = uuid.NewString()
			n.IsRead = false
			n.ReadAt = nil
			n.CreatedAt = now
			created[i] = n
		}
		return append(append([]models.Notification(nil), created...), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id string) (*models.Notification, error) {
	var updated models.Notification
	err := r.items.mutate(ctx, "mark_read", func(items []models.Notification) ([]models.Notification, error) {
		i := indexOf(items, func(n models.Notification) bool { return n.ID == id && n.UserID == userID })
		if i < 0 {
			return nil, apperror.NotFound("notification not found")
		}
		items[i].MarkRead(r.store.now())
		updated = items[i]
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	count := 0
	err := r.items.mutate(ctx, "mark_all_read", func(items []models.Notification) ([]models.Notification, error) {
		now := r.store.now()
		for i := range items {
			if items[i].UserID == userID && items[i].MarkRead(now) {
				count++
			}
		}
		return items, nil
	})
	return count, err
}

func (r *notificationRepository) Delete(ctx context.Context, userID, id string) error {
	return r.items.mutate(ctx, "delete", func(items []models.Notification) ([]models.Notification, error) {
		return filterItems(items, func(n models.Notification) bool { return n.ID != id || n.UserID != userID }), nil
	})
}
