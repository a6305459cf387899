package viewmodel

import (
	"context"
	"time"

	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/service"
	"github.com/noah-isme/plaksha-connect/internal/session"
	"github.com/noah-isme/plaksha-connect/internal/viewstate"
)

// InboxGateway is the part of the notification service an inbox needs.
type InboxGateway interface {
	List(ctx context.Context, actor session.Actor, query service.NotificationQuery) ([]models.Notification, error)
	MarkRead(ctx context.Context, actor session.Actor, id string) (*models.Notification, error)
	Delete(ctx context.Context, actor session.Actor, id string) error
}

// Inbox holds the caller's notifications.
type Inbox struct {
	actor         session.Actor
	gateway       InboxGateway
	Notifications *viewstate.Container[models.Notification]
}

// NewInbox constructs an inbox for actor.
func NewInbox(gateway InboxGateway, actor session.Actor) *Inbox {
	return &Inbox{actor: actor, gateway: gateway, Notifications: viewstate.New[models.Notification]()}
}

func notificationKey(n models.Notification) string { return n.ID }

// Load replaces the inbox.
func (i *Inbox) Load(ctx context.Context, query service.NotificationQuery) error {
	return viewstate.Run(ctx, i.Notifications, func(ctx context.Context) ([]models.Notification, error) {
		return i.gateway.List(ctx, i.actor, query)
	})
}

// Unread counts unread notifications currently shown.
func (i *Inbox) Unread() int {
	count := 0
	for _, n := range i.Notifications.Items() {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// MarkRead shows the notification as read, then stores it.
func (i *Inbox) MarkRead(ctx context.Context, id string) error {
	var draft *models.Notification
	for _, n := range i.Notifications.Items() {
		if n.ID == id {
			n := n
			draft = &n
			break
		}
	}
	if draft == nil {
		_, err := viewstate.Mutate(ctx, i.Notifications, func(ctx context.Context) (*models.Notification, error) {
			return i.gateway.MarkRead(ctx, i.actor, id)
		}, nil)
		return err
	}
	draft.MarkRead(time.Now().UTC())
	_, err := viewstate.Commit(ctx, i.Notifications, viewstate.Optimistic[models.Notification, *models.Notification]{
		Key:   notificationKey,
		Draft: *draft,
		Persist: func(ctx context.Context) (*models.Notification, error) {
			return i.gateway.MarkRead(ctx, i.actor, id)
		},
		Settle: func(draft models.Notification, stored *models.Notification) (models.Notification, bool) {
			if stored == nil {
				return draft, true
			}
			return *stored, true
		},
	})
	return err
}

// Push prepends a notification delivered by the stream.
func (i *Inbox) Push(n models.Notification) {
	if n.UserID != i.actor.UserID {
		return
	}
	i.Notifications.Update(func(items []models.Notification) []models.Notification {
		for _, existing := range items {
			if existing.ID == n.ID {
				return items
			}
		}
		return append([]models.Notification{n}, items...)
	})
}

// Remove hides the notification, then deletes it.
func (i *Inbox) Remove(ctx context.Context, id string) error {
	return viewstate.Remove(ctx, i.Notifications, viewstate.Removal[models.Notification]{
		Key: notificationKey,
		ID:  id,
		Persist: func(ctx context.Context) error {
			return i.gateway.Delete(ctx, i.actor, id)
		},
	})
}
