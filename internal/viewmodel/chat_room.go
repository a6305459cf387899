// Package viewmodel keeps per-screen state on top of the services: what was
// last loaded, whether a call is running and the last error.
package viewmodel

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/session"
	"github.com/noah-isme/plaksha-connect/internal/viewstate"
)

const pendingPrefix = "pending-"

// ChatGateway is the part of the chat service a room needs.
type ChatGateway interface {
	History(ctx context.Context, actor session.Actor, groupID string, query repository.MessageQuery) ([]models.ChatMessage, error)
	Send(ctx context.Context, actor session.Actor, groupID string, payload dto.ChatMessageRequest) (*models.ChatMessage, error)
}

// ChatRoom holds the message list of one group for one user.
type ChatRoom struct {
	actor    session.Actor
	groupID  string
	gateway  ChatGateway
	Messages *viewstate.Container[models.ChatMessage]
	now      func() time.Time
}

// NewChatRoom constructs a room view for groupID.
func NewChatRoom(gateway ChatGateway, actor session.Actor, groupID string) *ChatRoom {
	return &ChatRoom{
		actor:    actor,
		groupID:  groupID,
		gateway:  gateway,
		Messages: viewstate.New[models.ChatMessage](),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func messageKey(m models.ChatMessage) string { return m.ID }

// IsPending reports whether m is shown but not yet stored.
func IsPending(m models.ChatMessage) bool {
	return strings.HasPrefix(m.ID, pendingPrefix)
}

// Load replaces the list with the latest history.
func (r *ChatRoom) Load(ctx context.Context, limit int) error {
	return viewstate.Run(ctx, r.Messages, func(ctx context.Context) ([]models.ChatMessage, error) {
		return r.gateway.History(ctx, r.actor, r.groupID, repository.MessageQuery{Limit: limit})
	})
}

// LoadOlder prepends messages older than the first one shown.
func (r *ChatRoom) LoadOlder(ctx context.Context, limit int) error {
	items := r.Messages.Items()
	before := ""
	for _, m := range items {
		if !IsPending(m) {
			before = m.ID
			break
		}
	}
	if before == "" {
		return r.Load(ctx, limit)
	}
	_, err := viewstate.Mutate(ctx, r.Messages, func(ctx context.Context) ([]models.ChatMessage, error) {
		return r.gateway.History(ctx, r.actor, r.groupID, repository.MessageQuery{Before: before, Limit: limit})
	}, func(items, older []models.ChatMessage) []models.ChatMessage {
		return append(older, items...)
	})
	return err
}

// Send shows the message immediately under a pending id, then swaps in the
// stored message. A failed send removes the pending entry and records the
// error.
func (r *ChatRoom) Send(ctx context.Context, content string) (*models.ChatMessage, error) {
	draft := models.ChatMessage{
		ID:         pendingPrefix + uuid.NewString(),
		GroupID:    r.groupID,
		UserID:     r.actor.UserID,
		UserName:   r.actor.FullName,
		UserYear:   r.actor.Year,
		UserBranch: r.actor.Branch,
		Content:    content,
		CreatedAt:  r.now(),
	}
	stored, err := viewstate.Commit(ctx, r.Messages, viewstate.Optimistic[models.ChatMessage, *models.ChatMessage]{
		Key:   messageKey,
		Draft: draft,
		Persist: func(ctx context.Context) (*models.ChatMessage, error) {
			return r.gateway.Send(ctx, r.actor, r.groupID, dto.ChatMessageRequest{Content: content})
		},
		Settle: func(_ models.ChatMessage, stored *models.ChatMessage) (models.ChatMessage, bool) {
			if stored == nil {
				return models.ChatMessage{}, false
			}
			return *stored, true
		},
	})
	if err != nil {
		return nil, err
	}
	// The stream may have delivered the stored message before it settled.
	r.Messages.Update(dedupeMessages)
	return stored, nil
}

// Receive merges a message pushed by the realtime stream. Messages already
// shown are ignored.
func (r *ChatRoom) Receive(msg models.ChatMessage) {
	if msg.GroupID != r.groupID {
		return
	}
	r.Messages.Update(func(items []models.ChatMessage) []models.ChatMessage {
		for _, m := range items {
			if m.ID == msg.ID {
				return items
			}
		}
		return append(items, msg)
	})
}

func dedupeMessages(items []models.ChatMessage) []models.ChatMessage {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, m := range items {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}
