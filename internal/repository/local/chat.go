package local

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

type chatRepository struct {
	store  *Store
	groups *collection[models.ChatGroup]
}

// NewChatRepository stores groups under mock_groups and each group's
// history under mock_messages_<groupID>.
func NewChatRepository(store *Store) repository.ChatRepository {
	return &chatRepository{store: store, groups: newCollection(store, "groups", seedGroups)}
}

func (r *chatRepository) messages(groupID string) *collection[models.ChatMessage] {
	return newCollection(r.store, "messages_"+groupID, seedMessages(groupID))
}

func (r *chatRepository) ListGroups(ctx context.Context) ([]models.ChatGroup, error) {
	return r.groups.all(ctx, "list_groups")
}

func (r *chatRepository) FindGroup(ctx context.Context, id string) (*models.ChatGroup, error) {
	groups, err := r.groups.all(ctx, "find_group")
	if err != nil {
		return nil, err
	}
	if i := indexOf(groups, func(g models.ChatGroup) bool { return g.ID == id }); i >= 0 {
		return &groups[i], nil
	}
	return nil, nil
}

func (r *chatRepository) CreateGroup(ctx context.Context, group *models.ChatGroup) (*models.ChatGroup, error) {
	created := *group
	err := r.groups.mutate(ctx, "create_group", func(groups []models.ChatGroup) ([]models.ChatGroup, error) {
		now := r.store.now()
		created.ID = uuid.NewString()
		created.IsActive = true
		created.Members = append([]models.ChatMember(nil), group.Members...)
		for i := range created.Members {
			created.Members[i].JoinedAt = now
		}
		created.MemberCount = len(created.Members)
		created.CreatedAt = now
		created.UpdatedAt = now
		return prepend(groups, created), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *chatRepository) UpdateGroup(ctx context.Context, id string, patch dto.ChatGroupUpdateRequest) (*models.ChatGroup, error) {
	var updated models.ChatGroup
	err := r.groups.mutate(ctx, "update_group", func(groups []models.ChatGroup) ([]models.ChatGroup, error) {
		i := indexOf(groups, func(g models.ChatGroup) bool { return g.ID == id })
		if i < 0 {
			return nil, apperror.NotFound("group not found")
		}
		g := &groups[i]
		setIf(&g.Name, patch.Name)
		setRef(&g.Description, patch.Description)
		setIf(&g.IsActive, patch.IsActive)
		g.UpdatedAt = r.store.touch(g.UpdatedAt)
		updated = *g
		return groups, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *chatRepository) AddMembers(ctx context.Context, groupID string, members []models.ChatMember) error {
	return r.groups.mutate(ctx, "add_members", func(groups []models.ChatGroup) ([]models.ChatGroup, error) {
		i := indexOf(groups, func(g models.ChatGroup) bool { return g.ID == groupID })
		if i < 0 {
			return nil, apperror.NotFound("group not found")
		}
		g := &groups[i]
		now := r.store.touch(g.UpdatedAt)
		for _, m := range members {
			if g.HasMember(m.UserID) {
				continue
			}
			if m.Role == "" {
				m.Role = models.ChatRoleMember
			}
			m.JoinedAt = now
			g.Members = append(g.Members, m)
		}
		g.MemberCount = len(g.Members)
		g.UpdatedAt = now
		return groups, nil
	})
}

// LeaveGroup removes the member. When the last member leaves the group and
// its history are removed.
func (r *chatRepository) LeaveGroup(ctx context.Context, groupID, userID string) error {
	history := r.messages(groupID)
	removed := false
	err := mutatePair(ctx, "leave_group", r.groups, history, func(groups []models.ChatGroup, msgs []models.ChatMessage) ([]models.ChatGroup, []models.ChatMessage, error) {
		i := indexOf(groups, func(g models.ChatGroup) bool { return g.ID == groupID })
		if i < 0 {
			return nil, nil, apperror.NotFound("group not found")
		}
		g := &groups[i]
		if !g.HasMember(userID) {
			return nil, nil, apperror.NotFound("not a member of this group")
		}
		g.Members = filterItems(g.Members, func(m models.ChatMember) bool { return m.UserID != userID })
		g.MemberCount = len(g.Members)
		g.UpdatedAt = r.store.touch(g.UpdatedAt)
		if g.MemberCount == 0 {
			groups = append(groups[:i], groups[i+1:]...)
			msgs = []models.ChatMessage{}
			removed = true
		}
		return groups, msgs, nil
	})
	if err != nil || !removed {
		return err
	}
	return history.drop(ctx)
}

func (r *chatRepository) ListMessages(ctx context.Context, groupID string, query repository.MessageQuery) ([]models.ChatMessage, error) {
	msgs, err := r.messages(groupID).all(ctx, "list_messages")
	if err != nil {
		return nil, err
	}
	if query.Before != "" {
		cut := indexOf(msgs, func(m models.ChatMessage) bool { return m.ID == query.Before })
		if cut < 0 {
			return []models.ChatMessage{}, nil
		}
		msgs = msgs[:cut]
	}
	if query.Limit > 0 && len(msgs) > query.Limit {
		msgs = msgs[len(msgs)-query.Limit:]
	}
	return msgs, nil
}

// SendMessage appends to the history and records it as the group's latest message.
func (r *chatRepository) SendMessage(ctx context.Context, message *models.ChatMessage) (*models.ChatMessage, error) {
	created := *message
	history := r.messages(message.GroupID)
	err := mutatePair(ctx, "send_message", history, r.groups, func(msgs []models.ChatMessage, groups []models.ChatGroup) ([]models.ChatMessage, []models.ChatGroup, error) {
		i := indexOf(groups, func(g models.ChatGroup) bool { return g.ID == created.GroupID })
		if i < 0 {
			return nil, nil, apperror.NotFound("group not found")
		}
		g := &groups[i]
		now := r.store.touch(g.UpdatedAt)
		created.ID = uuid.NewString()
		created.CreatedAt = now
		g.LastMessage = &created.Content
		g.LastMessageAt = &now
		g.UpdatedAt = now
		return append(msgs, created), groups, nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}
