package remote

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

// historyWindow is the largest page the upstream serves.
const historyWindow = 100

type chatRepository struct {
	client *Client
}

// NewChatRepository reads and writes /chat.
func NewChatRepository(client *Client) repository.ChatRepository {
	return &chatRepository{client: client}
}

func groupPath(id string) string {
	return "/chat/groups/" + segment(id)
}

func (r *chatRepository) ListGroups(ctx context.Context) ([]models.ChatGroup, error) {
	return list[models.ChatGroup](ctx, r.client, "/chat/groups", nil, failed("load chat groups"))
}

func (r *chatRepository) FindGroup(ctx context.Context, id string) (*models.ChatGroup, error) {
	return find[models.ChatGroup](ctx, r.client, groupPath(id), failed("load chat group"))
}

func (r *chatRepository) CreateGroup(ctx context.Context, group *models.ChatGroup) (*models.ChatGroup, error) {
	body := dto.ChatGroupCreateRequest{Name: group.Name, Description: group.Description, MemberIDs: []string{}}
	for _, m := range group.Members {
		if m.UserID != group.CreatedBy {
			body.MemberIDs = append(body.MemberIDs, m.UserID)
		}
	}
	return submit[models.ChatGroup](ctx, r.client, http.MethodPost, "/chat/groups", body, failed("create chat group"))
}

func (r *chatRepository) UpdateGroup(ctx context.Context, id string, patch dto.ChatGroupUpdateRequest) (*models.ChatGroup, error) {
	return submit[models.ChatGroup](ctx, r.client, http.MethodPut, groupPath(id), patch, failed("update chat group"))
}

func (r *chatRepository) AddMembers(ctx context.Context, groupID string, members []models.ChatMember) error {
	body := dto.ChatMembersRequest{UserIDs: make([]string, 0, len(members))}
	for _, m := range members {
		body.UserIDs = append(body.UserIDs, m.UserID)
	}
	return exec(ctx, r.client, http.MethodPost, groupPath(groupID)+"/members", body, failed("add members"))
}

func (r *chatRepository) LeaveGroup(ctx context.Context, groupID, userID string) error {
	return exec(ctx, r.client, http.MethodDelete, groupPath(groupID)+"/leave", nil, failed("leave group"))
}

// ListMessages pages by timestamp upstream, so a message id cursor is first
// resolved against the most recent window.
func (r *chatRepository) ListMessages(ctx context.Context, groupID string, query repository.MessageQuery) ([]models.ChatMessage, error) {
	limit := query.Limit
	if limit <= 0 || limit > historyWindow {
		limit = 50
	}
	params := queryOf("limit", strconv.Itoa(limit))
	if query.Before != "" {
		cursor, err := r.cursorTime(ctx, groupID, query.Before)
		if err != nil {
			return nil, err
		}
		params.Set("before", cursor.UTC().Format(time.RFC3339Nano))
	}
	return list[models.ChatMessage](ctx, r.client, groupPath(groupID)+"/messages", params, failed("load messages"))
}

func (r *chatRepository) cursorTime(ctx context.Context, groupID, messageID string) (time.Time, error) {
	recent, err := list[models.ChatMessage](ctx, r.client, groupPath(groupID)+"/messages",
		queryOf("limit", strconv.Itoa(historyWindow)), failed("load messages"))
	if err != nil {
		return time.Time{}, err
	}
	for _, m := range recent {
		if m.ID == messageID {
			return m.CreatedAt, nil
		}
	}
	return time.Time{}, apperror.Validation("unknown message cursor %q", messageID)
}

func (r *chatRepository) SendMessage(ctx context.Context, message *models.ChatMessage) (*models.ChatMessage, error) {
	body := dto.ChatMessageRequest{Content: message.Content}
	return submit[models.ChatMessage](ctx, r.client, http.MethodPost, groupPath(message.GroupID)+"/messages", body, failed("send message"))
}
