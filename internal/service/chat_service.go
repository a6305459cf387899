package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/observability"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/session"
)

const (
	chatRedisTTL       = 30 * time.Minute
	chatSendBufferSize = 32
	chatPingInterval   = 30 * time.Second
	chatHistoryDefault = 50
	chatHistoryMax     = 100
)

// Frame types written to websocket clients.
const (
	ChatFrameMessage = "message"
	ChatFrameError   = "error"
)

// ChatFrame is one websocket payload sent to a client.
type ChatFrame struct {
	Type    string              `json:"type"`
	Message *models.ChatMessage `json:"message,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// ChatConnectionOptions carries what the HTTP upgrade learned about the caller.
type ChatConnectionOptions struct {
	Actor         session.Actor
	GroupID       string
	CorrelationID string
	Context       context.Context
}

// ChatService manages groups, message history and live delivery.
type ChatService interface {
	ListGroups(ctx context.Context, actor session.Actor) ([]models.ChatGroup, error)
	GetGroup(ctx context.Context, actor session.Actor, id string) (*models.ChatGroup, error)
	CreateGroup(ctx context.Context, actor session.Actor, payload dto.ChatGroupCreateRequest) (*models.ChatGroup, error)
	UpdateGroup(ctx context.Context, actor session.Actor, id string, payload dto.ChatGroupUpdateRequest) (*models.ChatGroup, error)
	AddMembers(ctx context.Context, actor session.Actor, id string, payload dto.ChatMembersRequest) (*models.ChatGroup, error)
	LeaveGroup(ctx context.Context, actor session.Actor, id string) error
	History(ctx context.Context, actor session.Actor, groupID string, query repository.MessageQuery) ([]models.ChatMessage, error)
	Send(ctx context.Context, actor session.Actor, groupID string, payload dto.ChatMessageRequest) (*models.ChatMessage, error)
	ServeConnection(conn *websocket.Conn, opts ChatConnectionOptions)
	Start(ctx context.Context)
}

type chatService struct {
	repo        repository.ChatRepository
	users       repository.UserRepository
	notifier    Notifier
	redis       *redis.Client
	redisStream string
	redisCache  string
	nats        *nats.Conn
	natsSubject string
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	sanitizer   *bluemonday.Policy
	hub         *chatHub
	nodeID      string
	clock       Clock
}

// chatHub keeps track of connected clients per group.
type chatHub struct {
	mu    sync.RWMutex
	rooms map[string]map[*chatClient]struct{}
	log   zerolog.Logger
}

type chatClient struct {
	conn    *websocket.Conn
	send    chan ChatFrame
	options ChatConnectionOptions
	service *chatService
	closed  chan struct{}
	once    sync.Once
}

type chatEvent struct {
	Source  string             `json:"source"`
	Message models.ChatMessage `json:"message"`
	SentAt  time.Time          `json:"sent_at"`
}

// ChatDeps groups the chat service collaborators. Redis and NATS are optional.
type ChatDeps struct {
	Repo        repository.ChatRepository
	Users       repository.UserRepository
	Notifier    Notifier
	Redis       *redis.Client
	NATS        *nats.Conn
	ChannelBase string
	Validator   *validator.Validate
	Logger      zerolog.Logger
}

// NewChatService creates the chat service and its websocket hub.
func NewChatService(deps ChatDeps) ChatService {
	sanitizer := bluemonday.StrictPolicy()

	notifier := deps.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}

	streamChannel := ""
	cachePrefix := ""
	natsSubject := ""
	if deps.ChannelBase != "" {
		streamChannel = deps.ChannelBase + ":chat"
		cachePrefix = deps.ChannelBase + ":chat:last"
		natsSubject = strings.ReplaceAll(deps.ChannelBase, ":", ".") + ".chat"
	}

	return &chatService{
		repo:        deps.Repo,
		users:       deps.Users,
		notifier:    notifier,
		redis:       deps.Redis,
		redisStream: streamChannel,
		redisCache:  cachePrefix,
		nats:        deps.NATS,
		natsSubject: natsSubject,
		validator:   deps.Validator,
		logger:      componentLogger(deps.Logger, "chat_service"),
		tracer:      otel.Tracer(tracerPrefix + "chat"),
		sanitizer:   sanitizer,
		hub: &chatHub{
			rooms: make(map[string]map[*chatClient]struct{}),
			log:   componentLogger(deps.Logger, "chat_hub"),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *chatService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

// ListGroups returns the groups the caller belongs to.
func (s *chatService) ListGroups(ctx context.Context, actor session.Actor) ([]models.ChatGroup, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	mine := make([]models.ChatGroup, 0, len(groups))
	for _, g := range groups {
		if isMember(g, actor) {
			mine = append(mine, g)
		}
	}
	return mine, nil
}

func (s *chatService) GetGroup(ctx context.Context, actor session.Actor, id string) (*models.ChatGroup, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.memberGroup(ctx, actor, id)
}

func (s *chatService) CreateGroup(ctx context.Context, actor session.Actor, payload dto.ChatGroupCreateRequest) (*models.ChatGroup, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "chat.create_group", trace.WithAttributes(
		attribute.String("chat.creator_id", actor.UserID),
		attribute.Int("chat.invited", len(payload.MemberIDs)),
	))
	defer span.End()

	now := s.clock.now()
	members := []models.ChatMember{{UserID: actor.UserID, UserName: actor.FullName, Role: models.ChatRoleAdmin, JoinedAt: now}}
	invited, err := s.resolveMembers(ctx, payload.MemberIDs, members, now)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	members = append(members, invited...)

	group, err := s.repo.CreateGroup(ctx, &models.ChatGroup{
		Name:        strings.TrimSpace(payload.Name),
		Description: trimmed(payload.Description),
		CreatedBy:   actor.UserID,
		IsActive:    true,
		MemberCount: len(members),
		Members:     members,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info().Str("group_id", group.ID).Str("creator_id", actor.UserID).Int("members", group.MemberCount).Msg("chat group created")
	return group, nil
}

func (s *chatService) UpdateGroup(ctx context.Context, actor session.Actor, id string, payload dto.ChatGroupUpdateRequest) (*models.ChatGroup, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}
	group, err := s.memberGroup(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !isGroupAdmin(*group, actor) {
		return nil, apperror.Forbidden("only group admins can update the group")
	}
	payload.Name = trimmed(payload.Name)
	payload.Description = trimmed(payload.Description)
	return s.repo.UpdateGroup(ctx, id, payload)
}

func (s *chatService) AddMembers(ctx context.Context, actor session.Actor, id string, payload dto.ChatMembersRequest) (*models.ChatGroup, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}
	group, err := s.memberGroup(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !isGroupAdmin(*group, actor) {
		return nil, apperror.Forbidden("only group admins can add members")
	}

	added, err := s.resolveMembers(ctx, payload.UserIDs, group.Members, s.clock.now())
	if err != nil {
		return nil, err
	}
	if len(added) > 0 {
		if err := s.repo.AddMembers(ctx, id, added); err != nil {
			return nil, err
		}
	}
	return s.repo.FindGroup(ctx, id)
}

func (s *chatService) LeaveGroup(ctx context.Context, actor session.Actor, id string) error {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return err
	}
	return s.repo.LeaveGroup(ctx, id, actor.UserID)
}

// History returns messages oldest first, paging backwards with query.Before.
func (s *chatService) History(ctx context.Context, actor session.Actor, groupID string, query repository.MessageQuery) ([]models.ChatMessage, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberGroup(ctx, actor, groupID); err != nil {
		return nil, err
	}
	switch {
	case query.Limit <= 0:
		query.Limit = chatHistoryDefault
	case query.Limit > chatHistoryMax:
		query.Limit = chatHistoryMax
	}
	return s.repo.ListMessages(ctx, groupID, query)
}

func (s *chatService) Send(ctx context.Context, actor session.Actor, groupID string, payload dto.ChatMessageRequest) (*models.ChatMessage, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}
	clean := plainText(s.sanitizer, payload.Content)
	if clean == "" {
		return nil, apperror.Validation("message content is empty after sanitization")
	}

	group, err := s.memberGroup(ctx, actor, groupID)
	if err != nil {
		return nil, err
	}

	attrs := []attribute.KeyValue{
		attribute.String("chat.group_id", groupID),
		attribute.String("chat.sender_id", actor.UserID),
	}
	if correlation := session.CorrelationFromContext(ctx); correlation != "" {
		attrs = append(attrs, attribute.String("correlation_id", correlation))
	}
	spanCtx, span := s.tracer.Start(ctx, "chat.send", trace.WithAttributes(attrs...))
	defer span.End()

	message, err := s.repo.SendMessage(spanCtx, &models.ChatMessage{
		GroupID:    groupID,
		UserID:     actor.UserID,
		UserName:   actor.FullName,
		UserYear:   actor.Year,
		UserBranch: actor.Branch,
		Content:    clean,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.cacheLastMessage(spanCtx, *message)
	s.hub.broadcast(groupID, *message)
	if err := s.publish(spanCtx, *message); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish chat event")
	}
	observability.ChatMessages().WithLabelValues("local").Inc()

	s.notifyMembers(spanCtx, *group, *message)
	return message, nil
}

func (s *chatService) ServeConnection(conn *websocket.Conn, opts ChatConnectionOptions) {
	baseCtx := opts.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if opts.CorrelationID != "" {
		baseCtx = session.WithCorrelation(baseCtx, opts.CorrelationID)
	}
	opts.Context = baseCtx

	authCtx, err := authorize(baseCtx, opts.Actor)
	if err == nil {
		_, err = s.memberGroup(authCtx, opts.Actor, opts.GroupID)
	}
	if err != nil {
		_ = conn.WriteJSON(ChatFrame{Type: ChatFrameError, Error: apperror.MessageOf(err)})
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, apperror.MessageOf(err)))
		_ = conn.Close()
		return
	}

	client := &chatClient{
		conn:    conn,
		send:    make(chan ChatFrame, chatSendBufferSize),
		options: opts,
		service: s,
		closed:  make(chan struct{}),
	}

	s.hub.register(client)
	observability.ChatConnections().Inc()
	defer observability.ChatConnections().Dec()

	if last := s.fetchLastMessage(baseCtx, opts.GroupID); last != nil {
		client.deliver(ChatFrame{Type: ChatFrameMessage, Message: last})
	}

	go client.writer()
	client.reader()
}

func (s *chatService) memberGroup(ctx context.Context, actor session.Actor, id string) (*models.ChatGroup, error) {
	group, err := s.repo.FindGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, apperror.NotFound("group not found")
	}
	if !isMember(*group, actor) {
		return nil, apperror.Forbidden("not a member of this group")
	}
	return group, nil
}

// resolveMembers looks up the named users, skipping anyone already present.
func (s *chatService) resolveMembers(ctx context.Context, ids []string, existing []models.ChatMember, now time.Time) ([]models.ChatMember, error) {
	seen := make(map[string]struct{}, len(existing)+len(ids))
	for _, m := range existing {
		seen[m.UserID] = struct{}{}
	}
	var added []models.ChatMember
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}

		name := id
		if s.users != nil {
			user, err := s.users.FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if user == nil {
				return nil, apperror.Validation("user %s does not exist", id)
			}
			name = user.FullName
		}
		added = append(added, models.ChatMember{UserID: id, UserName: name, Role: models.ChatRoleMember, JoinedAt: now})
	}
	return added, nil
}

func (s *chatService) notifyMembers(ctx context.Context, group models.ChatGroup, message models.ChatMessage) {
	link := "/chat/" + group.ID
	preview := message.Content
	if runes := []rune(preview); len(runes) > 80 {
		preview = string(runes[:80]) + "..."
	}
	batch := make([]dto.NotificationCreateRequest, 0, len(group.Members))
	for _, member := range group.Members {
		if member.UserID == message.UserID {
			continue
		}
		batch = append(batch, dto.NotificationCreateRequest{
			UserID:      member.UserID,
			Type:        models.NotificationMessage,
			Title:       fmt.Sprintf("%s in %s", message.UserName, group.Name),
			Message:     preview,
			Link:        &link,
			ReferenceID: strPtr(group.ID),
		})
	}
	s.notifier.Notify(ctx, batch...)
}

func (s *chatService) cacheLastMessage(ctx context.Context, message models.ChatMessage) {
	if s.redis == nil || s.redisCache == "" {
		return
	}
	payload, err := json.Marshal(message)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal chat message for cache")
		return
	}
	key := fmt.Sprintf("%s:%s", s.redisCache, message.GroupID)
	if err := s.redis.Set(ctx, key, payload, chatRedisTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache chat message")
	}
}

func (s *chatService) fetchLastMessage(ctx context.Context, groupID string) *models.ChatMessage {
	if s.redis == nil || s.redisCache == "" {
		return nil
	}
	result, err := s.redis.Get(ctx, fmt.Sprintf("%s:%s", s.redisCache, groupID)).Bytes()
	if err != nil {
		return nil
	}
	var message models.ChatMessage
	if err := json.Unmarshal(result, &message); err != nil {
		s.logger.Warn().Err(err).Msg("failed to unmarshal cached chat message")
		return nil
	}
	return &message
}

func (s *chatService) publish(ctx context.Context, message models.ChatMessage) error {
	if (s.redis == nil || s.redisStream == "") && (s.nats == nil || s.natsSubject == "") {
		return nil
	}
	payload, err := json.Marshal(chatEvent{Source: s.nodeID, Message: message, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}
	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}
	return nil
}

func (s *chatService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() {
		_ = pubsub.Close()
	}()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			s.logger.Error().Err(err).Msg("chat redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload), "redis")
	}
}

func (s *chatService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEvent(msg.Data, "nats")
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats chat subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain chat nats subscription")
		}
	}()
}

func (s *chatService) handleEvent(data []byte, source string) {
	var event chatEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid chat event")
		return
	}
	if event.Source == s.nodeID {
		return
	}
	observability.ChatMessages().WithLabelValues(source).Inc()
	s.hub.broadcast(event.Message.GroupID, event.Message)
}

func (h *chatHub) register(client *chatClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := client.options.GroupID
	if _, exists := h.rooms[room]; !exists {
		h.rooms[room] = make(map[*chatClient]struct{})
	}
	h.rooms[room][client] = struct{}{}
	h.log.Debug().Str("group_id", room).Str("user_id", client.options.Actor.UserID).Msg("chat client connected")
}

func (h *chatHub) unregister(client *chatClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := client.options.GroupID
	if clients, ok := h.rooms[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
	h.log.Debug().Str("group_id", room).Str("user_id", client.options.Actor.UserID).Msg("chat client disconnected")
}

func (h *chatHub) broadcast(groupID string, message models.ChatMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[groupID] {
		msg := message
		select {
		case client.send <- ChatFrame{Type: ChatFrameMessage, Message: &msg}:
		default:
			h.log.Warn().Str("group_id", groupID).Str("user_id", client.options.Actor.UserID).Msg("dropping chat message for slow client")
		}
	}
}

// reader turns inbound frames into sends. The sender receives its own
// message through the room broadcast.
func (c *chatClient) reader() {
	defer c.close()

	for {
		var payload dto.ChatMessageRequest
		if err := c.conn.ReadJSON(&payload); err != nil {
			c.service.logger.Debug().Err(err).Msg("chat read loop ended")
			return
		}

		if _, err := c.service.Send(c.options.Context, c.options.Actor, c.options.GroupID, payload); err != nil {
			c.service.logger.Warn().Err(err).Str("group_id", c.options.GroupID).Msg("failed to process chat message")
			c.deliver(ChatFrame{Type: ChatFrameError, Error: apperror.MessageOf(err)})
		}
	}
}

func (c *chatClient) deliver(frame ChatFrame) {
	select {
	case <-c.closed:
	case c.send <- frame:
	default:
		c.service.logger.Warn().Str("user_id", c.options.Actor.UserID).Msg("chat client queue full, dropping frame")
	}
}

func (c *chatClient) writer() {
	defer c.close()

	ticker := time.NewTicker(chatPingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-c.send:
			if err := c.conn.WriteJSON(frame); err != nil {
				c.service.logger.Debug().Err(err).Msg("chat write loop terminated")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.service.logger.Debug().Err(err).Msg("chat ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *chatClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.service.hub.unregister(c)
		_ = c.conn.Close()
	})
}

func isMember(group models.ChatGroup, actor session.Actor) bool {
	// Upstream listings omit members; the upstream API has already scoped them.
	if len(group.Members) == 0 {
		return true
	}
	return group.HasMember(actor.UserID)
}

func isGroupAdmin(group models.ChatGroup, actor session.Actor) bool {
	if actor.IsAdmin() {
		return true
	}
	for _, m := range group.Members {
		if m.UserID == actor.UserID && m.Role == models.ChatRoleAdmin {
			return true
		}
	}
	return len(group.Members) == 0 && group.CreatedBy == actor.UserID
}
