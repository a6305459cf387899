package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
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
	notificationBufferSize   = 16
	defaultNotificationLimit = 50
	maxNotificationLimit     = 100
)

// NotificationQuery narrows the caller's notification list.
type NotificationQuery struct {
	Type       string
	UnreadOnly bool
	Limit      int
}

// NotificationService stores notifications and streams them to subscribers.
type NotificationService interface {
	Notifier
	List(ctx context.Context, actor session.Actor, query NotificationQuery) ([]models.Notification, error)
	Stats(ctx context.Context, actor session.Actor) (models.NotificationStats, error)
	MarkRead(ctx context.Context, actor session.Actor, id string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, actor session.Actor) (int, error)
	Delete(ctx context.Context, actor session.Actor, id string) error
	Publish(ctx context.Context, payload dto.NotificationCreateRequest) (*models.Notification, error)
	Subscribe(userID string) (<-chan models.Notification, func())
	Start(ctx context.Context)
}

type notificationService struct {
	repo        repository.NotificationRepository
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	sanitizer   *bluemonday.Policy
	broker      *notificationBroker
	nodeID      string
}

type notificationEvent struct {
	Source       string              `json:"source"`
	Notification models.Notification `json:"notification"`
	SentAt       time.Time           `json:"sent_at"`
}

type notificationBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan models.Notification]struct{}
}

// NewNotificationService constructs a notification service. redisClient and
// natsConn are optional fan-out transports between nodes.
func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) NotificationService {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":notifications"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".notifications"
	}

	return &notificationService{
		repo:        repo,
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		validator:   validate,
		logger:      componentLogger(logger, "notification_service"),
		tracer:      otel.Tracer(tracerPrefix + "notification"),
		sanitizer:   bluemonday.StrictPolicy(),
		broker: &notificationBroker{
			subscribers: make(map[string]map[chan models.Notification]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *notificationService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *notificationService) List(ctx context.Context, actor session.Actor, query NotificationQuery) ([]models.Notification, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if query.Type != "" && !validNotificationType(query.Type) {
		return nil, apperror.Validation("unknown notification type %q", query.Type)
	}
	limit := query.Limit
	switch {
	case limit <= 0:
		limit = defaultNotificationLimit
	case limit > maxNotificationLimit:
		limit = maxNotificationLimit
	}
	return s.repo.List(ctx, repository.NotificationFilter{
		UserID:     actor.UserID,
		Type:       query.Type,
		UnreadOnly: query.UnreadOnly,
		Limit:      limit,
	})
}

func (s *notificationService) Stats(ctx context.Context, actor session.Actor) (models.NotificationStats, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return models.NotificationStats{}, err
	}
	return s.repo.Stats(ctx, actor.UserID)
}

func (s *notificationService) MarkRead(ctx context.Context, actor session.Actor, id string) (*models.Notification, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	spanCtx, span := s.tracer.Start(ctx, "notifications.mark_read", trace.WithAttributes(
		attribute.String("notification.user_id", actor.UserID),
		attribute.String("notification.id", id),
	))
	defer span.End()

	notification, err := s.repo.MarkRead(spanCtx, actor.UserID, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return notification, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, actor session.Actor) (int, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return 0, err
	}
	return s.repo.MarkAllRead(ctx, actor.UserID)
}

func (s *notificationService) Delete(ctx context.Context, actor session.Actor, id string) error {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, actor.UserID, id)
}

// Notify stores the whole batch in one repository write, then streams each
// notification. Failures are logged instead of returned.
func (s *notificationService) Notify(ctx context.Context, payloads ...dto.NotificationCreateRequest) {
	if len(payloads) == 0 {
		return
	}
	pending := make([]models.Notification, 0, len(payloads))
	for _, payload := range payloads {
		notification, err := s.prepare(payload)
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", payload.UserID).Str("type", payload.Type).Msg("dropping invalid notification")
			continue
		}
		pending = append(pending, notification)
	}
	if _, err := s.deliver(ctx, pending); err != nil {
		s.logger.Warn().Err(err).Int("count", len(pending)).Msg("failed to deliver notifications")
	}
}

func (s *notificationService) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (*models.Notification, error) {
	notification, err := s.prepare(payload)
	if err != nil {
		return nil, err
	}
	created, err := s.deliver(ctx, []models.Notification{notification})
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

func (s *notificationService) prepare(payload dto.NotificationCreateRequest) (models.Notification, error) {
	if err := validateStruct(s.validator, payload); err != nil {
		return models.Notification{}, err
	}
	title := plainText(s.sanitizer, payload.Title)
	message := plainText(s.sanitizer, payload.Message)
	if message == "" || title == "" {
		return models.Notification{}, apperror.Validation("notification is empty after sanitization")
	}
	return models.Notification{
		UserID:      payload.UserID,
		Type:        payload.Type,
		Title:       title,
		Message:     message,
		Link:        payload.Link,
		ReferenceID: payload.ReferenceID,
	}, nil
}

func (s *notificationService) deliver(ctx context.Context, pending []models.Notification) ([]models.Notification, error) {
	if len(pending) == 0 {
		return nil, nil
	}
	spanCtx, span := s.tracer.Start(ctx, "notifications.publish", trace.WithAttributes(
		attribute.Int("notification.count", len(pending)),
		attribute.String("notification.type", pending[0].Type),
	))
	defer span.End()

	created, err := s.repo.CreateMany(spanCtx, pending)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	for _, notification := range created {
		s.broadcast(notification)
		if err := s.publish(spanCtx, notification); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish notification to broker")
		}
		observability.NotificationsPublished().WithLabelValues(notification.Type).Inc()
	}
	return created, nil
}

func (s *notificationService) Subscribe(userID string) (<-chan models.Notification, func()) {
	channel := make(chan models.Notification, notificationBufferSize)

	s.broker.subscribe(userID, channel)
	observability.SSEClients().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(userID, channel)
			observability.SSEClients().Dec()
		})
	}
	return channel, cleanup
}

func (s *notificationService) broadcast(notification models.Notification) {
	s.broker.broadcast(notification.UserID, notification)
}

func (s *notificationService) publish(ctx context.Context, notification models.Notification) error {
	if (s.redis == nil || s.redisStream == "") && (s.nats == nil || s.natsSubject == "") {
		return nil
	}
	payload, err := json.Marshal(notificationEvent{
		Source:       s.nodeID,
		Notification: notification,
		SentAt:       time.Now().UTC(),
	})
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

func (s *notificationService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			s.logger.Error().Err(err).Msg("notification redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

// consumeNATS subscribes without a queue group so every node sees every
// event and can serve its own SSE clients.
func (s *notificationService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats notifications subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain notification nats subscription")
		}
	}()
}

func (s *notificationService) handleEvent(payload []byte) {
	var event notificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid notification event payload")
		return
	}
	if event.Source == s.nodeID {
		return
	}
	if event.Notification.Type == "" {
		event.Notification.Type = models.NotificationSystem
	}
	s.broadcast(event.Notification)
}

func (b *notificationBroker) subscribe(userID string, ch chan models.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[userID]; !exists {
		b.subscribers[userID] = make(map[chan models.Notification]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
}

func (b *notificationBroker) unsubscribe(userID string, ch chan models.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[userID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, userID)
		}
	}
}

func (b *notificationBroker) broadcast(userID string, notification models.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[userID] {
		select {
		case ch <- notification:
		default:
		}
	}
}

func validNotificationType(value string) bool {
	switch value {
	case models.NotificationAnnouncement, models.NotificationMessage, models.NotificationIssue,
		models.NotificationTeam, models.NotificationChallenge, models.NotificationMessReview, models.NotificationSystem:
		return true
	}
	return false
}
