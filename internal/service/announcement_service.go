package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
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

const announcementCachePrefix = "announcements:list:v1:"

// AnnouncementService exposes the announcement board.
type AnnouncementService interface {
	List(ctx context.Context, actor session.Actor, filter repository.AnnouncementFilter) ([]models.Announcement, error)
	Get(ctx context.Context, actor session.Actor, id string) (*models.Announcement, error)
	Create(ctx context.Context, actor session.Actor, payload dto.AnnouncementCreateRequest) (*models.Announcement, error)
	Update(ctx context.Context, actor session.Actor, id string, payload dto.AnnouncementUpdateRequest) (*models.Announcement, error)
	Delete(ctx context.Context, actor session.Actor, id string) error
	InvalidateCache(ctx context.Context)
}

type announcementService struct {
	repo      repository.AnnouncementRepository
	users     repository.UserRepository
	notifier  Notifier
	cache     *redis.Client
	ttl       time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	policy    *bluemonday.Policy
	clock     Clock
}

// NewAnnouncementService constructs the announcement service. cache may be nil.
func NewAnnouncementService(repo repository.AnnouncementRepository, users repository.UserRepository, notifier Notifier, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) AnnouncementService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("p", "strong", "em", "a", "ul", "ol", "li", "br")
	policy.AllowAttrs("href", "title", "target").OnElements("a")
	return &announcementService{
		repo:      repo,
		users:     users,
		notifier:  notifier,
		cache:     cache,
		ttl:       ttl,
		validator: validate,
		logger:    componentLogger(logger, "announcement_service"),
		tracer:    otel.Tracer(tracerPrefix + "announcement"),
		policy:    policy,
	}
}

// List returns pinned announcements first, then the newest. Non-staff callers
// only see published announcements targeted at their year and branch.
func (s *announcementService) List(ctx context.Context, actor session.Actor, filter repository.AnnouncementFilter) ([]models.Announcement, error) {
	ctx, span := s.tracer.Start(ctx, "announcements.list", trace.WithAttributes(
		attribute.String("announcement.category", filter.Category),
	))
	defer span.End()

	ctx = session.WithActor(ctx, actor)
	items, err := s.cachedList(ctx, actor, filter)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := s.clock.now()
	visible := make([]models.Announcement, 0, len(items))
	for _, item := range items {
		if s.visibleTo(actor, item, now) {
			visible = append(visible, item)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].IsPinned != visible[j].IsPinned {
			return visible[i].IsPinned
		}
		return visible[i].CreatedAt.After(visible[j].CreatedAt)
	})
	return visible, nil
}

func (s *announcementService) Get(ctx context.Context, actor session.Actor, id string) (*models.Announcement, error) {
	item, err := s.repo.FindByID(session.WithActor(ctx, actor), id)
	if err != nil {
		return nil, err
	}
	if item == nil || !s.visibleTo(actor, *item, s.clock.now()) {
		return nil, apperror.NotFound("announcement not found")
	}
	return item, nil
}

func (s *announcementService) Create(ctx context.Context, actor session.Actor, payload dto.AnnouncementCreateRequest) (*models.Announcement, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := requireStaff(actor, "post announcements"); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}
	if payload.ScheduledAt != nil && payload.ExpiresAt != nil && !payload.ExpiresAt.After(*payload.ScheduledAt) {
		return nil, apperror.Validation("expires_at must be after scheduled_at")
	}

	ctx, span := s.tracer.Start(ctx, "announcements.create", trace.WithAttributes(
		attribute.String("announcement.category", payload.Category),
		attribute.String("announcement.author_id", actor.UserID),
	))
	defer span.End()

	priority := payload.Priority
	if priority == "" {
		priority = models.AnnouncementPriorityNormal
	}
	content := strings.TrimSpace(s.policy.Sanitize(payload.Content))
	if content == "" {
		return nil, apperror.Validation("content is empty after sanitization")
	}

	created, err := s.repo.Create(ctx, &models.Announcement{
		Title:        strings.TrimSpace(payload.Title),
		Content:      content,
		Category:     payload.Category,
		Priority:     priority,
		AuthorID:     actor.UserID,
		AuthorName:   actor.FullName,
		TargetYear:   payload.TargetYear,
		TargetBranch: trimmed(payload.TargetBranch),
		IsPinned:     payload.IsPinned,
		ScheduledAt:  payload.ScheduledAt,
		ExpiresAt:    payload.ExpiresAt,
		IsActive:     true,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.InvalidateCache(ctx)
	s.announce(ctx, actor, *created)
	s.logger.Info().Str("announcement_id", created.ID).Str("author_id", actor.UserID).Msg("announcement published")
	return created, nil
}

func (s *announcementService) Update(ctx context.Context, actor session.Actor, id string, payload dto.AnnouncementUpdateRequest) (*models.Announcement, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := requireStaff(actor, "edit announcements"); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperror.NotFound("announcement not found")
	}
	if err := requireOwner(actor, existing.AuthorID, "edit this announcement"); err != nil {
		return nil, err
	}

	if payload.Content != nil {
		clean := strings.TrimSpace(s.policy.Sanitize(*payload.Content))
		if clean == "" {
			return nil, apperror.Validation("content is empty after sanitization")
		}
		payload.Content = &clean
	}
	payload.Title = trimmed(payload.Title)

	updated, err := s.repo.Update(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	s.InvalidateCache(ctx)
	return updated, nil
}

// Delete removes an announcement. A missing id is left to the repository,
// which decides whether that is an error.
func (s *announcementService) Delete(ctx context.Context, actor session.Actor, id string) error {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return err
	}
	if err := requireStaff(actor, "delete announcements"); err != nil {
		return err
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing != nil {
		if err := requireOwner(actor, existing.AuthorID, "delete this announcement"); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.InvalidateCache(ctx)
	return nil
}

// InvalidateCache drops every cached listing.
func (s *announcementService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	iter := s.cache.Scan(ctx, 0, announcementCachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to scan announcement cache")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate announcement cache")
	}
}

// cachedList caches per caller: the upstream API filters listings by the
// caller's year and branch, so one user's result is never valid for another.
func (s *announcementService) cachedList(ctx context.Context, actor session.Actor, filter repository.AnnouncementFilter) ([]models.Announcement, error) {
	cacheKey := ""
	if s.cache != nil {
		cacheKey = fmt.Sprintf("%suser:%s:%s:%s:%s", announcementCachePrefix, actor.UserID, filter.Category, filter.Priority, strings.ToLower(strings.TrimSpace(filter.Search)))
		if cached, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil && len(cached) > 0 {
			var items []models.Announcement
			if err := json.Unmarshal(cached, &items); err == nil {
				observability.CacheLookups().WithLabelValues("announcements", "hit").Inc()
				return items, nil
			}
		}
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if cacheKey != "" {
		observability.CacheLookups().WithLabelValues("announcements", "miss").Inc()
		if payload, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache announcements")
			}
		}
	}
	return items, nil
}

func (s *announcementService) visibleTo(actor session.Actor, item models.Announcement, now time.Time) bool {
	if actor.IsStaff() {
		return true
	}
	if !item.VisibleAt(now) {
		return false
	}
	if item.TargetYear != nil && (actor.Year == nil || *actor.Year != *item.TargetYear) {
		return false
	}
	if item.TargetBranch != nil && (actor.Branch == nil || !strings.EqualFold(*actor.Branch, *item.TargetBranch)) {
		return false
	}
	return true
}

// announce notifies every other user. Directories that cannot be listed
// upstream simply skip the fan-out.
func (s *announcementService) announce(ctx context.Context, actor session.Actor, item models.Announcement) {
	if s.users == nil {
		return
	}
	users, err := s.users.List(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("skipping announcement fan-out")
		return
	}
	link := "/announcements/" + item.ID
	now := s.clock.now()
	batch := make([]dto.NotificationCreateRequest, 0, len(users))
	for _, user := range users {
		if user.ID == actor.UserID || !s.visibleTo(session.Actor{UserID: user.ID, Role: user.Role, Year: user.Year, Branch: user.Branch}, item, now) {
			continue
		}
		batch = append(batch, dto.NotificationCreateRequest{
			UserID:      user.ID,
			Type:        models.NotificationAnnouncement,
			Title:       item.Title,
			Message:     fmt.Sprintf("New %s announcement from %s", item.Category, item.AuthorName),
			Link:        &link,
			ReferenceID: strPtr(item.ID),
		})
	}
	s.notifier.Notify(ctx, batch...)
}
