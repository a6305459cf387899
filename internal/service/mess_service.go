package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/session"
)

const defaultAverageWindowDays = 7

// MessService collects meal reviews and their aggregates.
type MessService interface {
	List(ctx context.Context, actor session.Actor, filter repository.MessReviewFilter) ([]models.MessReview, error)
	Today(ctx context.Context, actor session.Actor, mealType string) ([]models.MessReview, error)
	Mine(ctx context.Context, actor session.Actor) ([]models.MessReview, error)
	Get(ctx context.Context, actor session.Actor, id string) (*models.MessReview, error)
	Create(ctx context.Context, actor session.Actor, payload dto.MessReviewCreateRequest) (*models.MessReview, error)
	Update(ctx context.Context, actor session.Actor, id string, payload dto.MessReviewUpdateRequest) (*models.MessReview, error)
	Delete(ctx context.Context, actor session.Actor, id string) error
	HasReviewedToday(ctx context.Context, actor session.Actor, mealType string) (bool, error)
	AverageRating(ctx context.Context, actor session.Actor, mealType, date string) (float64, error)
	DailyAverages(ctx context.Context, actor session.Actor, query repository.AveragesQuery) ([]models.DailyAverage, error)
}

type messService struct {
	repo      repository.MessReviewRepository
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	sanitizer *bluemonday.Policy
	clock     Clock
}

// NewMessService constructs the mess review service. A nil clock uses the wall clock.
func NewMessService(repo repository.MessReviewRepository, clock Clock, validate *validator.Validate, logger zerolog.Logger) MessService {
	return &messService{
		repo:      repo,
		validator: validate,
		logger:    componentLogger(logger, "mess_service"),
		tracer:    otel.Tracer(tracerPrefix + "mess"),
		sanitizer: bluemonday.StrictPolicy(),
		clock:     clock,
	}
}

func (s *messService) today() string {
	return s.clock.now().Format(models.DateLayout)
}

func (s *messService) List(ctx context.Context, actor session.Actor, filter repository.MessReviewFilter) ([]models.MessReview, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if filter.MealType != "" && !validMeal(filter.MealType) {
		return nil, apperror.Validation("unknown meal type %q", filter.MealType)
	}
	if filter.MealDate != "" {
		if _, err := time.Parse(models.DateLayout, filter.MealDate); err != nil {
			return nil, apperror.Validation("meal_date must be YYYY-MM-DD")
		}
	}
	return s.repo.List(ctx, filter)
}

func (s *messService) Today(ctx context.Context, actor session.Actor, mealType string) ([]models.MessReview, error) {
	return s.List(ctx, actor, repository.MessReviewFilter{MealType: mealType, MealDate: s.today()})
}

func (s *messService) Mine(ctx context.Context, actor session.Actor) ([]models.MessReview, error) {
	return s.List(ctx, actor, repository.MessReviewFilter{UserID: actor.UserID})
}

func (s *messService) Get(ctx context.Context, actor session.Actor, id string) (*models.MessReview, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *messService) Create(ctx context.Context, actor session.Actor, payload dto.MessReviewCreateRequest) (*models.MessReview, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}
	mealDate := payload.MealDate
	if mealDate == "" {
		mealDate = s.today()
	}

	ctx, span := s.tracer.Start(ctx, "mess.create_review", trace.WithAttributes(
		attribute.String("mess.meal_type", payload.MealType),
		attribute.String("mess.meal_date", mealDate),
		attribute.Int("mess.rating", payload.Rating),
	))
	defer span.End()

	created, err := s.repo.Create(ctx, &models.MessReview{
		UserID:         actor.UserID,
		UserName:       actor.FullName,
		MealType:       payload.MealType,
		Rating:         payload.Rating,
		TasteRating:    payload.TasteRating,
		QuantityRating: payload.QuantityRating,
		HygieneRating:  payload.HygieneRating,
		VarietyRating:  payload.VarietyRating,
		ReviewText:     s.cleanText(payload.ReviewText),
		MealDate:       mealDate,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return created, nil
}

func (s *messService) Update(ctx context.Context, actor session.Actor, id string, payload dto.MessReviewUpdateRequest) (*models.MessReview, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return nil, err
	}
	review, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, review.UserID, "edit this review"); err != nil {
		return nil, err
	}
	payload.ReviewText = s.cleanText(payload.ReviewText)
	return s.repo.Update(ctx, id, payload)
}

func (s *messService) Delete(ctx context.Context, actor session.Actor, id string) error {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return err
	}
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if review != nil {
		if err := requireOwner(actor, review.UserID, "delete this review"); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *messService) HasReviewedToday(ctx context.Context, actor session.Actor, mealType string) (bool, error) {
	if !validMeal(mealType) {
		return false, apperror.Validation("unknown meal type %q", mealType)
	}
	reviews, err := s.List(ctx, actor, repository.MessReviewFilter{UserID: actor.UserID, MealType: mealType, MealDate: s.today()})
	if err != nil {
		return false, err
	}
	return len(reviews) > 0, nil
}

// AverageRating averages the overall rating of matching reviews. An empty
// date means today.
func (s *messService) AverageRating(ctx context.Context, actor session.Actor, mealType, date string) (float64, error) {
	if date == "" {
		date = s.today()
	}
	reviews, err := s.List(ctx, actor, repository.MessReviewFilter{MealType: mealType, MealDate: date})
	if err != nil {
		return 0, err
	}
	return models.AverageRating(reviews, mealType, date), nil
}

// DailyAverages defaults to the last seven days ending today.
func (s *messService) DailyAverages(ctx context.Context, actor session.Actor, query repository.AveragesQuery) ([]models.DailyAverage, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return nil, err
	}
	if query.MealType != "" && !validMeal(query.MealType) {
		return nil, apperror.Validation("unknown meal type %q", query.MealType)
	}
	now := s.clock.now()
	if query.EndDate == "" {
		query.EndDate = now.Format(models.DateLayout)
	}
	if query.StartDate == "" {
		end, err := time.Parse(models.DateLayout, query.EndDate)
		if err != nil {
			return nil, apperror.Validation("end_date must be YYYY-MM-DD")
		}
		query.StartDate = end.AddDate(0, 0, -(defaultAverageWindowDays - 1)).Format(models.DateLayout)
	}
	if query.StartDate > query.EndDate {
		return nil, apperror.Validation("start_date must not be after end_date")
	}
	return s.repo.DailyAverages(ctx, query)
}

func (s *messService) find(ctx context.Context, id string) (*models.MessReview, error) {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, apperror.NotFound("review not found")
	}
	return review, nil
}

func (s *messService) cleanText(value *string) *string {
	if value == nil {
		return nil
	}
	return strPtr(plainText(s.sanitizer, *value))
}

func validMeal(meal string) bool {
	switch meal {
	case models.MealBreakfast, models.MealLunch, models.MealSnack, models.MealDinner:
		return true
	}
	return false
}
