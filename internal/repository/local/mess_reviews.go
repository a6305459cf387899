package local

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

type messReviewRepository struct {
	items *collection[models.MessReview]
}

// NewMessReviewRepository stores reviews under mock_mess_reviews.
func NewMessReviewRepository(store *Store) repository.MessReviewRepository {
	return &messReviewRepository{items: newCollection(store, "mess_reviews", seedMessReviews)}
}

func (r *messReviewRepository) List(ctx context.Context, filter repository.MessReviewFilter) ([]models.MessReview, error) {
	items, err := r.items.all(ctx, "list")
	if err != nil {
		return nil, err
	}
	return filterItems(items, func(m models.MessReview) bool {
		return matches(filter.MealType, m.MealType) &&
			matches(filter.MealDate, m.MealDate) &&
			matches(filter.UserID, m.UserID)
	}), nil
}

func (r *messReviewRepository) FindByID(ctx context.Context, id string) (*models.MessReview, error) {
	items, err := r.items.all(ctx, "find")
	if err != nil {
		return nil, err
	}
	if i := indexOf(items, func(m models.MessReview) bool { return m.ID == id }); i >= 0 {
		return &items[i], nil
	}
	return nil, nil
}

func (r *messReviewRepository) Create(ctx context.Context, review *models.MessReview) (*models.MessReview, error) {
	created := *review
	err := r.items.mutate(ctx, "create", func(items []models.MessReview) ([]models.MessReview, error) {
		now := r.items.store.now()
		if created.MealDate == "" {
			created.MealDate = now.Format(models.DateLayout)
		}
		duplicate := indexOf(items, func(m models.MessReview) bool {
			return m.UserID == created.UserID && m.MealType == created.MealType && m.MealDate == created.MealDate
		})
		if duplicate >= 0 {
			return nil, apperror.Conflict("you have already reviewed %s for %s", created.MealType, created.MealDate)
		}
		created.ID = uuid.NewString()
		created.CreatedAt = now
		created.UpdatedAt = now
		return prepend(items, created), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *messReviewRepository) Update(ctx context.Context, id string, patch dto.MessReviewUpdateRequest) (*models.MessReview, error) {
	var updated models.MessReview
	err := r.items.mutate(ctx, "update", func(items []models.MessReview) ([]models.MessReview, error) {
		i := indexOf(items, func(m models.MessReview) bool { return m.ID == id })
		if i < 0 {
			return nil, apperror.NotFound("review not found")
		}
		m := &items[i]
		setIf(&m.Rating, patch.Rating)
		setRef(&m.TasteRating, patch.TasteRating)
		setRef(&m.QuantityRating, patch.QuantityRating)
		setRef(&m.HygieneRating, patch.HygieneRating)
		setRef(&m.VarietyRating, patch.VarietyRating)
		setRef(&m.ReviewText, patch.ReviewText)
		m.UpdatedAt = r.items.store.touch(m.UpdatedAt)
		updated = *m
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *messReviewRepository) Delete(ctx context.Context, id string) error {
	return r.items.mutate(ctx, "delete", func(items []models.MessReview) ([]models.MessReview, error) {
		return filterItems(items, func(m models.MessReview) bool { return m.ID != id }), nil
	})
}

func (r *messReviewRepository) DailyAverages(ctx context.Context, query repository.AveragesQuery) ([]models.DailyAverage, error) {
	items, err := r.items.all(ctx, "averages")
	if err != nil {
		return nil, err
	}
	return models.DailyAverages(items, query.StartDate, query.EndDate, query.MealType), nil
}
