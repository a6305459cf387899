package remote

import (
	"context"
	"net/http"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/repository"
)

type messReviewRepository struct {
	client *Client
}

// NewMessReviewRepository reads and writes /mess-reviews.
func NewMessReviewRepository(client *Client) repository.MessReviewRepository {
	return &messReviewRepository{client: client}
}

func reviewPath(id string) string {
	return "/mess-reviews/" + segment(id)
}

func (r *messReviewRepository) List(ctx context.Context, filter repository.MessReviewFilter) ([]models.MessReview, error) {
	path := "/mess-reviews/"
	params := queryOf("meal_type", filter.MealType, "start_date", filter.MealDate, "end_date", filter.MealDate, "limit", "100")
	if filter.UserID != "" {
		path, params = "/mess-reviews/my-reviews", nil
	}
	items, err := list[models.MessReview](ctx, r.client, path, params, failed("load reviews"))
	if err != nil {
		return nil, err
	}
	return keep(items, func(m models.MessReview) bool {
		return matches(filter.MealType, m.MealType) &&
			matches(filter.MealDate, m.MealDate) &&
			matches(filter.UserID, m.UserID)
	}), nil
}

func (r *messReviewRepository) FindByID(ctx context.Context, id string) (*models.MessReview, error) {
	return find[models.MessReview](ctx, r.client, reviewPath(id), failed("load review"))
}

func (r *messReviewRepository) Create(ctx context.Context, review *models.MessReview) (*models.MessReview, error) {
	body := dto.MessReviewCreateRequest{
		MealType:       review.MealType,
		Rating:         review.Rating,
		TasteRating:    review.TasteRating,
		QuantityRating: review.QuantityRating,
		HygieneRating:  review.HygieneRating,
		VarietyRating:  review.VarietyRating,
		ReviewText:     review.ReviewText,
		MealDate:       review.MealDate,
	}
	return submit[models.MessReview](ctx, r.client, http.MethodPost, "/mess-reviews/", body, failed("submit review"))
}

func (r *messReviewRepository) Update(ctx context.Context, id string, patch dto.MessReviewUpdateRequest) (*models.MessReview, error) {
	return submit[models.MessReview](ctx, r.client, http.MethodPut, reviewPath(id), patch, failed("update review"))
}

func (r *messReviewRepository) Delete(ctx context.Context, id string) error {
	return exec(ctx, r.client, http.MethodDelete, reviewPath(id), nil, failed("delete review"))
}

func (r *messReviewRepository) DailyAverages(ctx context.Context, query repository.AveragesQuery) ([]models.DailyAverage, error) {
	params := queryOf("start_date", query.StartDate, "end_date", query.EndDate, "meal_type", query.MealType)
	return list[models.DailyAverage](ctx, r.client, "/mess-reviews/averages", params, failed("load averages"))
}
