package dto

// MessReviewCreateRequest is the payload for reviewing a meal. MealDate
// defaults to today when empty.
type MessReviewCreateRequest struct {
	MealType       string  `json:"meal_type" validate:"required,oneof=breakfast lunch snack dinner"`
	Rating         int     `json:"rating" validate:"required,min=1,max=5"`
	TasteRating    *int    `json:"taste_rating,omitempty" validate:"omitempty,min=1,max=5"`
	QuantityRating *int    `json:"quantity_rating,omitempty" validate:"omitempty,min=1,max=5"`
	HygieneRating  *int    `json:"hygiene_rating,omitempty" validate:"omitempty,min=1,max=5"`
	VarietyRating  *int    `json:"variety_rating,omitempty" validate:"omitempty,min=1,max=5"`
	ReviewText     *string `json:"review_text,omitempty" validate:"omitempty,max=1000"`
	MealDate       string  `json:"meal_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// MessReviewUpdateRequest carries the review fields to change.
type MessReviewUpdateRequest struct {
	Rating         *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	TasteRating    *int    `json:"taste_rating,omitempty" validate:"omitempty,min=1,max=5"`
	QuantityRating *int    `json:"quantity_rating,omitempty" validate:"omitempty,min=1,max=5"`
	HygieneRating  *int    `json:"hygiene_rating,omitempty" validate:"omitempty,min=1,max=5"`
	VarietyRating  *int    `json:"variety_rating,omitempty" validate:"omitempty,min=1,max=5"`
	ReviewText     *string `json:"review_text,omitempty" validate:"omitempty,max=1000"`
}
