package models

import (
	"math"
	"sort"
	"time"
)

// Meal types.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealSnack     = "snack"
	MealDinner    = "dinner"
)

// DateLayout is the calendar date format used for meal dates.
const DateLayout = "2006-01-02"

// MessReview is a rating of one meal on one date.
type MessReview struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name"`
	MealType       string    `json:"meal_type"`
	Rating         int       `json:"rating"`
	TasteRating    *int      `json:"taste_rating,omitempty"`
	QuantityRating *int      `json:"quantity_rating,omitempty"`
	HygieneRating  *int      `json:"hygiene_rating,omitempty"`
	VarietyRating  *int      `json:"variety_rating,omitempty"`
	ReviewText     *string   `json:"review_text,omitempty"`
	MealDate       string    `json:"meal_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DailyAverage aggregates ratings for one meal on one date.
type DailyAverage struct {
	Date          string   `json:"date"`
	MealType      string   `json:"meal_type"`
	AverageRating float64  `json:"average_rating"`
	ReviewCount   int      `json:"review_count"`
	AvgTaste      *float64 `json:"avg_taste,omitempty"`
	AvgQuantity   *float64 `json:"avg_quantity,omitempty"`
	AvgHygiene    *float64 `json:"avg_hygiene,omitempty"`
	AvgVariety    *float64 `json:"avg_variety,omitempty"`
}

// AverageRating is the mean overall rating of reviews matching mealType and
// date, rounded to one decimal. Empty filters match everything; no matches yield 0.
func AverageRating(reviews []MessReview, mealType, date string) float64 {
	sum, count := 0, 0
	for _, r := range reviews {
		if mealType != "" && r.MealType != mealType {
			continue
		}
		if date != "" && r.MealDate != date {
			continue
		}
		sum += r.Rating
		count++
	}
	if count == 0 {
		return 0
	}
	return roundTo(float64(sum)/float64(count), 1)
}

// DailyAverages groups reviews in [start, end] by date and meal, newest date first.
func DailyAverages(reviews []MessReview, start, end, mealType string) []DailyAverage {
	type acc struct {
		sum, count                     int
		taste, quantity, hygiene, vari subAverage
	}
	groups := map[[2]string]*acc{}
	for _, r := range reviews {
		if r.MealDate < start || r.MealDate > end {
			continue
		}
		if mealType != "" && r.MealType != mealType {
			continue
		}
		key := [2]string{r.MealDate, r.MealType}
		a, ok := groups[key]
		if !ok {
			a = &acc{}
			groups[key] = a
		}
		a.sum += r.Rating
		a.count++
		a.taste.add(r.TasteRating)
		a.quantity.add(r.QuantityRating)
		a.hygiene.add(r.HygieneRating)
		a.vari.add(r.VarietyRating)
	}

	out := make([]DailyAverage, 0, len(groups))
	for key, a := range groups {
		out = append(out, DailyAverage{
			Date:          key[0],
			MealType:      key[1],
			AverageRating: roundTo(float64(a.sum)/float64(a.count), 2),
			ReviewCount:   a.count,
			AvgTaste:      a.taste.value(),
			AvgQuantity:   a.quantity.value(),
			AvgHygiene:    a.hygiene.value(),
			AvgVariety:    a.vari.value(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return mealOrder(out[i].MealType) < mealOrder(out[j].MealType)
	})
	return out
}

type subAverage struct {
	sum, count int
}

func (s *subAverage) add(v *int) {
	if v != nil {
		s.sum += *v
		s.count++
	}
}

func (s subAverage) value() *float64 {
	if s.count == 0 {
		return nil
	}
	v := roundTo(float64(s.sum)/float64(s.count), 2)
	return &v
}

func mealOrder(meal string) int {
	switch meal {
	case MealBreakfast:
		return 0
	case MealLunch:
		return 1
	case MealSnack:
		return 2
	case MealDinner:
		return 3
	default:
		return 4
	}
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
