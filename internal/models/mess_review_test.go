package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestAverageRating(t *testing.T) {
	reviews := []MessReview{
		{MealType: MealLunch, MealDate: "2025-03-01", Rating: 4},
		{MealType: MealLunch, MealDate: "2025-03-01", Rating: 5},
		{MealType: MealLunch, MealDate: "2025-03-01", Rating: 4},
		{MealType: MealDinner, MealDate: "2025-03-01", Rating: 1},
	}

	require.Equal(t, 4.3, AverageRating(reviews, MealLunch, "2025-03-01"))
	require.Equal(t, 3.5, AverageRating(reviews, "", ""))
	require.Equal(t, 0.0, AverageRating(reviews, MealBreakfast, ""))
}

func TestDailyAveragesGroupsNewestFirst(t *testing.T) {
	reviews := []MessReview{
		{MealType: MealDinner, MealDate: "2025-03-01", Rating: 3, TasteRating: intPtr(4)},
		{MealType: MealLunch, MealDate: "2025-03-01", Rating: 5},
		{MealType: MealLunch, MealDate: "2025-03-02", Rating: 2, TasteRating: intPtr(1)},
		{MealType: MealLunch, MealDate: "2025-03-02", Rating: 3, TasteRating: intPtr(2)},
		{MealType: MealLunch, MealDate: "2025-02-20", Rating: 1},
	}

	out := DailyAverages(reviews, "2025-03-01", "2025-03-02", "")
	require.Len(t, out, 3)
	require.Equal(t, "2025-03-02", out[0].Date)
	require.Equal(t, 2.5, out[0].AverageRating)
	require.Equal(t, 2, out[0].ReviewCount)
	require.Equal(t, 1.5, *out[0].AvgTaste)
	require.Nil(t, out[0].AvgHygiene)
	require.Equal(t, MealLunch, out[1].MealType)
	require.Equal(t, MealDinner, out[2].MealType)

	lunchOnly := DailyAverages(reviews, "2025-03-01", "2025-03-02", MealLunch)
	require.Len(t, lunchOnly, 2)
}
