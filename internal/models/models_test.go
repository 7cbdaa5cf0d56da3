package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMealType(t *testing.T) {
	cases := map[string]MealType{
		"breakfast": Breakfast,
		" Lunch ":   Lunch,
		"DINNER":    Dinner,
		"snack":     Snack,
		"snack1":    Snack1,
		"snack2":    Snack2,
		"morgenmad": Breakfast,
		"frokost":   Lunch,
		"Aftensmad": Dinner,
	}
	for in, want := range cases {
		got, err := ParseMealType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "brunch", "snack3"} {
		_, err := ParseMealType(bad)
		assert.True(t, errors.Is(err, ErrInvalidMealType), bad)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", FormatDate(d))

	_, err = ParseDate("02/01/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestUpdateMetricsZeroDenominators(t *testing.T) {
	a := FoodPairAssociation{CoOccurrenceCount: 3}
	a.UpdateMetrics(0)
	assert.Equal(t, 0.0, a.Confidence)
	assert.Equal(t, 0.0, a.ReverseConfidence)
	assert.Equal(t, 0.0, a.Support)
}

func TestUpdateMetricsDirectional(t *testing.T) {
	a := FoodPairAssociation{
		FoodLowID:                10,
		FoodHighID:               20,
		CoOccurrenceCount:        1,
		TotalOccurrencesFoodLow:  2,
		TotalOccurrencesFoodHigh: 1,
	}
	a.UpdateMetrics(4)
	assert.InDelta(t, 0.5, a.Confidence, 1e-9)
	assert.InDelta(t, 1.0, a.ReverseConfidence, 1e-9)
	assert.InDelta(t, 0.25, a.Support, 1e-9)

	assert.Equal(t, int64(20), a.Partner(10))
	assert.Equal(t, int64(10), a.Partner(20))
	assert.InDelta(t, 0.5, a.ConfidenceFrom(10), 1e-9)
	assert.InDelta(t, 1.0, a.ConfidenceFrom(20), 1e-9)
}

func TestUpdateMetricsClampsStaleTotals(t *testing.T) {
	a := FoodPairAssociation{CoOccurrenceCount: 5, TotalOccurrencesFoodLow: 2, TotalOccurrencesFoodHigh: 5}
	a.UpdateMetrics(3)
	assert.Equal(t, 1.0, a.Confidence)
	assert.Equal(t, 1.0, a.ReverseConfidence)
	assert.Equal(t, 1.0, a.Support)
}

func TestNutrientsForGramsAndAdd(t *testing.T) {
	per100 := Nutrients{Calories: 200, Protein: 10, Magnesium: 4}
	half := per100.ForGrams(50)
	assert.InDelta(t, 100, half.Calories, 1e-9)
	assert.InDelta(t, 5, half.Protein, 1e-9)
	assert.InDelta(t, 2, half.Magnesium, 1e-9)

	sum := half.Add(per100)
	assert.InDelta(t, 300, sum.Calories, 1e-9)
	assert.InDelta(t, 15, sum.Protein, 1e-9)
	assert.InDelta(t, 6, sum.Magnesium, 1e-9)
	// inputs are not mutated
	assert.InDelta(t, 200, per100.Calories, 1e-9)
	assert.Len(t, per100.Values(), 18)
}
