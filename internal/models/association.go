// internal/models/association.go
package models

import (
	"time"
)

// FoodPairAssociation tracks how often two foods are eaten in the same meal
// of one meal type. FoodLowID is always less than FoodHighID, so an unordered
// pair has exactly one record per meal type.
type FoodPairAssociation struct {
	ID                       int64     `json:"id"`
	MealType                 MealType  `json:"meal_type"`
	FoodLowID                int64     `json:"food_low_id"`
	FoodHighID               int64     `json:"food_high_id"`
	CoOccurrenceCount        int       `json:"co_occurrence_count"`
	TotalOccurrencesFoodLow  int       `json:"total_occurrences_food_low"`
	TotalOccurrencesFoodHigh int       `json:"total_occurrences_food_high"`
	Confidence               float64   `json:"confidence"`         // P(high | low)
	ReverseConfidence        float64   `json:"reverse_confidence"` // P(low | high)
	Support                  float64   `json:"support"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// UpdateMetrics recomputes confidence and support. totalMeals is the number
// of distinct dates with at least one entry of the record's meal type.
func (a *FoodPairAssociation) UpdateMetrics(totalMeals int) {
	a.Confidence = ratio(a.CoOccurrenceCount, a.TotalOccurrencesFoodLow)
	a.ReverseConfidence = ratio(a.CoOccurrenceCount, a.TotalOccurrencesFoodHigh)
	a.Support = ratio(a.CoOccurrenceCount, totalMeals)
}

// Partner returns the other food of the pair.
func (a *FoodPairAssociation) Partner(foodID int64) int64 {
	if a.FoodLowID == foodID {
		return a.FoodHighID
	}
	return a.FoodLowID
}

// ConfidenceFrom returns P(partner | foodID).
func (a *FoodPairAssociation) ConfidenceFrom(foodID int64) float64 {
	if a.FoodLowID == foodID {
		return a.Confidence
	}
	return a.ReverseConfidence
}

// SetTotal applies a recounted occurrence total to whichever slot foodID holds.
func (a *FoodPairAssociation) SetTotal(foodID int64, total int) {
	if a.FoodLowID == foodID {
		a.TotalOccurrencesFoodLow = total
	}
	if a.FoodHighID == foodID {
		a.TotalOccurrencesFoodHigh = total
	}
}

// ratio is clamped to [0,1]. Totals can lag co-occurrence counts until the
// next recount of a racing update.
func ratio(num, den int) float64 {
	if den <= 0 || num <= 0 {
		return 0.0
	}
	r := float64(num) / float64(den)
	if r > 1.0 {
		return 1.0
	}
	return r
}

type Recommendation struct {
	FoodID            int64   `json:"food_id"`
	AntecedentFoodID  int64   `json:"antecedent_food_id"`
	Confidence        float64 `json:"confidence"`
	Support           float64 `json:"support"`
	CoOccurrenceCount int     `json:"co_occurrence_count"`
}

type PopularCombination struct {
	Food1ID           int64   `json:"food1_id"`
	Food2ID           int64   `json:"food2_id"`
	CoOccurrenceCount int     `json:"co_occurrence_count"`
	Confidence        float64 `json:"confidence"`
	ReverseConfidence float64 `json:"reverse_confidence"`
	Support           float64 `json:"support"`
}

type MealInsights struct {
	MealType               MealType            `json:"meal_type"`
	TotalAssociations      int                 `json:"total_associations"`
	HighConfidencePairs    int                 `json:"high_confidence_pairs"`
	MostPopularCombination *PopularCombination `json:"most_popular_combination"`
}
