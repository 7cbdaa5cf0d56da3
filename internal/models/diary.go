// internal/models/diary.go
package models

import (
	"time"
)

const DefaultAmountGrams = 100.0

type DiaryEntry struct {
	ID          int64     `json:"id"`
	Date        string    `json:"date"`
	MealType    MealType  `json:"meal_type"`
	FoodID      int64     `json:"food_id"`
	AmountGrams float64   `json:"amount_grams"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DiaryEntryView is a diary entry joined with its food and the nutrition
// for the logged amount.
type DiaryEntryView struct {
	DiaryEntry
	FoodName string `json:"food_name"`
	Nutrients
}

type MealBreakdown struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fat           float64 `json:"fat"`
	EntryCount    int     `json:"entry_count"`
}

type DailySummary struct {
	Date       string                     `json:"date"`
	Totals     Nutrients                  `json:"totals"`
	EntryCount int                        `json:"entry_count"`
	Meals      map[MealType]MealBreakdown `json:"meal_breakdown"`
}

// MealKey identifies one meal: every diary entry sharing a date and meal type.
type MealKey struct {
	Date     string
	MealType MealType
}
