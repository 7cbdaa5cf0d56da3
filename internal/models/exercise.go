// internal/models/exercise.go
package models

type Exercise struct {
	ID              int64   `json:"id"`
	Date            string  `json:"date"`
	Name            string  `json:"name"`
	DurationMinutes float64 `json:"duration_minutes"`
	CaloriesBurned  float64 `json:"calories_burned"`
}

type WeightEntry struct {
	ID       int64   `json:"id"`
	Date     string  `json:"date"`
	WeightKg float64 `json:"weight_kg"`
}
