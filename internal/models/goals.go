// internal/models/goals.go
package models

import (
	"time"
)

type Goals struct {
	DailyCalories float64 `json:"daily_calories"`
	ProteinTarget float64 `json:"protein_target"`
	CarbsTarget   float64 `json:"carbs_target"`
	FatTarget     float64 `json:"fat_target"`
}

func DefaultGoals() Goals {
	return Goals{
		DailyCalories: 2000,
		ProteinTarget: 150,
		CarbsTarget:   250,
		FatTarget:     70,
	}
}

type UserSettings struct {
	// Personal metrics
	HeightCm           float64 `json:"height_cm"`
	StartingWeightKg   float64 `json:"starting_weight_kg"`
	StartingWeightDate string  `json:"starting_weight_date"`
	CurrentWeightKg    float64 `json:"current_weight_kg"`
	GoalWeightKg       float64 `json:"goal_weight_kg"`
	WeeklyGoalKg       float64 `json:"weekly_goal_kg"` // positive for loss, negative for gain

	// Nutrition goals
	CustomizeDailyGoals     bool `json:"customize_daily_goals"`
	CalorieGoalsByMeal      bool `json:"calorie_goals_by_meal"`
	ShowNutrientsByMeal     bool `json:"show_nutrients_by_meal"`
	ShowNutrientsAsPercent  bool `json:"show_nutrients_as_percent"`
	AdditionalNutrientGoals bool `json:"additional_nutrient_goals"`

	// Fitness goals
	WorkoutsPerWeek            int  `json:"workouts_per_week"`
	MinutesPerWorkout          int  `json:"minutes_per_workout"`
	AdjustDailyGoalsOnExercise bool `json:"adjust_daily_goals_on_exercise"`

	// UI
	Theme    string `json:"theme"`
	Language string `json:"language"`
	Units    string `json:"units"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func DefaultUserSettings(now time.Time) UserSettings {
	return UserSettings{
		HeightCm:                   179.0,
		StartingWeightKg:           97.0,
		StartingWeightDate:         FormatDate(now),
		CurrentWeightKg:            101.5,
		GoalWeightKg:               85.0,
		WeeklyGoalKg:               0.5,
		CustomizeDailyGoals:        true,
		CalorieGoalsByMeal:         true,
		ShowNutrientsByMeal:        true,
		AdjustDailyGoalsOnExercise: true,
		Theme:                      "dark",
		Language:                   "da",
		Units:                      "metric",
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}
}
