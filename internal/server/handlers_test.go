package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrition-log/internal/associations"
	"nutrition-log/internal/backup"
	"nutrition-log/internal/models"
	"nutrition-log/internal/storage"
)

func TestFoodEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/foods", map[string]interface{}{
		"name": "Havregryn", "category": "grain", "calories": 372, "protein": 13.5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var oats models.Food
	decode(t, w, &oats)
	assert.NotZero(t, oats.ID)
	assert.InDelta(t, 372, oats.Calories, 1e-9)

	w = env.do(t, http.MethodPost, "/api/foods", map[string]interface{}{"name": "Havregryn"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate", errorCode(t, w))

	w = env.do(t, http.MethodPost, "/api/foods", map[string]interface{}{"category": "grain"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_failed", errorCode(t, w))

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/foods/%d", oats.ID), map[string]interface{}{"brand": "Ota"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Food
	decode(t, w, &updated)
	assert.Equal(t, "Havregryn", updated.Name)
	assert.Equal(t, "Ota", updated.Brand)
	assert.InDelta(t, 13.5, updated.Protein, 1e-9)

	w = env.do(t, http.MethodGet, "/api/foods?search=havre", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var found []models.Food
	decode(t, w, &found)
	assert.Len(t, found, 1)

	w = env.do(t, http.MethodGet, "/api/foods/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", errorCode(t, w))

	w = env.do(t, http.MethodGet, "/api/foods/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad_request", errorCode(t, w))

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/foods/%d", oats.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/foods/%d", oats.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteFoodInUseIsConflict(t *testing.T) {
	env := newTestEnv(t)
	food := env.createFood(t, "rugbrød", models.Nutrients{Calories: 210})

	w := env.do(t, http.MethodPost, "/api/diary/entries", map[string]interface{}{
		"date": "2024-05-01", "meal_type": "lunch", "food_id": food.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/foods/%d", food.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "in_use", errorCode(t, w))
}

func TestRecentAndMostUsedFoods(t *testing.T) {
	env := newTestEnv(t)
	food := env.createFood(t, "skyr", models.Nutrients{Calories: 63})
	env.createFood(t, "never eaten", models.Nutrients{})

	today := models.FormatDate(time.Now())
	w := env.do(t, http.MethodPost, "/api/diary/entries", map[string]interface{}{
		"date": today, "meal_type": "breakfast", "food_id": food.ID, "amount_grams": 150,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/foods/recent?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var recent []models.Food
	decode(t, w, &recent)
	require.NotEmpty(t, recent)
	assert.Equal(t, "skyr", recent[0].Name)

	w = env.do(t, http.MethodGet, "/api/foods/most-used?days=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var usage []models.FoodUsage
	decode(t, w, &usage)
	require.Len(t, usage, 1)
}

func TestDiaryEndpoints(t *testing.T) {
	env := newTestEnv(t)
	oats := env.createFood(t, "oats", models.Nutrients{Calories: 380, Protein: 13})

	w := env.do(t, http.MethodPost, "/api/diary/entries", map[string]interface{}{
		"date": "2024-05-01", "meal_type": "morgenmad", "food_id": oats.ID, "amount_grams": 50,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var entry models.DiaryEntryView
	decode(t, w, &entry)
	assert.Equal(t, models.Breakfast, entry.MealType)
	assert.Equal(t, "oats", entry.FoodName)
	assert.InDelta(t, 190, entry.Calories, 1e-9)

	w = env.do(t, http.MethodPost, "/api/diary/entries", map[string]interface{}{
		"date": "2024-05-01", "meal_type": "brunch", "food_id": oats.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_failed", errorCode(t, w))

	w = env.do(t, http.MethodPost, "/api/diary/entries", map[string]interface{}{
		"date": "2024-05-01", "meal_type": "lunch", "food_id": 9999,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/diary/entries", map[string]interface{}{
		"date": "01/05/2024", "meal_type": "lunch", "food_id": oats.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_date", errorCode(t, w))

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/diary/entries/%d", entry.ID), map[string]interface{}{
		"meal_type": "lunch", "amount_grams": 100,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var moved models.DiaryEntryView
	decode(t, w, &moved)
	assert.Equal(t, models.Lunch, moved.MealType)
	assert.InDelta(t, 380, moved.Calories, 1e-9)

	w = env.do(t, http.MethodGet, "/api/diary/entries?date=2024-05-01&meal_type=lunch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []models.DiaryEntryView
	decode(t, w, &entries)
	assert.Len(t, entries, 1)

	w = env.do(t, http.MethodGet, "/api/diary/summary?date=2024-05-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary models.DailySummary
	decode(t, w, &summary)
	assert.Equal(t, 1, summary.EntryCount)
	assert.InDelta(t, 380, summary.Totals.Calories, 1e-9)
	assert.Equal(t, 1, summary.Meals[models.Lunch].EntryCount)
	assert.Contains(t, summary.Meals, models.Snack2)

	w = env.do(t, http.MethodGet, "/api/diary/summary", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_date", errorCode(t, w))

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/diary/entries/%d", entry.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/diary/entries/%d", entry.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type loggedMeal struct {
	date  string
	foods []int64
}

// logMeals logs each meal through the diary API in order, so the association
// engine sees them the way a client would produce them.
func logMeals(t *testing.T, env *testEnv, mealType string, meals []loggedMeal) {
	t.Helper()
	for _, meal := range meals {
		for _, id := range meal.foods {
			w := env.do(t, http.MethodPost, "/api/diary/entries", map[string]interface{}{
				"date": meal.date, "meal_type": mealType, "food_id": id,
			})
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		}
	}
}

type recommendationsBody struct {
	FoodID          int64                   `json:"food_id"`
	MealType        models.MealType         `json:"meal_type"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

type combinationsBody struct {
	MealType     models.MealType             `json:"meal_type"`
	Combinations []models.PopularCombination `json:"combinations"`
}

func TestAssociationEndpoints(t *testing.T) {
	env := newTestEnv(t)
	oats := env.createFood(t, "oats", models.Nutrients{Calories: 380})
	milk := env.createFood(t, "milk", models.Nutrients{Calories: 64})
	coffee := env.createFood(t, "coffee", models.Nutrients{Calories: 2})

	logMeals(t, env, "breakfast", []loggedMeal{
		{"2024-04-30", []int64{coffee.ID}},
		{"2024-05-01", []int64{oats.ID, milk.ID}},
		{"2024-05-02", []int64{oats.ID, milk.ID}},
	})

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/food-associations/recommendations?food_id=%d&meal_type=breakfast", oats.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var recs recommendationsBody
	decode(t, w, &recs)
	require.Len(t, recs.Recommendations, 1)
	rec := recs.Recommendations[0]
	assert.Equal(t, milk.ID, rec.FoodID)
	assert.Equal(t, oats.ID, rec.AntecedentFoodID)
	assert.Equal(t, 2, rec.CoOccurrenceCount)
	assert.InDelta(t, 1.0, rec.Confidence, 1e-9)
	assert.InDelta(t, 2.0/3.0, rec.Support, 1e-9)

	// Breakfast is the default meal type.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/food-associations/recommendations?food_id=%d", oats.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &recs)
	assert.Equal(t, models.Breakfast, recs.MealType)
	assert.Len(t, recs.Recommendations, 1)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/food-associations/recommendations?food_id=%d&meal_type=dinner", oats.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &recs)
	assert.Empty(t, recs.Recommendations)
	assert.NotNil(t, recs.Recommendations)

	w = env.do(t, http.MethodGet, "/api/food-associations/recommendations?meal_type=breakfast", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad_request", errorCode(t, w))

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/food-associations/recommendations?food_id=%d&meal_type=brunch", oats.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_meal_type", errorCode(t, w))

	w = env.do(t, http.MethodGet, "/api/food-associations/popular-combinations?meal_type=breakfast", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var combos combinationsBody
	decode(t, w, &combos)
	require.Len(t, combos.Combinations, 1)
	assert.Equal(t, oats.ID, combos.Combinations[0].Food1ID)
	assert.Equal(t, milk.ID, combos.Combinations[0].Food2ID)
	assert.Equal(t, 2, combos.Combinations[0].CoOccurrenceCount)

	w = env.do(t, http.MethodGet, "/api/food-associations/insights?meal_type=breakfast", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var insights struct {
		Insights models.MealInsights `json:"insights"`
	}
	decode(t, w, &insights)
	assert.Equal(t, 1, insights.Insights.TotalAssociations)
	assert.Equal(t, 1, insights.Insights.HighConfidencePairs)
	require.NotNil(t, insights.Insights.MostPopularCombination)
	assert.Equal(t, 2, insights.Insights.MostPopularCombination.CoOccurrenceCount)
}

func TestUpdateMealAndRebuildEndpoints(t *testing.T) {
	env := newTestEnv(t)
	bread := env.createFood(t, "rugbrød", models.Nutrients{Calories: 210})
	paste := env.createFood(t, "leverpostej", models.Nutrients{Calories: 250})

	logMeals(t, env, "lunch", []loggedMeal{
		{"2024-05-01", []int64{bread.ID, paste.ID}},
	})

	// A manual update counts the meal again.
	w := env.do(t, http.MethodPost, "/api/food-associations/update-meal", map[string]string{
		"date": "2024-05-01", "meal_type": "frokost",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res associations.UpdateResult
	decode(t, w, &res)
	assert.Equal(t, models.Lunch, res.MealType)
	assert.Equal(t, 1, res.Pairs)

	records, err := env.storage.FindAssociationsByMealType(context.Background(), models.Lunch)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].CoOccurrenceCount)

	w = env.do(t, http.MethodPost, "/api/food-associations/update-meal", map[string]string{
		"date": "2024-05-01", "meal_type": "brunch",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/food-associations/rebuild", map[string]string{"meal_type": "lunch"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rebuilt struct {
		Results []associations.RebuildResult `json:"results"`
	}
	decode(t, w, &rebuilt)
	require.Len(t, rebuilt.Results, 1)
	assert.Equal(t, 1, rebuilt.Results[0].Dates)

	records, err = env.storage.FindAssociationsByMealType(context.Background(), models.Lunch)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].CoOccurrenceCount)

	w = env.do(t, http.MethodPost, "/api/food-associations/rebuild", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &rebuilt)
	assert.Len(t, rebuilt.Results, len(models.AllMealTypes))
}

func TestExerciseEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/exercise", map[string]interface{}{
		"date": "2024-05-01", "name": "løb", "duration_minutes": 30, "calories_burned": 320,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ex models.Exercise
	decode(t, w, &ex)

	w = env.do(t, http.MethodPost, "/api/exercise", map[string]interface{}{
		"date": "2024-05-02", "name": "cykling", "duration_minutes": 60, "calories_burned": 500,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/exercise", map[string]interface{}{"date": "yesterday", "name": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_failed", errorCode(t, w))

	w = env.do(t, http.MethodGet, "/api/exercise?date=2024-05-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Exercise
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "løb", list[0].Name)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/exercise/%d", ex.ID), map[string]interface{}{"calories_burned": 350})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &ex)
	assert.Equal(t, "løb", ex.Name)
	assert.InDelta(t, 350, ex.CaloriesBurned, 1e-9)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/exercise/%d", ex.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/exercise", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Len(t, list, 1)
}

func TestWeightEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []map[string]interface{}{
		{"date": "2024-05-01", "weight_kg": 101.5},
		{"date": "2024-05-08", "weight_kg": 100.7},
	} {
		w := env.do(t, http.MethodPost, "/api/weight", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := env.do(t, http.MethodPost, "/api/weight", map[string]interface{}{"date": "2024-05-09", "weight_kg": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/weight", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var weights []models.WeightEntry
	decode(t, w, &weights)
	require.Len(t, weights, 2)
	assert.Equal(t, "2024-05-08", weights[0].Date)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/weight/%d", weights[0].ID), map[string]interface{}{"weight_kg": 100.2})
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.WeightEntry
	decode(t, w, &updated)
	assert.Equal(t, "2024-05-08", updated.Date)
	assert.InDelta(t, 100.2, updated.WeightKg, 1e-9)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/weight/%d", weights[1].ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/weight/%d", weights[1].ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGoalsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/goals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var goals models.Goals
	decode(t, w, &goals)
	assert.Equal(t, models.DefaultGoals(), goals)

	w = env.do(t, http.MethodPut, "/api/goals", map[string]interface{}{"protein_target": 180})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &goals)
	assert.InDelta(t, 2000, goals.DailyCalories, 1e-9)
	assert.InDelta(t, 180, goals.ProteinTarget, 1e-9)

	w = env.do(t, http.MethodPost, "/api/goals", map[string]interface{}{"daily_calories": 1800})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &goals)
	assert.InDelta(t, 1800, goals.DailyCalories, 1e-9)
	assert.InDelta(t, 150, goals.ProteinTarget, 1e-9)

	w = env.do(t, http.MethodGet, "/api/goals", nil)
	decode(t, w, &goals)
	assert.InDelta(t, 1800, goals.DailyCalories, 1e-9)

	w = env.do(t, http.MethodPut, "/api/goals", map[string]interface{}{"daily_calories": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/user-settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settings models.UserSettings
	decode(t, w, &settings)
	assert.Equal(t, "dark", settings.Theme)
	created := settings.CreatedAt

	w = env.do(t, http.MethodPut, "/api/user-settings", map[string]interface{}{"theme": "light", "workouts_per_week": 4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &settings)
	assert.Equal(t, "light", settings.Theme)
	assert.Equal(t, "da", settings.Language)
	assert.Equal(t, 4, settings.WorkoutsPerWeek)
	assert.True(t, created.Equal(settings.CreatedAt))

	w = env.do(t, http.MethodDelete, "/api/user-settings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/user-settings", nil)
	decode(t, w, &settings)
	assert.Equal(t, "dark", settings.Theme)
}

func TestNutrientEndpoints(t *testing.T) {
	env := newTestEnv(t)

	var seeded struct {
		Added int `json:"added"`
	}
	w := env.do(t, http.MethodPost, "/api/nutrients/initialize", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &seeded)
	assert.Equal(t, len(models.DefaultNutrients), seeded.Added)

	w = env.do(t, http.MethodPost, "/api/nutrients/initialize", nil)
	decode(t, w, &seeded)
	assert.Zero(t, seeded.Added)

	w = env.do(t, http.MethodGet, "/api/nutrients/name/fat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fat models.Nutrient
	decode(t, w, &fat)
	assert.InDelta(t, 9, fat.CaloriesPerGram, 1e-9)

	w = env.do(t, http.MethodPost, "/api/nutrients/calculate-calories", map[string]interface{}{
		"nutrient_name": "fat", "grams": 10,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var calc calorieResult
	decode(t, w, &calc)
	assert.InDelta(t, 90, calc.Calories, 1e-9)

	w = env.do(t, http.MethodPost, "/api/nutrients/calculate-calories", map[string]interface{}{
		"nutrient_name": "ethanol", "grams": 10,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/nutrients", map[string]interface{}{"name": "protein", "calories_per_gram": 4})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/nutrients", map[string]interface{}{"name": "polyols", "calories_per_gram": 2.4})
	require.Equal(t, http.StatusCreated, w.Code)
	var polyols models.Nutrient
	decode(t, w, &polyols)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/nutrients/%d", polyols.ID), map[string]interface{}{"description": "sugar alcohols"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &polyols)
	assert.Equal(t, "polyols", polyols.Name)
	assert.Equal(t, "sugar alcohols", polyols.Description)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/nutrients/%d", polyols.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/nutrients", nil)
	var all []models.Nutrient
	decode(t, w, &all)
	assert.Len(t, all, len(models.DefaultNutrients))
}

func TestAdminExportAndBackup(t *testing.T) {
	env := newTestEnv(t)
	env.createFood(t, "oats", models.Nutrients{Calories: 380})

	w := env.do(t, http.MethodGet, "/api/admin/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap storage.Snapshot
	decode(t, w, &snap)
	assert.Len(t, snap.Foods, 1)

	w = env.do(t, http.MethodPost, "/api/admin/backup", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res backup.Result
	decode(t, w, &res)
	_, err := os.Stat(res.Path)
	assert.NoError(t, err)

	env.server.backup = nil
	w = env.do(t, http.MethodPost, "/api/admin/backup", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "backup_disabled", errorCode(t, w))
}
