package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrition-log/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nutrition.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createFood(t *testing.T, s *SQLiteStorage, name string) *models.Food {
	t.Helper()
	food := &models.Food{Name: name, Nutrients: models.Nutrients{Calories: 200, Protein: 10}}
	require.NoError(t, s.CreateFood(context.Background(), food))
	return food
}

func TestCanonicalPair(t *testing.T) {
	low, high := CanonicalPair(9, 4)
	assert.Equal(t, int64(4), low)
	assert.Equal(t, int64(9), high)

	low, high = CanonicalPair(4, 9)
	assert.Equal(t, int64(4), low)
	assert.Equal(t, int64(9), high)
}

func TestGetOrCreateAssociationCanonicalOrdering(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	a := createFood(t, s, "rugbrød")
	b := createFood(t, s, "leverpostej")

	first, err := s.GetOrCreateAssociation(ctx, models.Lunch, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, first.FoodLowID)
	assert.Equal(t, b.ID, first.FoodHighID)
	assert.Zero(t, first.CoOccurrenceCount)

	second, err := s.GetOrCreateAssociation(ctx, models.Lunch, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := s.FindAssociationsByMealType(ctx, models.Lunch)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	other, err := s.GetOrCreateAssociation(ctx, models.Dinner, a.ID, b.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestGetOrCreateAssociationRejectsSelfPair(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	a := createFood(t, s, "havregryn")

	_, err := s.GetOrCreateAssociation(ctx, models.Breakfast, a.ID, a.ID)
	require.ErrorIs(t, err, ErrSelfPair)

	all, err := s.FindAssociationsByMealType(ctx, models.Breakfast)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFindAssociationsEitherSlot(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	a := createFood(t, s, "a")
	b := createFood(t, s, "b")
	c := createFood(t, s, "c")

	for _, pair := range [][2]int64{{a.ID, b.ID}, {b.ID, c.ID}, {a.ID, c.ID}} {
		_, err := s.GetOrCreateAssociation(ctx, models.Dinner, pair[0], pair[1])
		require.NoError(t, err)
	}

	found, err := s.FindAssociations(ctx, models.Dinner, b.ID)
	require.NoError(t, err)
	require.Len(t, found, 2)
	for _, assoc := range found {
		assert.True(t, assoc.FoodLowID == b.ID || assoc.FoodHighID == b.ID)
	}

	none, err := s.FindAssociations(ctx, models.Lunch, b.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSaveAssociation(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	a := createFood(t, s, "a")
	b := createFood(t, s, "b")

	assoc, err := s.GetOrCreateAssociation(ctx, models.Snack, a.ID, b.ID)
	require.NoError(t, err)
	assoc.CoOccurrenceCount = 2
	assoc.TotalOccurrencesFoodLow = 4
	assoc.TotalOccurrencesFoodHigh = 2
	assoc.UpdateMetrics(8)
	require.NoError(t, s.SaveAssociation(ctx, assoc))

	reloaded, err := s.GetOrCreateAssociation(ctx, models.Snack, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.CoOccurrenceCount)
	assert.InDelta(t, 0.5, reloaded.Confidence, 1e-9)
	assert.InDelta(t, 1.0, reloaded.ReverseConfidence, 1e-9)
	assert.InDelta(t, 0.25, reloaded.Support, 1e-9)

	deleted, err := s.DeleteAssociationsByMealType(ctx, models.Snack)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestFoodCRUD(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	food := createFood(t, s, "Skyr")
	assert.NotZero(t, food.ID)
	assert.Equal(t, models.DefaultFoodCategory, food.Category)

	dup := &models.Food{Name: "Skyr"}
	require.ErrorIs(t, s.CreateFood(ctx, dup), ErrDuplicate)

	got, err := s.GetFood(ctx, food.ID)
	require.NoError(t, err)
	assert.Equal(t, "Skyr", got.Name)
	assert.InDelta(t, 200, got.Calories, 1e-9)
	assert.Nil(t, got.LastUsed)

	got.Brand = "Arla"
	require.NoError(t, s.UpdateFood(ctx, got))
	byName, err := s.GetFoodByName(ctx, "Skyr")
	require.NoError(t, err)
	assert.Equal(t, "Arla", byName.Brand)

	createFood(t, s, "Skyrmousse")
	createFood(t, s, "Banan")
	found, err := s.ListFoods(ctx, FoodFilter{Search: "skyr"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = s.GetFood(ctx, 9999)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteFood(ctx, food.ID))
	require.ErrorIs(t, s.DeleteFood(ctx, food.ID), ErrNotFound)
}

func TestDeleteFoodInUse(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	food := createFood(t, s, "Æble")

	entry := &models.DiaryEntry{Date: "2024-01-01", MealType: models.Snack, FoodID: food.ID}
	require.NoError(t, s.CreateDiaryEntry(ctx, entry))

	require.ErrorIs(t, s.DeleteFood(ctx, food.ID), ErrInUse)
}

func TestDiaryLogQueries(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	bread := createFood(t, s, "bread")
	butter := createFood(t, s, "butter")

	log := []models.DiaryEntry{
		{Date: "2024-01-01", MealType: models.Breakfast, FoodID: bread.ID, AmountGrams: 50},
		{Date: "2024-01-01", MealType: models.Breakfast, FoodID: butter.ID},
		{Date: "2024-01-01", MealType: models.Breakfast, FoodID: butter.ID},
		{Date: "2024-01-02", MealType: models.Breakfast, FoodID: bread.ID},
		{Date: "2024-01-02", MealType: models.Lunch, FoodID: bread.ID},
	}
	for i := range log {
		require.NoError(t, s.CreateDiaryEntry(ctx, &log[i]))
	}
	assert.InDelta(t, models.DefaultAmountGrams, log[1].AmountGrams, 1e-9)

	ids, err := s.MealFoodIDs(ctx, "2024-01-01", models.Breakfast)
	require.NoError(t, err)
	assert.Equal(t, []int64{bread.ID, butter.ID, butter.ID}, ids)

	n, err := s.CountFoodMeals(ctx, butter.ID, models.Breakfast)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.CountFoodMeals(ctx, bread.ID, models.Breakfast)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.DistinctMealDates(ctx, models.Breakfast)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	dates, err := s.MealDates(ctx, models.Breakfast)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, dates)

	views, err := s.ListDiaryEntries(ctx, "2024-01-01", "")
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "bread", views[0].FoodName)
	assert.InDelta(t, 100, views[0].Calories, 1e-9)

	lunch, err := s.ListDiaryEntries(ctx, "2024-01-02", models.Lunch)
	require.NoError(t, err)
	assert.Len(t, lunch, 1)
}

func TestWithTxRollsBack(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx *Tx) error {
		if err := tx.CreateFood(ctx, &models.Food{Name: "ghost"}); err != nil {
			return err
		}
		return ErrSelfPair
	})
	require.ErrorIs(t, err, ErrSelfPair)

	_, err = s.GetFoodByName(ctx, "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.Close())

	err := s.WithTx(context.Background(), func(tx *Tx) error { return nil })
	require.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = s.GetFood(context.Background(), 1)
	require.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestGoalsAndSettings(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.GetGoals(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	goals := models.DefaultGoals()
	goals.DailyCalories = 2400
	require.NoError(t, s.PutGoals(ctx, goals))
	got, err := s.GetGoals(ctx)
	require.NoError(t, err)
	assert.Equal(t, goals, *got)

	settings, err := s.GetOrCreateSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dark", settings.Theme)

	settings.Theme = "light"
	require.NoError(t, s.PutSettings(ctx, settings))
	again, err := s.GetOrCreateSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "light", again.Theme)

	require.NoError(t, s.DeleteSettings(ctx))
	reset, err := s.GetOrCreateSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dark", reset.Theme)
}

func TestSeedNutrients(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	added, err := s.SeedNutrients(ctx, models.DefaultNutrients)
	require.NoError(t, err)
	assert.Equal(t, len(models.DefaultNutrients), added)

	added, err = s.SeedNutrients(ctx, models.DefaultNutrients)
	require.NoError(t, err)
	assert.Zero(t, added)

	fat, err := s.GetNutrientByName(ctx, "fat")
	require.NoError(t, err)
	assert.InDelta(t, 9.0, fat.CaloriesPerGram, 1e-9)
}

func TestSnapshot(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	food := createFood(t, s, "kartofler")
	require.NoError(t, s.CreateDiaryEntry(ctx, &models.DiaryEntry{Date: "2024-03-01", MealType: models.Dinner, FoodID: food.ID}))
	require.NoError(t, s.CreateWeight(ctx, &models.WeightEntry{Date: "2024-03-01", WeightKg: 90}))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Foods, 1)
	assert.Len(t, snap.DiaryEntries, 1)
	assert.Len(t, snap.Weights, 1)
	assert.Nil(t, snap.Goals)
	assert.Nil(t, snap.Settings)
}
