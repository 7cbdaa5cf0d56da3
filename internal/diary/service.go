// internal/diary/service.go
package diary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nutrition-log/internal/associations"
	"nutrition-log/internal/logger"
	"nutrition-log/internal/models"
	"nutrition-log/internal/storage"
)

var ErrInvalidAmount = errors.New("amount_grams must be positive")

// MealUpdater folds a changed meal into the food associations.
type MealUpdater interface {
	UpdateForMeal(ctx context.Context, date string, mealType models.MealType) (*associations.UpdateResult, error)
}

// Service owns diary writes. Every write is followed by an association
// update for each meal it touched.
type Service struct {
	store   *storage.SQLiteStorage
	updater MealUpdater
	log     *logger.Logger
	clock   func() time.Time
}

func NewService(store *storage.SQLiteStorage, updater MealUpdater, log *logger.Logger) *Service {
	return &Service{
		store:   store,
		updater: updater,
		log:     log.With("component", "diary"),
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

type NewEntry struct {
	Date        string  `json:"date" validate:"required"`
	MealType    string  `json:"meal_type" validate:"required,mealtype"`
	FoodID      int64   `json:"food_id" validate:"required,gt=0"`
	AmountGrams float64 `json:"amount_grams" validate:"gte=0"`
	Notes       string  `json:"notes"`
}

// EntryPatch changes only the fields that are set.
type EntryPatch struct {
	Date        *string  `json:"date"`
	MealType    *string  `json:"meal_type" validate:"omitempty,mealtype"`
	FoodID      *int64   `json:"food_id" validate:"omitempty,gt=0"`
	AmountGrams *float64 `json:"amount_grams" validate:"omitempty,gt=0"`
	Notes       *string  `json:"notes"`
}

// List returns the entries of date, all meals when mealType is empty.
func (s *Service) List(ctx context.Context, date, mealType string) ([]*models.DiaryEntryView, error) {
	if _, err := models.ParseDate(date); err != nil {
		return nil, err
	}
	var mt models.MealType
	if mealType != "" {
		var err error
		if mt, err = models.ParseMealType(mealType); err != nil {
			return nil, err
		}
	}
	views, err := s.store.ListDiaryEntries(ctx, date, mt)
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []*models.DiaryEntryView{}
	}
	return views, nil
}

func (s *Service) Add(ctx context.Context, in NewEntry) (*models.DiaryEntryView, error) {
	mt, err := models.ParseMealType(in.MealType)
	if err != nil {
		return nil, err
	}
	if _, err := models.ParseDate(in.Date); err != nil {
		return nil, err
	}
	if in.AmountGrams < 0 {
		return nil, ErrInvalidAmount
	}

	entry := &models.DiaryEntry{
		Date:        in.Date,
		MealType:    mt,
		FoodID:      in.FoodID,
		AmountGrams: in.AmountGrams,
		Notes:       in.Notes,
	}
	var food *models.Food
	err = s.store.WithTx(ctx, func(tx *storage.Tx) error {
		var err error
		if food, err = tx.GetFood(ctx, in.FoodID); err != nil {
			return err
		}
		if err := tx.CreateDiaryEntry(ctx, entry); err != nil {
			return err
		}
		return tx.MarkFoodUsed(ctx, food.ID, entry.AmountGrams/100.0, s.clock())
	})
	if err != nil {
		return nil, err
	}

	s.refresh(ctx, models.MealKey{Date: entry.Date, MealType: entry.MealType})
	return view(entry, food), nil
}

func (s *Service) Update(ctx context.Context, id int64, patch EntryPatch) (*models.DiaryEntryView, error) {
	var (
		before models.MealKey
		entry  *models.DiaryEntry
		food   *models.Food
	)
	err := s.store.WithTx(ctx, func(tx *storage.Tx) error {
		var err error
		if entry, err = tx.GetDiaryEntry(ctx, id); err != nil {
			return err
		}
		before = models.MealKey{Date: entry.Date, MealType: entry.MealType}

		if err := applyPatch(entry, patch); err != nil {
			return err
		}
		if food, err = tx.GetFood(ctx, entry.FoodID); err != nil {
			return err
		}
		return tx.UpdateDiaryEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	after := models.MealKey{Date: entry.Date, MealType: entry.MealType}
	s.refresh(ctx, before)
	if after != before {
		s.refresh(ctx, after)
	}
	return view(entry, food), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	var key models.MealKey
	err := s.store.WithTx(ctx, func(tx *storage.Tx) error {
		entry, err := tx.GetDiaryEntry(ctx, id)
		if err != nil {
			return err
		}
		key = models.MealKey{Date: entry.Date, MealType: entry.MealType}
		return tx.DeleteDiaryEntry(ctx, id)
	})
	if err != nil {
		return err
	}

	s.refresh(ctx, key)
	return nil
}

// Summary totals the nutrition logged on date, overall and per meal type.
func (s *Service) Summary(ctx context.Context, date string) (*models.DailySummary, error) {
	views, err := s.List(ctx, date, "")
	if err != nil {
		return nil, err
	}

	summary := &models.DailySummary{
		Date:       date,
		EntryCount: len(views),
		Meals:      make(map[models.MealType]models.MealBreakdown, len(models.AllMealTypes)),
	}
	for _, mt := range models.AllMealTypes {
		summary.Meals[mt] = models.MealBreakdown{}
	}
	for _, v := range views {
		summary.Totals = summary.Totals.Add(v.Nutrients)

		meal := summary.Meals[v.MealType]
		meal.Calories += v.Calories
		meal.Protein += v.Protein
		meal.Carbohydrates += v.Carbohydrates
		meal.Fat += v.Fat
		meal.EntryCount++
		summary.Meals[v.MealType] = meal
	}
	return summary, nil
}

// refresh runs the association update for a meal whose entries changed.
// The diary write has already committed, so a failure is logged rather than
// returned; a rebuild restores the associations.
func (s *Service) refresh(ctx context.Context, key models.MealKey) {
	if s.updater == nil {
		return
	}
	if _, err := s.updater.UpdateForMeal(ctx, key.Date, key.MealType); err != nil {
		s.log.Warn("association update after diary change failed",
			"date", key.Date,
			"meal_type", key.MealType,
			"error", err,
		)
	}
}

func applyPatch(entry *models.DiaryEntry, patch EntryPatch) error {
	if patch.Date != nil {
		if _, err := models.ParseDate(*patch.Date); err != nil {
			return err
		}
		entry.Date = *patch.Date
	}
	if patch.MealType != nil {
		mt, err := models.ParseMealType(*patch.MealType)
		if err != nil {
			return err
		}
		entry.MealType = mt
	}
	if patch.FoodID != nil {
		entry.FoodID = *patch.FoodID
	}
	if patch.AmountGrams != nil {
		if *patch.AmountGrams <= 0 {
			return fmt.Errorf("%w: got %v", ErrInvalidAmount, *patch.AmountGrams)
		}
		entry.AmountGrams = *patch.AmountGrams
	}
	if patch.Notes != nil {
		entry.Notes = *patch.Notes
	}
	return nil
}

func view(entry *models.DiaryEntry, food *models.Food) *models.DiaryEntryView {
	return &models.DiaryEntryView{
		DiaryEntry: *entry,
		FoodName:   food.Name,
		Nutrients:  food.Nutrients.ForGrams(entry.AmountGrams),
	}
}
