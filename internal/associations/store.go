// internal/associations/store.go
package associations

import (
	"context"

	"nutrition-log/internal/models"
	"nutrition-log/internal/storage"
)

// Tx is the diary log and association store as seen from inside one
// transaction.
type Tx interface {
	MealFoodIDs(ctx context.Context, date string, mealType models.MealType) ([]int64, error)
	CountFoodMeals(ctx context.Context, foodID int64, mealType models.MealType) (int, error)
	DistinctMealDates(ctx context.Context, mealType models.MealType) (int, error)
	MealDates(ctx context.Context, mealType models.MealType) ([]string, error)

	GetOrCreateAssociation(ctx context.Context, mealType models.MealType, a, b int64) (*models.FoodPairAssociation, error)
	FindAssociations(ctx context.Context, mealType models.MealType, foodID int64) ([]*models.FoodPairAssociation, error)
	FindAssociationsByMealType(ctx context.Context, mealType models.MealType) ([]*models.FoodPairAssociation, error)
	SaveAssociation(ctx context.Context, a *models.FoodPairAssociation) error
	DeleteAssociationsByMealType(ctx context.Context, mealType models.MealType) (int64, error)
}

// Store runs reads directly and writes through WithinTx. Everything fn does
// commits together or not at all.
type Store interface {
	Tx
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

type sqliteStore struct {
	*storage.SQLiteStorage
}

func NewSQLiteStore(s *storage.SQLiteStorage) Store {
	return sqliteStore{SQLiteStorage: s}
}

func (s sqliteStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.WithTx(ctx, func(tx *storage.Tx) error {
		return fn(tx)
	})
}
