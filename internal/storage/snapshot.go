// internal/storage/snapshot.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nutrition-log/internal/models"
)

// Snapshot is a full copy of the stored data, as written by the export
// command.
type Snapshot struct {
	ExportedAt   time.Time                     `json:"exported_at"`
	Foods        []*models.Food                `json:"foods"`
	DiaryEntries []*models.DiaryEntry          `json:"diary_entries"`
	Associations []*models.FoodPairAssociation `json:"food_associations"`
	Exercises    []*models.Exercise            `json:"exercises"`
	Weights      []*models.WeightEntry         `json:"weights"`
	Goals        *models.Goals                 `json:"goals,omitempty"`
	Settings     *models.UserSettings          `json:"user_settings,omitempty"`
	Nutrients    []*models.Nutrient            `json:"nutrients"`
}

// Snapshot reads every table inside one transaction so the copy is
// consistent.
func (s *SQLiteStorage) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{ExportedAt: now()}
	err := s.WithTx(ctx, func(tx *Tx) error {
		var err error
		if snap.Foods, err = tx.ListFoods(ctx, FoodFilter{}); err != nil {
			return err
		}
		if snap.DiaryEntries, err = tx.allDiaryEntries(ctx); err != nil {
			return err
		}
		if snap.Associations, err = tx.queryAssociations(ctx, `SELECT `+associationColumns+`
            FROM food_associations ORDER BY meal_type, food_low_id, food_high_id`); err != nil {
			return err
		}
		if snap.Exercises, err = tx.ListExercises(ctx, ""); err != nil {
			return err
		}
		if snap.Weights, err = tx.ListWeights(ctx); err != nil {
			return err
		}
		if snap.Nutrients, err = tx.ListNutrients(ctx); err != nil {
			return err
		}

		goals, err := tx.GetGoals(ctx)
		switch {
		case err == nil:
			snap.Goals = goals
		case !errors.Is(err, ErrNotFound):
			return err
		}

		settings, err := tx.getSettings(ctx)
		switch {
		case err == nil:
			snap.Settings = settings
		case !errors.Is(err, ErrNotFound):
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (q *Queries) allDiaryEntries(ctx context.Context) ([]*models.DiaryEntry, error) {
	rows, err := q.q.QueryContext(ctx, `
        SELECT id, date, meal_type, food_id, amount_grams, notes, created_at, updated_at
        FROM diary_entries ORDER BY date, id
    `)
	if err != nil {
		return nil, classify(err, "query diary entries")
	}
	defer rows.Close()

	var out []*models.DiaryEntry
	for rows.Next() {
		entry, err := scanDiaryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan diary entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
