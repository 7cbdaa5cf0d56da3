// internal/storage/diary.go
package storage

import (
	"context"
	"fmt"

	"nutrition-log/internal/models"
)

func (q *Queries) CreateDiaryEntry(ctx context.Context, entry *models.DiaryEntry) error {
	ts := now()
	if entry.AmountGrams == 0 {
		entry.AmountGrams = models.DefaultAmountGrams
	}

	res, err := q.q.ExecContext(ctx, `
        INSERT INTO diary_entries (date, meal_type, food_id, amount_grams, notes, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, entry.Date, string(entry.MealType), entry.FoodID, entry.AmountGrams, entry.Notes,
		formatTime(ts), formatTime(ts))
	if err != nil {
		return classify(err, "insert diary entry")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read diary entry id: %w", err)
	}

	entry.ID = id
	entry.CreatedAt = ts
	entry.UpdatedAt = ts
	return nil
}

func (q *Queries) GetDiaryEntry(ctx context.Context, id int64) (*models.DiaryEntry, error) {
	row := q.q.QueryRowContext(ctx, `
        SELECT id, date, meal_type, food_id, amount_grams, notes, created_at, updated_at
        FROM diary_entries WHERE id = ?
    `, id)
	entry, err := scanDiaryEntry(row)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("get diary entry %d", id))
	}
	return entry, nil
}

func (q *Queries) UpdateDiaryEntry(ctx context.Context, entry *models.DiaryEntry) error {
	ts := now()
	res, err := q.q.ExecContext(ctx, `
        UPDATE diary_entries
        SET date = ?, meal_type = ?, food_id = ?, amount_grams = ?, notes = ?, updated_at = ?
        WHERE id = ?
    `, entry.Date, string(entry.MealType), entry.FoodID, entry.AmountGrams, entry.Notes,
		formatTime(ts), entry.ID)
	if err != nil {
		return classify(err, fmt.Sprintf("update diary entry %d", entry.ID))
	}
	if err := requireAffected(res, fmt.Sprintf("update diary entry %d", entry.ID)); err != nil {
		return err
	}
	entry.UpdatedAt = ts
	return nil
}

func (q *Queries) DeleteDiaryEntry(ctx context.Context, id int64) error {
	res, err := q.q.ExecContext(ctx, `DELETE FROM diary_entries WHERE id = ?`, id)
	if err != nil {
		return classify(err, fmt.Sprintf("delete diary entry %d", id))
	}
	return requireAffected(res, fmt.Sprintf("delete diary entry %d", id))
}

// ListDiaryEntries returns the entries of one day joined with their food,
// optionally restricted to a meal type. Nutrition is scaled to each entry's
// amount.
func (q *Queries) ListDiaryEntries(ctx context.Context, date string, mealType models.MealType) ([]*models.DiaryEntryView, error) {
	query := `
        SELECT d.id, d.date, d.meal_type, d.food_id, d.amount_grams, d.notes, d.created_at, d.updated_at,
            f.name, ` + qualify(nutrientColumns, "f") + `
        FROM diary_entries d
        JOIN foods f ON f.id = d.food_id
        WHERE d.date = ?
    `
	args := []interface{}{date}
	if mealType != "" {
		query += " AND d.meal_type = ?"
		args = append(args, string(mealType))
	}
	query += " ORDER BY d.id"

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "query diary entries")
	}
	defer rows.Close()

	var views []*models.DiaryEntryView
	for rows.Next() {
		view := &models.DiaryEntryView{}
		var per100g models.Nutrients
		entry, err := scanDiaryEntryWith(rows, append([]interface{}{&view.FoodName}, per100g.Fields()...)...)
		if err != nil {
			return nil, fmt.Errorf("failed to scan diary entry: %w", err)
		}
		view.DiaryEntry = *entry
		view.Nutrients = per100g.ForGrams(entry.AmountGrams)
		views = append(views, view)
	}
	return views, rows.Err()
}

// MealFoodIDs returns the food id of every entry logged for one meal, in
// entry order. A food logged twice appears twice.
func (q *Queries) MealFoodIDs(ctx context.Context, date string, mealType models.MealType) ([]int64, error) {
	rows, err := q.q.QueryContext(ctx, `
        SELECT food_id FROM diary_entries
        WHERE date = ? AND meal_type = ?
        ORDER BY id
    `, date, string(mealType))
	if err != nil {
		return nil, classify(err, "query meal foods")
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan food id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountFoodMeals counts, across all history, the meals of mealType in which
// the food was logged at least once.
func (q *Queries) CountFoodMeals(ctx context.Context, foodID int64, mealType models.MealType) (int, error) {
	var n int
	err := q.q.QueryRowContext(ctx, `
        SELECT COUNT(DISTINCT date) FROM diary_entries
        WHERE food_id = ? AND meal_type = ?
    `, foodID, string(mealType)).Scan(&n)
	if err != nil {
		return 0, classify(err, "count food meals")
	}
	return n, nil
}

// DistinctMealDates counts the dates with at least one entry of mealType.
func (q *Queries) DistinctMealDates(ctx context.Context, mealType models.MealType) (int, error) {
	var n int
	err := q.q.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT date) FROM diary_entries WHERE meal_type = ?`,
		string(mealType)).Scan(&n)
	if err != nil {
		return 0, classify(err, "count meal dates")
	}
	return n, nil
}

// MealDates lists, oldest first, the dates with at least one entry of mealType.
func (q *Queries) MealDates(ctx context.Context, mealType models.MealType) ([]string, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT DISTINCT date FROM diary_entries WHERE meal_type = ? ORDER BY date`,
		string(mealType))
	if err != nil {
		return nil, classify(err, "query meal dates")
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func scanDiaryEntry(row scanner) (*models.DiaryEntry, error) {
	return scanDiaryEntryWith(row)
}

func scanDiaryEntryWith(row scanner, extra ...interface{}) (*models.DiaryEntry, error) {
	entry := &models.DiaryEntry{}
	var mealType, createdAtStr, updatedAtStr string

	dest := []interface{}{&entry.ID, &entry.Date, &mealType, &entry.FoodID,
		&entry.AmountGrams, &entry.Notes, &createdAtStr, &updatedAtStr}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	var err error
	if entry.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return nil, err
	}
	if entry.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return nil, err
	}
	entry.MealType = models.MealType(mealType)
	return entry, nil
}
