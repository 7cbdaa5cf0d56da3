// internal/storage/associations.go
package storage

import (
	"context"
	"fmt"

	"nutrition-log/internal/models"
)

const associationColumns = `id, meal_type, food_low_id, food_high_id, co_occurrence_count,
        total_occurrences_food_low, total_occurrences_food_high,
        confidence, reverse_confidence, support, created_at, updated_at`

// CanonicalPair orders two food ids so the lower id comes first.
func CanonicalPair(a, b int64) (low, high int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// GetOrCreateAssociation returns the record for the unordered pair {a, b}
// within mealType, inserting a zeroed record if none exists. (a, b) and
// (b, a) resolve to the same record.
func (q *Queries) GetOrCreateAssociation(ctx context.Context, mealType models.MealType, a, b int64) (*models.FoodPairAssociation, error) {
	if a == b {
		return nil, fmt.Errorf("food %d: %w", a, ErrSelfPair)
	}
	low, high := CanonicalPair(a, b)
	ts := formatTime(now())

	_, err := q.q.ExecContext(ctx, `
        INSERT INTO food_associations (meal_type, food_low_id, food_high_id, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(meal_type, food_low_id, food_high_id) DO NOTHING
    `, string(mealType), low, high, ts, ts)
	if err != nil {
		return nil, classify(err, "insert food association")
	}

	row := q.q.QueryRowContext(ctx, `SELECT `+associationColumns+` FROM food_associations
        WHERE meal_type = ? AND food_low_id = ? AND food_high_id = ?`,
		string(mealType), low, high)
	assoc, err := scanAssociation(row)
	if err != nil {
		return nil, classify(err, "get food association")
	}
	return assoc, nil
}

// FindAssociations returns every record of mealType in which foodID holds
// either slot.
func (q *Queries) FindAssociations(ctx context.Context, mealType models.MealType, foodID int64) ([]*models.FoodPairAssociation, error) {
	return q.queryAssociations(ctx, `SELECT `+associationColumns+` FROM food_associations
        WHERE meal_type = ? AND (food_low_id = ? OR food_high_id = ?)
        ORDER BY food_low_id, food_high_id`,
		string(mealType), foodID, foodID)
}

func (q *Queries) FindAssociationsByMealType(ctx context.Context, mealType models.MealType) ([]*models.FoodPairAssociation, error) {
	return q.queryAssociations(ctx, `SELECT `+associationColumns+` FROM food_associations
        WHERE meal_type = ?
        ORDER BY food_low_id, food_high_id`,
		string(mealType))
}

// SaveAssociation writes the counters and scores of an existing record.
func (q *Queries) SaveAssociation(ctx context.Context, a *models.FoodPairAssociation) error {
	ts := now()
	res, err := q.q.ExecContext(ctx, `
        UPDATE food_associations
        SET co_occurrence_count = ?, total_occurrences_food_low = ?, total_occurrences_food_high = ?,
            confidence = ?, reverse_confidence = ?, support = ?, updated_at = ?
        WHERE id = ?
    `, a.CoOccurrenceCount, a.TotalOccurrencesFoodLow, a.TotalOccurrencesFoodHigh,
		a.Confidence, a.ReverseConfidence, a.Support, formatTime(ts), a.ID)
	if err != nil {
		return classify(err, fmt.Sprintf("save food association %d", a.ID))
	}
	if err := requireAffected(res, fmt.Sprintf("save food association %d", a.ID)); err != nil {
		return err
	}
	a.UpdatedAt = ts
	return nil
}

// DeleteAssociationsByMealType removes every record of mealType. Only used
// by a wholesale rebuild.
func (q *Queries) DeleteAssociationsByMealType(ctx context.Context, mealType models.MealType) (int64, error) {
	res, err := q.q.ExecContext(ctx, `DELETE FROM food_associations WHERE meal_type = ?`, string(mealType))
	if err != nil {
		return 0, classify(err, "delete food associations")
	}
	return res.RowsAffected()
}

func (q *Queries) queryAssociations(ctx context.Context, query string, args ...interface{}) ([]*models.FoodPairAssociation, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "query food associations")
	}
	defer rows.Close()

	var out []*models.FoodPairAssociation
	for rows.Next() {
		a, err := scanAssociation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food association: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAssociation(row scanner) (*models.FoodPairAssociation, error) {
	a := &models.FoodPairAssociation{}
	var mealType, createdAtStr, updatedAtStr string

	err := row.Scan(&a.ID, &mealType, &a.FoodLowID, &a.FoodHighID, &a.CoOccurrenceCount,
		&a.TotalOccurrencesFoodLow, &a.TotalOccurrencesFoodHigh,
		&a.Confidence, &a.ReverseConfidence, &a.Support, &createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, err
	}

	if a.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return nil, err
	}
	a.MealType = models.MealType(mealType)
	return a, nil
}
