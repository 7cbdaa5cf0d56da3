// internal/storage/activity.go
package storage

import (
	"context"
	"fmt"

	"nutrition-log/internal/models"
)

func (q *Queries) CreateExercise(ctx context.Context, ex *models.Exercise) error {
	res, err := q.q.ExecContext(ctx, `
        INSERT INTO exercises (date, name, duration_minutes, calories_burned)
        VALUES (?, ?, ?, ?)
    `, ex.Date, ex.Name, ex.DurationMinutes, ex.CaloriesBurned)
	if err != nil {
		return classify(err, "insert exercise")
	}
	if ex.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read exercise id: %w", err)
	}
	return nil
}

func (q *Queries) GetExercise(ctx context.Context, id int64) (*models.Exercise, error) {
	ex := &models.Exercise{}
	err := q.q.QueryRowContext(ctx, `
        SELECT id, date, name, duration_minutes, calories_burned FROM exercises WHERE id = ?
    `, id).Scan(&ex.ID, &ex.Date, &ex.Name, &ex.DurationMinutes, &ex.CaloriesBurned)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("get exercise %d", id))
	}
	return ex, nil
}

// ListExercises returns the exercises of one day, or of every day when date
// is empty.
func (q *Queries) ListExercises(ctx context.Context, date string) ([]*models.Exercise, error) {
	query := `SELECT id, date, name, duration_minutes, calories_burned FROM exercises`
	args := []interface{}{}
	if date != "" {
		query += " WHERE date = ?"
		args = append(args, date)
	}
	query += " ORDER BY date, id"

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "query exercises")
	}
	defer rows.Close()

	var out []*models.Exercise
	for rows.Next() {
		ex := &models.Exercise{}
		if err := rows.Scan(&ex.ID, &ex.Date, &ex.Name, &ex.DurationMinutes, &ex.CaloriesBurned); err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateExercise(ctx context.Context, ex *models.Exercise) error {
	res, err := q.q.ExecContext(ctx, `
        UPDATE exercises SET date = ?, name = ?, duration_minutes = ?, calories_burned = ?
        WHERE id = ?
    `, ex.Date, ex.Name, ex.DurationMinutes, ex.CaloriesBurned, ex.ID)
	if err != nil {
		return classify(err, fmt.Sprintf("update exercise %d", ex.ID))
	}
	return requireAffected(res, fmt.Sprintf("update exercise %d", ex.ID))
}

func (q *Queries) DeleteExercise(ctx context.Context, id int64) error {
	res, err := q.q.ExecContext(ctx, `DELETE FROM exercises WHERE id = ?`, id)
	if err != nil {
		return classify(err, fmt.Sprintf("delete exercise %d", id))
	}
	return requireAffected(res, fmt.Sprintf("delete exercise %d", id))
}

func (q *Queries) CreateWeight(ctx context.Context, w *models.WeightEntry) error {
	res, err := q.q.ExecContext(ctx, `INSERT INTO weights (date, weight_kg) VALUES (?, ?)`, w.Date, w.WeightKg)
	if err != nil {
		return classify(err, "insert weight")
	}
	if w.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read weight id: %w", err)
	}
	return nil
}

func (q *Queries) GetWeight(ctx context.Context, id int64) (*models.WeightEntry, error) {
	w := &models.WeightEntry{}
	err := q.q.QueryRowContext(ctx, `SELECT id, date, weight_kg FROM weights WHERE id = ?`, id).
		Scan(&w.ID, &w.Date, &w.WeightKg)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("get weight %d", id))
	}
	return w, nil
}

// ListWeights returns the weight history, newest first.
func (q *Queries) ListWeights(ctx context.Context) ([]*models.WeightEntry, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT id, date, weight_kg FROM weights ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, classify(err, "query weights")
	}
	defer rows.Close()

	var out []*models.WeightEntry
	for rows.Next() {
		w := &models.WeightEntry{}
		if err := rows.Scan(&w.ID, &w.Date, &w.WeightKg); err != nil {
			return nil, fmt.Errorf("failed to scan weight: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateWeight(ctx context.Context, w *models.WeightEntry) error {
	res, err := q.q.ExecContext(ctx, `UPDATE weights SET date = ?, weight_kg = ? WHERE id = ?`, w.Date, w.WeightKg, w.ID)
	if err != nil {
		return classify(err, fmt.Sprintf("update weight %d", w.ID))
	}
	return requireAffected(res, fmt.Sprintf("update weight %d", w.ID))
}

func (q *Queries) DeleteWeight(ctx context.Context, id int64) error {
	res, err := q.q.ExecContext(ctx, `DELETE FROM weights WHERE id = ?`, id)
	if err != nil {
		return classify(err, fmt.Sprintf("delete weight %d", id))
	}
	return requireAffected(res, fmt.Sprintf("delete weight %d", id))
}
