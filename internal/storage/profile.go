// internal/storage/profile.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"nutrition-log/internal/models"
)

// GetGoals returns the stored goals, or ErrNotFound if none were set.
func (q *Queries) GetGoals(ctx context.Context) (*models.Goals, error) {
	g := &models.Goals{}
	err := q.q.QueryRowContext(ctx, `
        SELECT daily_calories, protein_target, carbs_target, fat_target FROM user_goals WHERE id = 1
    `).Scan(&g.DailyCalories, &g.ProteinTarget, &g.CarbsTarget, &g.FatTarget)
	if err != nil {
		return nil, classify(err, "get goals")
	}
	return g, nil
}

// PutGoals replaces the single goals record.
func (q *Queries) PutGoals(ctx context.Context, g models.Goals) error {
	_, err := q.q.ExecContext(ctx, `
        INSERT INTO user_goals (id, daily_calories, protein_target, carbs_target, fat_target)
        VALUES (1, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            daily_calories = excluded.daily_calories,
            protein_target = excluded.protein_target,
            carbs_target = excluded.carbs_target,
            fat_target = excluded.fat_target
    `, g.DailyCalories, g.ProteinTarget, g.CarbsTarget, g.FatTarget)
	if err != nil {
		return classify(err, "put goals")
	}
	return nil
}

// GetOrCreateSettings returns the settings record, creating it with
// defaults on first access.
func (q *Queries) GetOrCreateSettings(ctx context.Context) (*models.UserSettings, error) {
	settings, err := q.getSettings(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	defaults := models.DefaultUserSettings(now())
	if err := q.PutSettings(ctx, &defaults); err != nil {
		return nil, err
	}
	return &defaults, nil
}

// PutSettings stores settings as the single settings record.
func (q *Queries) PutSettings(ctx context.Context, settings *models.UserSettings) error {
	ts := now()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = ts
	}
	settings.UpdatedAt = ts

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	_, err = q.q.ExecContext(ctx, `
        INSERT INTO user_settings (id, data, created_at, updated_at)
        VALUES (1, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
    `, string(data), formatTime(settings.CreatedAt), formatTime(ts))
	if err != nil {
		return classify(err, "put settings")
	}
	return nil
}

func (q *Queries) DeleteSettings(ctx context.Context) error {
	if _, err := q.q.ExecContext(ctx, `DELETE FROM user_settings`); err != nil {
		return classify(err, "delete settings")
	}
	return nil
}

func (q *Queries) getSettings(ctx context.Context) (*models.UserSettings, error) {
	var data string
	if err := q.q.QueryRowContext(ctx, `SELECT data FROM user_settings WHERE id = 1`).Scan(&data); err != nil {
		return nil, classify(err, "get settings")
	}
	settings := &models.UserSettings{}
	if err := json.Unmarshal([]byte(data), settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return settings, nil
}
