// internal/storage/foods.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"nutrition-log/internal/models"
)

const nutrientColumns = `calories, protein, carbohydrates, fat, fiber, sugar,
        saturated_fat, unsaturated_fat, cholesterol, sodium, potassium,
        calcium, iron, vitamin_a, vitamin_c, vitamin_d, vitamin_b12, magnesium`

const foodColumns = `id, name, category, brand, ` + nutrientColumns + `,
        used, last_used, last_portion, created_at, updated_at`

// FoodFilter narrows ListFoods. Zero values mean no filter.
type FoodFilter struct {
	Search string
	Limit  int
	Offset int
}

func (q *Queries) CreateFood(ctx context.Context, food *models.Food) error {
	ts := now()
	if food.Category == "" {
		food.Category = models.DefaultFoodCategory
	}
	if food.LastPortion == 0 {
		food.LastPortion = 1.0
	}

	query := `
        INSERT INTO foods (name, category, brand, ` + nutrientColumns + `,
            used, last_used, last_portion, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	args := []interface{}{food.Name, food.Category, food.Brand}
	args = append(args, food.Nutrients.Values()...)
	args = append(args, food.Used, nullableTime(food.LastUsed), food.LastPortion, formatTime(ts), formatTime(ts))

	res, err := q.q.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(err, "insert food")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read food id: %w", err)
	}

	food.ID = id
	food.CreatedAt = ts
	food.UpdatedAt = ts
	return nil
}

func (q *Queries) GetFood(ctx context.Context, id int64) (*models.Food, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+foodColumns+` FROM foods WHERE id = ?`, id)
	food, err := scanFood(row)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("get food %d", id))
	}
	return food, nil
}

func (q *Queries) GetFoodByName(ctx context.Context, name string) (*models.Food, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+foodColumns+` FROM foods WHERE name = ?`, name)
	food, err := scanFood(row)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("get food %q", name))
	}
	return food, nil
}

func (q *Queries) ListFoods(ctx context.Context, filter FoodFilter) ([]*models.Food, error) {
	query := `SELECT ` + foodColumns + ` FROM foods WHERE 1=1`
	args := []interface{}{}

	if filter.Search != "" {
		query += " AND name LIKE ? ESCAPE '\\'"
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}

	query += " ORDER BY name COLLATE NOCASE"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	return q.queryFoods(ctx, query, args...)
}

// UpdateFood overwrites every mutable column of food.
func (q *Queries) UpdateFood(ctx context.Context, food *models.Food) error {
	ts := now()
	query := `
        UPDATE foods SET name = ?, category = ?, brand = ?,
            calories = ?, protein = ?, carbohydrates = ?, fat = ?, fiber = ?, sugar = ?,
            saturated_fat = ?, unsaturated_fat = ?, cholesterol = ?, sodium = ?, potassium = ?,
            calcium = ?, iron = ?, vitamin_a = ?, vitamin_c = ?, vitamin_d = ?, vitamin_b12 = ?,
            magnesium = ?, used = ?, last_used = ?, last_portion = ?, updated_at = ?
        WHERE id = ?
    `
	args := []interface{}{food.Name, food.Category, food.Brand}
	args = append(args, food.Nutrients.Values()...)
	args = append(args, food.Used, nullableTime(food.LastUsed), food.LastPortion, formatTime(ts), food.ID)

	res, err := q.q.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(err, fmt.Sprintf("update food %d", food.ID))
	}
	if err := requireAffected(res, fmt.Sprintf("update food %d", food.ID)); err != nil {
		return err
	}
	food.UpdatedAt = ts
	return nil
}

// MarkFoodUsed records that a portion of the food was just logged.
func (q *Queries) MarkFoodUsed(ctx context.Context, id int64, portion float64, at time.Time) error {
	res, err := q.q.ExecContext(ctx,
		`UPDATE foods SET used = used + 1, last_used = ?, last_portion = ? WHERE id = ?`,
		formatTime(at), portion, id)
	if err != nil {
		return classify(err, fmt.Sprintf("mark food %d used", id))
	}
	return requireAffected(res, fmt.Sprintf("mark food %d used", id))
}

func (q *Queries) DeleteFood(ctx context.Context, id int64) error {
	res, err := q.q.ExecContext(ctx, `DELETE FROM foods WHERE id = ?`, id)
	if err != nil {
		return classify(err, fmt.Sprintf("delete food %d", id))
	}
	return requireAffected(res, fmt.Sprintf("delete food %d", id))
}

// RecentFoods returns foods ordered by when they were last logged.
func (q *Queries) RecentFoods(ctx context.Context, limit int) ([]*models.Food, error) {
	query := `SELECT ` + foodColumns + ` FROM foods
        WHERE last_used IS NOT NULL AND used > 0
        ORDER BY last_used DESC LIMIT ?`
	return q.queryFoods(ctx, query, limit)
}

// MostUsedFoods ranks foods by diary entries dated on or after since.
func (q *Queries) MostUsedFoods(ctx context.Context, since string, limit int) ([]*models.FoodUsage, error) {
	query := `
        SELECT ` + qualify(foodColumns, "f") + `, COUNT(d.id) AS usage_count,
            COALESCE(SUM(f.calories * d.amount_grams / 100.0), 0) AS total_calories
        FROM foods f
        JOIN diary_entries d ON d.food_id = f.id
        WHERE d.date >= ?
        GROUP BY f.id
        ORDER BY usage_count DESC, f.name
        LIMIT ?
    `
	rows, err := q.q.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, classify(err, "query most used foods")
	}
	defer rows.Close()

	var out []*models.FoodUsage
	for rows.Next() {
		usage := &models.FoodUsage{}
		food, err := scanFoodWith(rows, &usage.UsageCount, &usage.TotalCalories)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food usage: %w", err)
		}
		usage.Food = *food
		out = append(out, usage)
	}
	return out, rows.Err()
}

func (q *Queries) queryFoods(ctx context.Context, query string, args ...interface{}) ([]*models.Food, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "query foods")
	}
	defer rows.Close()

	var foods []*models.Food
	for rows.Next() {
		food, err := scanFood(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food: %w", err)
		}
		foods = append(foods, food)
	}
	return foods, rows.Err()
}

func scanFood(row scanner) (*models.Food, error) {
	return scanFoodWith(row)
}

func scanFoodWith(row scanner, extra ...interface{}) (*models.Food, error) {
	food := &models.Food{}
	var lastUsed sql.NullString
	var createdAtStr, updatedAtStr string

	dest := []interface{}{&food.ID, &food.Name, &food.Category, &food.Brand}
	dest = append(dest, food.Nutrients.Fields()...)
	dest = append(dest, &food.Used, &lastUsed, &food.LastPortion, &createdAtStr, &updatedAtStr)
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if food.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return nil, err
	}
	if food.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return nil, err
	}
	if lastUsed.Valid && lastUsed.String != "" {
		t, err := parseTime(lastUsed.String)
		if err != nil {
			return nil, err
		}
		food.LastUsed = &t
	}
	return food, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func qualify(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
