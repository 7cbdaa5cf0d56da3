// internal/storage/nutrients.go
package storage

import (
	"context"
	"fmt"

	"nutrition-log/internal/models"
)

const nutrientSelect = `SELECT id, name, calories_per_gram, description FROM nutrients`

func (q *Queries) CreateNutrient(ctx context.Context, n *models.Nutrient) error {
	res, err := q.q.ExecContext(ctx,
		`INSERT INTO nutrients (name, calories_per_gram, description) VALUES (?, ?, ?)`,
		n.Name, n.CaloriesPerGram, n.Description)
	if err != nil {
		return classify(err, "insert nutrient")
	}
	if n.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read nutrient id: %w", err)
	}
	return nil
}

func (q *Queries) GetNutrient(ctx context.Context, id int64) (*models.Nutrient, error) {
	n, err := scanNutrient(q.q.QueryRowContext(ctx, nutrientSelect+` WHERE id = ?`, id))
	if err != nil {
		return nil, classify(err, fmt.Sprintf("get nutrient %d", id))
	}
	return n, nil
}

func (q *Queries) GetNutrientByName(ctx context.Context, name string) (*models.Nutrient, error) {
	n, err := scanNutrient(q.q.QueryRowContext(ctx, nutrientSelect+` WHERE name = ?`, name))
	if err != nil {
		return nil, classify(err, fmt.Sprintf("get nutrient %q", name))
	}
	return n, nil
}

func (q *Queries) ListNutrients(ctx context.Context) ([]*models.Nutrient, error) {
	rows, err := q.q.QueryContext(ctx, nutrientSelect+` ORDER BY name`)
	if err != nil {
		return nil, classify(err, "query nutrients")
	}
	defer rows.Close()

	var out []*models.Nutrient
	for rows.Next() {
		n, err := scanNutrient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nutrient: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateNutrient(ctx context.Context, n *models.Nutrient) error {
	res, err := q.q.ExecContext(ctx,
		`UPDATE nutrients SET name = ?, calories_per_gram = ?, description = ? WHERE id = ?`,
		n.Name, n.CaloriesPerGram, n.Description, n.ID)
	if err != nil {
		return classify(err, fmt.Sprintf("update nutrient %d", n.ID))
	}
	return requireAffected(res, fmt.Sprintf("update nutrient %d", n.ID))
}

func (q *Queries) DeleteNutrient(ctx context.Context, id int64) error {
	res, err := q.q.ExecContext(ctx, `DELETE FROM nutrients WHERE id = ?`, id)
	if err != nil {
		return classify(err, fmt.Sprintf("delete nutrient %d", id))
	}
	return requireAffected(res, fmt.Sprintf("delete nutrient %d", id))
}

// SeedNutrients inserts each default nutrient that is not stored yet and
// reports how many were added.
func (q *Queries) SeedNutrients(ctx context.Context, defaults []models.Nutrient) (int, error) {
	added := 0
	for _, n := range defaults {
		res, err := q.q.ExecContext(ctx, `
            INSERT INTO nutrients (name, calories_per_gram, description) VALUES (?, ?, ?)
            ON CONFLICT(name) DO NOTHING
        `, n.Name, n.CaloriesPerGram, n.Description)
		if err != nil {
			return added, classify(err, "seed nutrient "+n.Name)
		}
		if rows, _ := res.RowsAffected(); rows > 0 {
			added++
		}
	}
	return added, nil
}

func scanNutrient(row scanner) (*models.Nutrient, error) {
	n := &models.Nutrient{}
	if err := row.Scan(&n.ID, &n.Name, &n.CaloriesPerGram, &n.Description); err != nil {
		return nil, err
	}
	return n, nil
}
