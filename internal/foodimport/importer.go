// internal/foodimport/importer.go
package foodimport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"nutrition-log/internal/logger"
	"nutrition-log/internal/models"
	"nutrition-log/internal/storage"
)

// Number accepts a JSON number or a numeric string. Empty and unparsable
// values decode as 0.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			f = 0
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Record is one value of the foods.json object, keyed by food name.
type Record struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Brand        string `json:"brand"`
	Kcal         Number `json:"kcal_100g"`
	Protein      Number `json:"protein_100g"`
	Carbs        Number `json:"carbs_100g"`
	Fat          Number `json:"fat_100g"`
	Fiber        Number `json:"fiber_100g"`
	Sugar        Number `json:"sugar_100g"`
	SaturatedFat Number `json:"saturated_fat_100g"`
	Cholesterol  Number `json:"cholesterol_mg_100g"`
	Salt         Number `json:"salt_mg_100g"`
	Potassium    Number `json:"potassium_mg_100g"`
	Calcium      Number `json:"calcium_procent"`
	Iron         Number `json:"iron_procent"`
	VitaminA     Number `json:"vitamin_a_procent"`
	VitaminC     Number `json:"vitamin_c_procent"`
}

// Food converts the record. Unsaturated fat is derived as total minus
// saturated fat.
func (r Record) Food(key string) *models.Food {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = strings.TrimSpace(key)
	}
	category := strings.TrimSpace(r.Category)
	if category == "" {
		category = models.DefaultFoodCategory
	}

	fat := float64(r.Fat)
	saturated := float64(r.SaturatedFat)
	unsaturated := 0.0
	if fat > saturated {
		unsaturated = fat - saturated
	}

	return &models.Food{
		Name:     name,
		Category: category,
		Brand:    strings.TrimSpace(r.Brand),
		Nutrients: models.Nutrients{
			Calories:       float64(r.Kcal),
			Protein:        float64(r.Protein),
			Carbohydrates:  float64(r.Carbs),
			Fat:            fat,
			Fiber:          float64(r.Fiber),
			Sugar:          float64(r.Sugar),
			SaturatedFat:   saturated,
			UnsaturatedFat: unsaturated,
			Cholesterol:    float64(r.Cholesterol),
			Sodium:         float64(r.Salt),
			Potassium:      float64(r.Potassium),
			Calcium:        float64(r.Calcium),
			Iron:           float64(r.Iron),
			VitaminA:       float64(r.VitaminA),
			VitaminC:       float64(r.VitaminC),
		},
	}
}

type Result struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Failed   []string `json:"failed,omitempty"`
}

// Import reads a foods.json document and inserts every food whose name is
// not stored yet. All inserts commit together.
func Import(ctx context.Context, store *storage.SQLiteStorage, r io.Reader, log *logger.Logger) (*Result, error) {
	var records map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode foods file: %w", err)
	}

	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := &Result{}
	err := store.WithTx(ctx, func(tx *storage.Tx) error {
		for _, key := range keys {
			var rec Record
			if err := json.Unmarshal(records[key], &rec); err != nil {
				log.Warn("skipping malformed food", "food", key, "error", err)
				res.Failed = append(res.Failed, key)
				continue
			}
			food := rec.Food(key)

			err := tx.CreateFood(ctx, food)
			switch {
			case err == nil:
				res.Imported++
			case errors.Is(err, storage.ErrDuplicate):
				res.Skipped++
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import foods: %w", err)
	}

	log.Info("foods imported", "imported", res.Imported, "skipped", res.Skipped, "failed", len(res.Failed))
	return res, nil
}
