// internal/models/food.go
package models

import (
	"time"
)

// Nutrients holds nutritional values. On a Food they are per 100 g; on a
// diary entry or summary they are absolute amounts.
type Nutrients struct {
	Calories       float64 `json:"calories"`
	Protein        float64 `json:"protein"`
	Carbohydrates  float64 `json:"carbohydrates"`
	Fat            float64 `json:"fat"`
	Fiber          float64 `json:"fiber"`
	Sugar          float64 `json:"sugar"`
	SaturatedFat   float64 `json:"saturated_fat"`
	UnsaturatedFat float64 `json:"unsaturated_fat"`
	Cholesterol    float64 `json:"cholesterol"`
	Sodium         float64 `json:"sodium"`
	Potassium      float64 `json:"potassium"`
	Calcium        float64 `json:"calcium"`
	Iron           float64 `json:"iron"`
	VitaminA       float64 `json:"vitamin_a"`
	VitaminC       float64 `json:"vitamin_c"`
	VitaminD       float64 `json:"vitamin_d"`
	VitaminB12     float64 `json:"vitamin_b12"`
	Magnesium      float64 `json:"magnesium"`
}

// Fields returns pointers to every value in column order, for scanning.
func (n *Nutrients) Fields() []interface{} {
	return []interface{}{
		&n.Calories, &n.Protein, &n.Carbohydrates, &n.Fat, &n.Fiber, &n.Sugar,
		&n.SaturatedFat, &n.UnsaturatedFat, &n.Cholesterol, &n.Sodium, &n.Potassium,
		&n.Calcium, &n.Iron, &n.VitaminA, &n.VitaminC, &n.VitaminD, &n.VitaminB12,
		&n.Magnesium,
	}
}

// Values returns every value in column order, for inserts and updates.
func (n Nutrients) Values() []interface{} {
	ptrs := n.Fields()
	out := make([]interface{}, len(ptrs))
	for i, p := range ptrs {
		out[i] = *(p.(*float64))
	}
	return out
}

// ForGrams scales per-100g values to the given amount.
func (n Nutrients) ForGrams(grams float64) Nutrients {
	return n.mapValues(func(v float64) float64 { return v * grams / 100.0 })
}

func (n Nutrients) Add(o Nutrients) Nutrients {
	src := o.Fields()
	i := 0
	return n.mapValues(func(v float64) float64 {
		v += *(src[i].(*float64))
		i++
		return v
	})
}

func (n Nutrients) mapValues(fn func(float64) float64) Nutrients {
	out := n
	for _, p := range out.Fields() {
		f := p.(*float64)
		*f = fn(*f)
	}
	return out
}

type Food struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Brand    string `json:"brand,omitempty"`
	Nutrients
	Used        int        `json:"used"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
	LastPortion float64    `json:"last_portion"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

const DefaultFoodCategory = "unknown"

// FoodUsage is a food with its diary usage over a window.
type FoodUsage struct {
	Food          Food    `json:"food"`
	UsageCount    int     `json:"usage_count"`
	TotalCalories float64 `json:"total_calories"`
}
