// internal/models/nutrient.go
package models

type Nutrient struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	CaloriesPerGram float64 `json:"calories_per_gram"`
	Description     string  `json:"description,omitempty"`
}

// DefaultNutrients are seeded by seed-nutrients and on first start.
var DefaultNutrients = []Nutrient{
	{Name: "protein", CaloriesPerGram: 4.0, Description: "Protein provides 4 calories per gram"},
	{Name: "carbohydrates", CaloriesPerGram: 4.0, Description: "Carbohydrates provide 4 calories per gram"},
	{Name: "fat", CaloriesPerGram: 9.0, Description: "Fat provides 9 calories per gram"},
	{Name: "fiber", CaloriesPerGram: 0.0, Description: "Fiber provides no calories"},
	{Name: "sugar", CaloriesPerGram: 4.0, Description: "Sugar provides 4 calories per gram"},
	{Name: "alcohol", CaloriesPerGram: 7.0, Description: "Alcohol provides 7 calories per gram"},
}
