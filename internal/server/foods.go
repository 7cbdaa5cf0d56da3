// internal/server/foods.go
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"nutrition-log/internal/models"
	"nutrition-log/internal/storage"
)

type foodInput struct {
	Name     string `json:"name" validate:"required,max=200"`
	Category string `json:"category" validate:"max=100"`
	Brand    string `json:"brand" validate:"max=100"`
	models.Nutrients
}

func (in *foodInput) apply(food *models.Food) {
	food.Name = strings.TrimSpace(in.Name)
	food.Category = strings.TrimSpace(in.Category)
	food.Brand = strings.TrimSpace(in.Brand)
	food.Nutrients = in.Nutrients
}

func (s *NutritionServer) listFoods(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}

	foods, err := s.storage.ListFoods(c.Request.Context(), storage.FoodFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(foods))
}

func (s *NutritionServer) recentFoods(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return
	}
	foods, err := s.storage.RecentFoods(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(foods))
}

func (s *NutritionServer) mostUsedFoods(c *gin.Context) {
	days, ok := queryInt(c, "days", 30)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 10)
	if !ok {
		return
	}
	since := models.FormatDate(time.Now().AddDate(0, 0, -days))

	usage, err := s.storage.MostUsedFoods(c.Request.Context(), since, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(usage))
}

func (s *NutritionServer) getFood(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	food, err := s.storage.GetFood(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, food)
}

func (s *NutritionServer) createFood(c *gin.Context) {
	var in foodInput
	if !s.bindJSON(c, &in) {
		return
	}
	food := &models.Food{}
	in.apply(food)

	if err := s.storage.CreateFood(c.Request.Context(), food); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, food)
}

// updateFood overlays the fields present in the body onto the stored food.
func (s *NutritionServer) updateFood(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	food, err := s.storage.GetFood(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	in := foodInput{Name: food.Name, Category: food.Category, Brand: food.Brand, Nutrients: food.Nutrients}
	if !s.bindJSON(c, &in) {
		return
	}
	in.apply(food)

	if err := s.storage.UpdateFood(ctx, food); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, food)
}

func (s *NutritionServer) deleteFood(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.storage.DeleteFood(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "food deleted"})
}

// nonNil keeps empty results encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
