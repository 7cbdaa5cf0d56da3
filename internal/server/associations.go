// internal/server/associations.go
package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nutrition-log/internal/associations"
	"nutrition-log/internal/models"
)

type updateMealRequest struct {
	Date     string `json:"date" validate:"required,date"`
	MealType string `json:"meal_type" validate:"required,mealtype"`
}

type rebuildRequest struct {
	MealType string `json:"meal_type" validate:"omitempty,mealtype"`
}

// Association queries default to breakfast when no meal type is given.
const defaultQueryMealType = models.Breakfast

func (s *NutritionServer) getRecommendations(c *gin.Context) {
	raw := c.Query("food_id")
	foodID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || foodID <= 0 {
		respondError(c, fmt.Errorf("%w: food_id is required", errBadRequest))
		return
	}
	mealType, ok := queryMealType(c, defaultQueryMealType)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", associations.DefaultRecommendationLimit)
	if !ok {
		return
	}

	recs, err := s.engine.GetRecommendations(c.Request.Context(), foodID, mealType, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"food_id":         foodID,
		"meal_type":       mealType,
		"recommendations": nonNil(recs),
	})
}

func (s *NutritionServer) getPopularCombinations(c *gin.Context) {
	mealType, ok := queryMealType(c, defaultQueryMealType)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", associations.DefaultCombinationLimit)
	if !ok {
		return
	}

	combos, err := s.engine.GetPopularCombinations(c.Request.Context(), mealType, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"meal_type":    mealType,
		"combinations": nonNil(combos),
	})
}

func (s *NutritionServer) getMealInsights(c *gin.Context) {
	mealType, ok := queryMealType(c, defaultQueryMealType)
	if !ok {
		return
	}
	insights, err := s.engine.GetMealInsights(c.Request.Context(), mealType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": insights})
}

func (s *NutritionServer) updateMealAssociations(c *gin.Context) {
	var req updateMealRequest
	if !s.bindJSON(c, &req) {
		return
	}
	mealType, err := models.ParseMealType(req.MealType)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := s.engine.UpdateForMeal(c.Request.Context(), req.Date, mealType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// rebuildAssociations resets and replays one meal type, or all of them when
// the body names none.
func (s *NutritionServer) rebuildAssociations(c *gin.Context) {
	var req rebuildRequest
	if c.Request.ContentLength != 0 && !s.bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	if req.MealType == "" {
		results, err := s.engine.RebuildAll(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
		return
	}

	mealType, err := models.ParseMealType(req.MealType)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := s.engine.Rebuild(ctx, mealType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": []*associations.RebuildResult{res}})
}
