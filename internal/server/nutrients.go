// internal/server/nutrients.go
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nutrition-log/internal/models"
)

type nutrientInput struct {
	Name            string  `json:"name" validate:"required,max=100"`
	CaloriesPerGram float64 `json:"calories_per_gram" validate:"gte=0"`
	Description     string  `json:"description"`
}

type calorieRequest struct {
	NutrientName string  `json:"nutrient_name" validate:"required"`
	Grams        float64 `json:"grams" validate:"gte=0"`
}

type calorieResult struct {
	NutrientName    string  `json:"nutrient_name"`
	Grams           float64 `json:"grams"`
	CaloriesPerGram float64 `json:"calories_per_gram"`
	Calories        float64 `json:"calories"`
}

func (s *NutritionServer) listNutrients(c *gin.Context) {
	nutrients, err := s.storage.ListNutrients(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(nutrients))
}

func (s *NutritionServer) getNutrient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	n, err := s.storage.GetNutrient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *NutritionServer) getNutrientByName(c *gin.Context) {
	n, err := s.storage.GetNutrientByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *NutritionServer) createNutrient(c *gin.Context) {
	var in nutrientInput
	if !s.bindJSON(c, &in) {
		return
	}
	n := &models.Nutrient{Name: in.Name, CaloriesPerGram: in.CaloriesPerGram, Description: in.Description}
	if err := s.storage.CreateNutrient(c.Request.Context(), n); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (s *NutritionServer) updateNutrient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	n, err := s.storage.GetNutrient(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	in := nutrientInput{Name: n.Name, CaloriesPerGram: n.CaloriesPerGram, Description: n.Description}
	if !s.bindJSON(c, &in) {
		return
	}
	n.Name, n.CaloriesPerGram, n.Description = in.Name, in.CaloriesPerGram, in.Description

	if err := s.storage.UpdateNutrient(ctx, n); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *NutritionServer) deleteNutrient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.storage.DeleteNutrient(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "nutrient deleted"})
}

// initializeNutrients seeds the default macronutrients, leaving existing
// names untouched.
func (s *NutritionServer) initializeNutrients(c *gin.Context) {
	added, err := s.storage.SeedNutrients(c.Request.Context(), models.DefaultNutrients)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}

func (s *NutritionServer) calculateCalories(c *gin.Context) {
	var req calorieRequest
	if !s.bindJSON(c, &req) {
		return
	}
	n, err := s.storage.GetNutrientByName(c.Request.Context(), req.NutrientName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, calorieResult{
		NutrientName:    n.Name,
		Grams:           req.Grams,
		CaloriesPerGram: n.CaloriesPerGram,
		Calories:        req.Grams * n.CaloriesPerGram,
	})
}
