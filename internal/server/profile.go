// internal/server/profile.go
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nutrition-log/internal/models"
	"nutrition-log/internal/storage"
)

type goalsInput struct {
	DailyCalories float64 `json:"daily_calories" validate:"gt=0"`
	ProteinTarget float64 `json:"protein_target" validate:"gte=0"`
	CarbsTarget   float64 `json:"carbs_target" validate:"gte=0"`
	FatTarget     float64 `json:"fat_target" validate:"gte=0"`
}

func (in goalsInput) goals() models.Goals {
	return models.Goals{
		DailyCalories: in.DailyCalories,
		ProteinTarget: in.ProteinTarget,
		CarbsTarget:   in.CarbsTarget,
		FatTarget:     in.FatTarget,
	}
}

// currentGoals falls back to the defaults until goals are first set.
func (s *NutritionServer) currentGoals(c *gin.Context) (models.Goals, error) {
	g, err := s.storage.GetGoals(c.Request.Context())
	if errors.Is(err, storage.ErrNotFound) {
		return models.DefaultGoals(), nil
	}
	if err != nil {
		return models.Goals{}, err
	}
	return *g, nil
}

func (s *NutritionServer) getGoals(c *gin.Context) {
	g, err := s.currentGoals(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// setGoals replaces every target; omitted fields fall back to the defaults.
func (s *NutritionServer) setGoals(c *gin.Context) {
	d := models.DefaultGoals()
	in := goalsInput{DailyCalories: d.DailyCalories, ProteinTarget: d.ProteinTarget, CarbsTarget: d.CarbsTarget, FatTarget: d.FatTarget}
	if !s.bindJSON(c, &in) {
		return
	}
	if err := s.storage.PutGoals(c.Request.Context(), in.goals()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, in.goals())
}

func (s *NutritionServer) updateGoals(c *gin.Context) {
	g, err := s.currentGoals(c)
	if err != nil {
		respondError(c, err)
		return
	}
	in := goalsInput{DailyCalories: g.DailyCalories, ProteinTarget: g.ProteinTarget, CarbsTarget: g.CarbsTarget, FatTarget: g.FatTarget}
	if !s.bindJSON(c, &in) {
		return
	}
	if err := s.storage.PutGoals(c.Request.Context(), in.goals()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, in.goals())
}

func (s *NutritionServer) getSettings(c *gin.Context) {
	settings, err := s.storage.GetOrCreateSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// updateSettings overlays the body onto the stored settings.
func (s *NutritionServer) updateSettings(c *gin.Context) {
	ctx := c.Request.Context()
	settings, err := s.storage.GetOrCreateSettings(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	createdAt := settings.CreatedAt
	if !s.bindJSON(c, settings) {
		return
	}
	settings.CreatedAt = createdAt

	if err := s.storage.PutSettings(ctx, settings); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *NutritionServer) resetSettings(c *gin.Context) {
	if err := s.storage.DeleteSettings(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "settings reset to defaults"})
}
