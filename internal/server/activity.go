// internal/server/activity.go
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nutrition-log/internal/models"
)

type exerciseInput struct {
	Date            string  `json:"date" validate:"required,date"`
	Name            string  `json:"name" validate:"required,max=200"`
	DurationMinutes float64 `json:"duration_minutes" validate:"gte=0"`
	CaloriesBurned  float64 `json:"calories_burned" validate:"gte=0"`
}

type weightInput struct {
	Date     string  `json:"date" validate:"required,date"`
	WeightKg float64 `json:"weight_kg" validate:"gt=0,lt=1000"`
}

func (s *NutritionServer) listExercises(c *gin.Context) {
	date := c.Query("date")
	if date != "" {
		if _, err := models.ParseDate(date); err != nil {
			respondError(c, err)
			return
		}
	}
	exercises, err := s.storage.ListExercises(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(exercises))
}

func (s *NutritionServer) createExercise(c *gin.Context) {
	var in exerciseInput
	if !s.bindJSON(c, &in) {
		return
	}
	ex := &models.Exercise{
		Date:            in.Date,
		Name:            in.Name,
		DurationMinutes: in.DurationMinutes,
		CaloriesBurned:  in.CaloriesBurned,
	}
	if err := s.storage.CreateExercise(c.Request.Context(), ex); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ex)
}

func (s *NutritionServer) updateExercise(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	ex, err := s.storage.GetExercise(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	in := exerciseInput{Date: ex.Date, Name: ex.Name, DurationMinutes: ex.DurationMinutes, CaloriesBurned: ex.CaloriesBurned}
	if !s.bindJSON(c, &in) {
		return
	}
	ex.Date, ex.Name, ex.DurationMinutes, ex.CaloriesBurned = in.Date, in.Name, in.DurationMinutes, in.CaloriesBurned

	if err := s.storage.UpdateExercise(ctx, ex); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ex)
}

func (s *NutritionServer) deleteExercise(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.storage.DeleteExercise(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "exercise deleted"})
}

func (s *NutritionServer) listWeights(c *gin.Context) {
	weights, err := s.storage.ListWeights(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(weights))
}

func (s *NutritionServer) createWeight(c *gin.Context) {
	var in weightInput
	if !s.bindJSON(c, &in) {
		return
	}
	w := &models.WeightEntry{Date: in.Date, WeightKg: in.WeightKg}
	if err := s.storage.CreateWeight(c.Request.Context(), w); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (s *NutritionServer) updateWeight(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	w, err := s.storage.GetWeight(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	in := weightInput{Date: w.Date, WeightKg: w.WeightKg}
	if !s.bindJSON(c, &in) {
		return
	}
	w.Date, w.WeightKg = in.Date, in.WeightKg

	if err := s.storage.UpdateWeight(ctx, w); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (s *NutritionServer) deleteWeight(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.storage.DeleteWeight(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "weight deleted"})
}
