// internal/server/diary.go
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nutrition-log/internal/diary"
	"nutrition-log/internal/models"
)

func (s *NutritionServer) listDiaryEntries(c *gin.Context) {
	date := c.DefaultQuery("date", models.FormatDate(time.Now()))
	entries, err := s.diary.List(c.Request.Context(), date, c.Query("meal_type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *NutritionServer) addDiaryEntry(c *gin.Context) {
	var in diary.NewEntry
	if !s.bindJSON(c, &in) {
		return
	}
	entry, err := s.diary.Add(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (s *NutritionServer) updateDiaryEntry(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch diary.EntryPatch
	if !s.bindJSON(c, &patch) {
		return
	}
	entry, err := s.diary.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *NutritionServer) deleteDiaryEntry(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.diary.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "entry deleted"})
}

func (s *NutritionServer) dailySummary(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		respondError(c, fmt.Errorf("%w: date is required", models.ErrInvalidDate))
		return
	}
	summary, err := s.diary.Summary(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
