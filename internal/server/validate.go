// internal/server/validate.go
package server

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"nutrition-log/internal/models"
)

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	if err := v.RegisterValidation("mealtype", func(fl validator.FieldLevel) bool {
		_, err := models.ParseMealType(fl.Field().String())
		return err == nil
	}); err != nil {
		return nil, err
	}
	if err := v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := models.ParseDate(fl.Field().String())
		return err == nil
	}); err != nil {
		return nil, err
	}
	return v, nil
}

// bindJSON decodes the body into dst and validates it, writing the error
// response itself when either step fails.
func (s *NutritionServer) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		respondError(c, err)
		return false
	}
	return true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, fmt.Errorf("%w: invalid id %q", errBadRequest, c.Param("id")))
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		respondError(c, fmt.Errorf("%w: invalid %s %q", errBadRequest, key, raw))
		return 0, false
	}
	return v, true
}

func queryMealType(c *gin.Context, def models.MealType) (models.MealType, bool) {
	raw := c.Query("meal_type")
	if raw == "" {
		return def, true
	}
	mt, err := models.ParseMealType(raw)
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return mt, true
}
