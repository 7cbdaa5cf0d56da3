// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/gin-gonic/gin"

	"nutrition-log/internal/associations"
	"nutrition-log/internal/diary"
	"nutrition-log/internal/models"
)

type toolHandler func(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error)

var errUnknownTool = errors.New("unknown tool")

type LogFoodParams struct {
	FoodID      int64   `json:"food_id,omitempty" description:"ID of the food to log"`
	FoodName    string  `json:"food_name,omitempty" description:"Exact food name, used when food_id is not given"`
	Date        string  `json:"date,omitempty" description:"Diary date (YYYY-MM-DD, defaults to today)"`
	MealType    string  `json:"meal_type" description:"breakfast, lunch, dinner, snack, snack1 or snack2"`
	AmountGrams float64 `json:"amount_grams,omitempty" description:"Portion in grams (defaults to 100)"`
	Notes       string  `json:"notes,omitempty" description:"Free-text note"`
}

type GetDiaryParams struct {
	Date string `json:"date,omitempty" description:"Diary date (YYYY-MM-DD, defaults to today)"`
}

type GetRecommendationsParams struct {
	FoodID   int64  `json:"food_id" description:"Food to find companions for"`
	MealType string `json:"meal_type,omitempty" description:"Meal type to look in (defaults to breakfast)"`
	Limit    int    `json:"limit,omitempty" description:"Maximum number of recommendations"`
}

type MealTypeParams struct {
	MealType string `json:"meal_type,omitempty" description:"Meal type to look in (defaults to breakfast)"`
	Limit    int    `json:"limit,omitempty" description:"Maximum number of results"`
}

// extractParams safely extracts parameters from the request arguments
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("%w: failed to unmarshal parameters: %v", errBadRequest, err)
	}

	return nil
}

func (s *NutritionServer) registerTools() {
	s.tools = map[string]toolHandler{
		"log_food":                 s.handleLogFood,
		"get_diary":                s.handleGetDiary,
		"get_recommendations":      s.handleGetRecommendations,
		"get_popular_combinations": s.handleGetPopularCombinations,
		"get_meal_insights":        s.handleGetMealInsights,
	}
}

func (s *NutritionServer) toolNames() []string {
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *NutritionServer) handleMCPInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"server": s.info,
		"tools":  s.toolNames(),
	})
}

func (s *NutritionServer) handleToolCall(c *gin.Context) {
	var request protocol.CallToolRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err))
		return
	}

	handler, ok := s.tools[request.Name]
	if !ok {
		respondError(c, fmt.Errorf("%w: %s", errUnknownTool, request.Name))
		return
	}

	result, err := handler(c.Request.Context(), &request)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *NutritionServer) handleLogFood(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params LogFoodParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	foodID := params.FoodID
	if foodID == 0 {
		if params.FoodName == "" {
			return nil, fmt.Errorf("%w: food_id or food_name is required", errBadRequest)
		}
		food, err := s.storage.GetFoodByName(ctx, params.FoodName)
		if err != nil {
			return nil, fmt.Errorf("failed to find food %q: %w", params.FoodName, err)
		}
		foodID = food.ID
	}

	if params.Date == "" {
		params.Date = models.FormatDate(time.Now())
	}

	entry, err := s.diary.Add(ctx, diary.NewEntry{
		Date:        params.Date,
		MealType:    params.MealType,
		FoodID:      foodID,
		AmountGrams: params.AmountGrams,
		Notes:       params.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to log food: %w", err)
	}

	return s.createJSONResponse(entry)
}

func (s *NutritionServer) handleGetDiary(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetDiaryParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if params.Date == "" {
		params.Date = models.FormatDate(time.Now())
	}

	entries, err := s.diary.List(ctx, params.Date, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list diary: %w", err)
	}
	summary, err := s.diary.Summary(ctx, params.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize diary: %w", err)
	}

	return s.createJSONResponse(map[string]interface{}{
		"date":    params.Date,
		"entries": entries,
		"summary": summary,
	})
}

func (s *NutritionServer) handleGetRecommendations(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetRecommendationsParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if params.FoodID <= 0 {
		return nil, fmt.Errorf("%w: food_id is required", errBadRequest)
	}
	mealType, err := toolMealType(params.MealType)
	if err != nil {
		return nil, err
	}
	if params.Limit <= 0 {
		params.Limit = associations.DefaultRecommendationLimit
	}

	recs, err := s.engine.GetRecommendations(ctx, params.FoodID, mealType, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendations: %w", err)
	}

	return s.createJSONResponse(map[string]interface{}{
		"food_id":         params.FoodID,
		"meal_type":       mealType,
		"recommendations": nonNil(recs),
	})
}

func (s *NutritionServer) handleGetPopularCombinations(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params MealTypeParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	mealType, err := toolMealType(params.MealType)
	if err != nil {
		return nil, err
	}
	if params.Limit <= 0 {
		params.Limit = associations.DefaultCombinationLimit
	}

	combos, err := s.engine.GetPopularCombinations(ctx, mealType, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get popular combinations: %w", err)
	}

	return s.createJSONResponse(map[string]interface{}{
		"meal_type":    mealType,
		"combinations": nonNil(combos),
	})
}

func (s *NutritionServer) handleGetMealInsights(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params MealTypeParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	mealType, err := toolMealType(params.MealType)
	if err != nil {
		return nil, err
	}

	insights, err := s.engine.GetMealInsights(ctx, mealType)
	if err != nil {
		return nil, fmt.Errorf("failed to get meal insights: %w", err)
	}

	return s.createJSONResponse(insights)
}

func toolMealType(raw string) (models.MealType, error) {
	if raw == "" {
		return defaultQueryMealType, nil
	}
	return models.ParseMealType(raw)
}
