// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"nutrition-log/internal/associations"
	"nutrition-log/internal/backup"
	"nutrition-log/internal/config"
	"nutrition-log/internal/diary"
	"nutrition-log/internal/logger"
	"nutrition-log/internal/metrics"
	"nutrition-log/internal/storage"
)

// Deps are the services the HTTP layer serves. Backup and Metrics are
// optional.
type Deps struct {
	Config  *config.Config
	Storage *storage.SQLiteStorage
	Engine  *associations.Engine
	Diary   *diary.Service
	Backup  *backup.Service
	Logger  *logger.Logger
	Metrics *metrics.Metrics
	Version string
}

type NutritionServer struct {
	router     *gin.Engine
	httpServer *http.Server
	storage    *storage.SQLiteStorage
	engine     *associations.Engine
	diary      *diary.Service
	backup     *backup.Service
	log        *logger.Logger
	metrics    *metrics.Metrics
	validate   *validator.Validate
	tools      map[string]toolHandler
	info       protocol.Implementation
	config     *config.Config
}

func NewNutritionServer(deps Deps) (*NutritionServer, error) {
	if deps.Storage == nil || deps.Engine == nil || deps.Diary == nil {
		return nil, errors.New("storage, engine and diary are required")
	}
	if deps.Config == nil {
		deps.Config = config.Default()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	validate, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	s := &NutritionServer{
		storage:  deps.Storage,
		engine:   deps.Engine,
		diary:    deps.Diary,
		backup:   deps.Backup,
		log:      deps.Logger.With("component", "http"),
		metrics:  deps.Metrics,
		validate: validate,
		info:     protocol.Implementation{Name: "nutrition-log", Version: deps.Version},
		config:   deps.Config,
	}
	s.registerTools()
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              deps.Config.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *NutritionServer) Handler() http.Handler {
	return s.router
}

func (s *NutritionServer) Start(ctx context.Context) error {
	s.log.Info("starting nutrition log server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests until ctx expires. The storage is owned by
// the caller and stays open.
func (s *NutritionServer) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *NutritionServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogger(s.log))
	r.Use(metricsMiddleware(s.metrics))
	r.Use(corsMiddleware(s.config.Server.CORSOrigins))
	r.Use(newRateLimiter(s.config.Server.RateLimit, s.config.Server.RateBurst).middleware())

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	r.GET("/mcp", s.handleMCPInfo)
	r.POST("/mcp/tools/call", s.handleToolCall)

	api := r.Group("/api")

	foods := api.Group("/foods")
	foods.GET("", s.listFoods)
	foods.GET("/recent", s.recentFoods)
	foods.GET("/most-used", s.mostUsedFoods)
	foods.GET("/:id", s.getFood)
	foods.POST("", s.createFood)
	foods.PUT("/:id", s.updateFood)
	foods.DELETE("/:id", s.deleteFood)

	d := api.Group("/diary")
	d.GET("/entries", s.listDiaryEntries)
	d.POST("/entries", s.addDiaryEntry)
	d.PUT("/entries/:id", s.updateDiaryEntry)
	d.DELETE("/entries/:id", s.deleteDiaryEntry)
	d.GET("/summary", s.dailySummary)

	ex := api.Group("/exercise")
	ex.GET("", s.listExercises)
	ex.POST("", s.createExercise)
	ex.PUT("/:id", s.updateExercise)
	ex.DELETE("/:id", s.deleteExercise)

	w := api.Group("/weight")
	w.GET("", s.listWeights)
	w.POST("", s.createWeight)
	w.PUT("/:id", s.updateWeight)
	w.DELETE("/:id", s.deleteWeight)

	api.GET("/goals", s.getGoals)
	api.POST("/goals", s.setGoals)
	api.PUT("/goals", s.updateGoals)

	api.GET("/user-settings", s.getSettings)
	api.PUT("/user-settings", s.updateSettings)
	api.DELETE("/user-settings", s.resetSettings)

	n := api.Group("/nutrients")
	n.GET("", s.listNutrients)
	n.GET("/:id", s.getNutrient)
	n.GET("/name/:name", s.getNutrientByName)
	n.POST("", s.createNutrient)
	n.PUT("/:id", s.updateNutrient)
	n.DELETE("/:id", s.deleteNutrient)
	n.POST("/initialize", s.initializeNutrients)
	n.POST("/calculate-calories", s.calculateCalories)

	fa := api.Group("/food-associations")
	fa.GET("/recommendations", s.getRecommendations)
	fa.GET("/popular-combinations", s.getPopularCombinations)
	fa.GET("/insights", s.getMealInsights)
	fa.POST("/update-meal", s.updateMealAssociations)
	fa.POST("/rebuild", s.rebuildAssociations)

	admin := api.Group("/admin")
	admin.GET("/export", s.exportSnapshot)
	admin.POST("/backup", s.runBackup)

	return r
}

func (s *NutritionServer) handleHealth(c *gin.Context) {
	if err := s.storage.Ping(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.info.Version})
}

func (s *NutritionServer) createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			&protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}
