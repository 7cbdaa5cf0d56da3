// cmd/nutrition-log/commands.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"nutrition-log/internal/associations"
	"nutrition-log/internal/backup"
	"nutrition-log/internal/config"
	"nutrition-log/internal/diary"
	"nutrition-log/internal/logger"
	"nutrition-log/internal/metrics"
	"nutrition-log/internal/storage"
)

var (
	rootCmd = &cobra.Command{
		Use:   "nutrition-log",
		Short: "Personal nutrition diary with food pairing recommendations",
		Long: `nutrition-log stores foods, diary entries, exercise, weight and goals in
SQLite and learns which foods are eaten together in each meal type.`,
		SilenceUsage: true,
	}

	configPath string
	dbPath     string
	logMode    string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "development or production (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(updateMealCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(importFoodsCmd)
	rootCmd.AddCommand(seedNutrientsCmd)
	rootCmd.AddCommand(versionCmd)
}

// app holds the services every command builds from the same configuration.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	store   *storage.SQLiteStorage
	metrics *metrics.Metrics
	engine  *associations.Engine
	diary   *diary.Service
	backup  *backup.Service
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if logMode != "" {
		cfg.Log.Mode = logMode
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var uploader backup.Uploader
	if cfg.Backup.S3.Bucket != "" {
		u, err := backup.NewS3Uploader(ctx, cfg.Backup.S3)
		if err != nil {
			store.Close()
			return nil, err
		}
		uploader = u
	}

	m := metrics.New()
	engine := associations.NewEngine(associations.NewSQLiteStore(store),
		associations.WithLogger(log), associations.WithMetrics(m))

	return &app{
		cfg:     cfg,
		log:     log,
		store:   store,
		metrics: m,
		engine:  engine,
		diary:   diary.NewService(store, engine, log),
		backup: backup.NewService(store, backup.Options{
			Dir:      cfg.Backup.Dir,
			Keep:     cfg.Backup.Keep,
			Uploader: uploader,
			Metrics:  m,
		}, log),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("failed to close storage", "error", err)
	}
	a.log.Sync()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
