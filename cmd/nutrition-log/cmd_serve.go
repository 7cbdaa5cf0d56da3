// cmd/nutrition-log/cmd_serve.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"nutrition-log/internal/models"
	"nutrition-log/internal/server"
)

const shutdownTimeout = 15 * time.Second

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and MCP tool endpoint",
		RunE:  runServe,
	}
	serveHost string
	servePort int
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen address (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if serveHost != "" {
		a.cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		a.cfg.Server.Port = servePort
	}

	if added, err := a.store.SeedNutrients(ctx, models.DefaultNutrients); err != nil {
		return err
	} else if added > 0 {
		a.log.Info("seeded default nutrients", "added", added)
	}

	srv, err := server.NewNutritionServer(server.Deps{
		Config:  a.cfg,
		Storage: a.store,
		Engine:  a.engine,
		Diary:   a.diary,
		Backup:  a.backup,
		Logger:  a.log,
		Metrics: a.metrics,
		Version: version,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		a.log.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		a.log.Error("error during shutdown", "error", err)
		return err
	}
	return nil
}
