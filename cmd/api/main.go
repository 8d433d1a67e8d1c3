// Command api is the Scoracle Events read API server. It serves the tables a
// collect run left in the storage root.
//
// Usage:
//
//	scoracle-api
//	SCORACLE_API_PORT=8080 SCORACLE_STORAGE_ROOT=./data scoracle-api
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/albapepper/scoracle-events/internal/api"
	"github.com/albapepper/scoracle-events/internal/cache"
	"github.com/albapepper/scoracle-events/internal/config"
	"github.com/albapepper/scoracle-events/internal/loader"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	var port int
	root := &cobra.Command{
		Use:          "scoracle-api",
		Short:        "Serve collected matches, events and 360 frames over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.API.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cfg)
		},
	}
	root.Flags().IntVar(&port, "port", 8000, "Listen port (overrides api.port)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cfg *config.Config) error {
	logger, err := config.InitLogger(cfg.Log, "scoracle-api")
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Initialize cache
	appCache := cache.New(cfg.API.CacheEnabled)
	defer appCache.Close()
	logger.Info("Cache initialized", zap.Bool("enabled", cfg.API.CacheEnabled))

	ld := loader.New(cfg.Layout(), cfg.ReadFormat(), logger)
	router := api.NewRouter(ld, appCache, cfg, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting Scoracle Events API",
			zap.String("addr", addr),
			zap.String("environment", cfg.Environment),
			zap.String("storage_root", cfg.Storage.Root),
			zap.String("read_format", string(ld.Format())),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt or listener failure
	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
		return err
	}
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
		return err
	}
	logger.Info("Server stopped")
	return nil
}
