// Package main is the entry point for the inkgrid server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/inkgrid/server/internal/api"
	"github.com/inkgrid/server/internal/cache"
	"github.com/inkgrid/server/internal/config"
	"github.com/inkgrid/server/internal/imageio"
	"github.com/inkgrid/server/internal/render"
	"github.com/inkgrid/server/internal/service"
	"github.com/inkgrid/server/internal/session"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/server.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "inkgrid",
		Level:      hclog.LevelFromString(cfg.Log.Level),
		JSONFormat: cfg.Log.JSON,
		Output:     os.Stderr,
	})

	logger.Info("starting inkgrid server", "port", cfg.Server.Port)

	// Initialize cache manager (shared across all sessions)
	cacheManager, err := cache.NewManager(cache.Config{
		PreviewCacheSizeMB: cfg.Cache.PreviewSizeMB,
		PreviewTTL:         time.Duration(cfg.Cache.PreviewTTLMinutes) * time.Minute,
		ReportCacheSize:    cfg.Cache.ReportCacheSize,
	})
	if err != nil {
		logger.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheManager.Close()

	// Initialize session store; evicted sessions drop their cached artefacts
	storeLogger := logger.Named("session")
	store, err := session.NewStore(session.StoreConfig{
		MaxSessions: cfg.Session.MaxSessions,
		TTL:         time.Duration(cfg.Session.TTLMinutes) * time.Minute,
		DefaultSpec: cfg.DefaultSpec(),
		OnEvict: func(id string) {
			cacheManager.Forget(id)
			storeLogger.Debug("session evicted", "session", id)
		},
	})
	if err != nil {
		logger.Error("failed to initialize session store", "error", err)
		os.Exit(1)
	}
	logger.Info("session store ready",
		"max_sessions", cfg.Session.MaxSessions,
		"ttl_minutes", cfg.Session.TTLMinutes,
		"default_grid", cfg.DefaultSpec().String())

	analysisService := service.NewAnalysisService(service.AnalysisServiceConfig{
		Store: store,
		Cache: cacheManager,
		Renderer: render.NewRenderer(render.Config{
			CellSize:   cfg.Render.CellSize,
			Gap:        cfg.Render.Gap,
			SwatchSize: cfg.Render.SwatchSize,
			LineColor:  cfg.LineColor(),
		}),
		Decoder: imageio.NewDecoder(cfg.Image.MaxPixels),
		Logger:  logger,
	})

	// Set up HTTP router
	router := api.NewRouter(api.RouterConfig{
		Service:        analysisService,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     logger.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true}),
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", fmt.Sprintf("http://localhost:%d", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}
