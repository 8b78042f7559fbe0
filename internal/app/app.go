package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"photosorter/internal/config"
	"photosorter/internal/logger"
	"photosorter/internal/repository"
	"photosorter/internal/repository/sqlite"
	"photosorter/internal/routes"
	"photosorter/internal/services"
	"photosorter/internal/services/ai"
	"photosorter/internal/services/storage"
	"photosorter/internal/services/websocket"
)

type App struct {
	config   *config.Config
	logger   *logger.Logger
	detector *ai.DetectorService
	store    *storage.Store
	hub      *websocket.HubService
	db       *sqlite.DB
	manager  *services.Manager
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	detector := ai.NewDetectorService(cfg, log)

	spool, err := storage.NewSpool(cfg.SpoolDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to set up spool: %w", err)
	}
	store := storage.NewStore()
	hub := websocket.NewHubService(log)

	// The run journal is optional; without it the service still classifies.
	var db *sqlite.DB
	var runs repository.RunRepository
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		log.Warning("Could not create database directory: %v", err)
	} else if db, err = sqlite.New(cfg.DatabasePath); err != nil {
		log.Warning("Run journal unavailable: %v", err)
		db = nil
	} else {
		runs = sqlite.NewRunRepository(db)
	}

	manager := services.NewManager(detector, store, spool, hub, runs, log,
		time.Duration(cfg.DetectionTimeout)*time.Second)

	return &App{
		config:   cfg,
		logger:   log,
		detector: detector,
		store:    store,
		hub:      hub,
		db:       db,
		manager:  manager,
	}, nil
}

func (a *App) Run() error {
	// Start background services
	go a.hub.Run()

	// Setup routes
	router := routes.SetupRoutes(a.manager, a.config, a.logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: router,
	}

	a.logger.Info("🚀 Photo sorter server")
	a.logger.Info("📍 URL: http://localhost:%d", a.config.Port)
	a.logger.Info("🤖 AI Model: %s (ready: %v)", a.config.ModelPath, a.detector.Ready())
	a.logger.Info("📁 Spool: %s", a.config.SpoolDirectory)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.shutdown()
		return err
	case sig := <-stop:
		a.logger.Info("Received %v, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		a.logger.Error("Server shutdown error: %v", err)
	}

	a.shutdown()
	return nil
}

// shutdown cancels the in-flight run, releases every stored result and
// closes the journal and the network.
func (a *App) shutdown() {
	a.manager.Stop()
	a.detector.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Error closing database: %v", err)
		}
	}
}
