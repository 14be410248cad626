package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/needledrop/needledrop/internal/api"
	"github.com/needledrop/needledrop/internal/backup"
	"github.com/needledrop/needledrop/internal/cache"
	"github.com/needledrop/needledrop/internal/config"
	"github.com/needledrop/needledrop/internal/database"
	"github.com/needledrop/needledrop/internal/logging"
	"github.com/needledrop/needledrop/internal/maintenance"
	"github.com/needledrop/needledrop/internal/match"
	"github.com/needledrop/needledrop/internal/provider"
	"github.com/needledrop/needledrop/internal/provider/soundcloud"
	"github.com/needledrop/needledrop/internal/provider/youtube"
	"github.com/needledrop/needledrop/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	configPath := os.Getenv("ND_CONFIG_PATH")
	if configPath == "" {
		configPath = "/data/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logManager, logger := logging.NewManager(logging.Config{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		FilePath: cfg.Logging.FilePath,
	})
	defer logManager.Close() //nolint:errcheck
	slog.SetDefault(logger)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", "error", err)
		}
	}()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("database ready", slog.String("path", cfg.Database.Path))

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Cache tier with background expiry sweeps
	matchCache := cache.NewMemory()
	go matchCache.StartJanitor(ctx, time.Duration(cfg.Cache.JanitorIntervalSeconds)*time.Second)

	// Platform adapters
	rateLimiters := provider.NewRateLimiterMap()
	registry := provider.NewRegistry()
	registry.Register(youtube.New(rateLimiters, cfg.Providers.YouTubeAPIKey, logger))
	registry.Register(soundcloud.New(rateLimiters, cfg.Providers.SoundCloudClientID, logger))

	engine := match.NewEngine(registry, logger)
	store := match.NewStore(db)
	orchestrator := match.NewOrchestrator(matchCache, store, engine, logger)
	orchestrator.SetCacheTTL(time.Duration(cfg.Cache.TTLSeconds) * time.Second)

	// Operational services over the same database
	backupDir := cfg.Backup.Path
	if backupDir == "" {
		backupDir = filepath.Join(filepath.Dir(cfg.Database.Path), "backups")
	}
	backupService := backup.NewService(db, backupDir, cfg.Backup.RetentionCount, logger)
	backupService.SetMaxAgeDays(cfg.Backup.MaxAgeDays)
	if cfg.Backup.Enabled {
		go backupService.StartScheduler(ctx, time.Duration(cfg.Backup.IntervalHours)*time.Hour)
	}

	maintenanceService := maintenance.NewService(db, cfg.Database.Path, logger)
	if cfg.Maintenance.Enabled {
		go maintenanceService.StartScheduler(ctx, time.Duration(cfg.Maintenance.IntervalHours)*time.Hour)
	}

	router := api.NewRouter(api.RouterDeps{
		Orchestrator:       orchestrator,
		Engine:             engine,
		Registry:           registry,
		BackupService:      backupService,
		MaintenanceService: maintenanceService,
		Logger:             logger,
	})

	logger.Info("starting needledrop",
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
	)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(ctx),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
