package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/needledrop/needledrop/internal/api/middleware"
	"github.com/needledrop/needledrop/internal/backup"
	"github.com/needledrop/needledrop/internal/maintenance"
	"github.com/needledrop/needledrop/internal/match"
	"github.com/needledrop/needledrop/internal/provider"
)

// RouterDeps bundles all dependencies needed by the HTTP router.
type RouterDeps struct {
	Orchestrator       *match.Orchestrator
	Engine             *match.Engine
	Registry           *provider.Registry
	BackupService      *backup.Service
	MaintenanceService *maintenance.Service
	Logger             *slog.Logger
	BasePath           string
}

// Router sets up all HTTP routes for the application.
type Router struct {
	orchestrator       *match.Orchestrator
	engine             *match.Engine
	registry           *provider.Registry
	backupService      *backup.Service
	maintenanceService *maintenance.Service
	logger             *slog.Logger
	basePath           string
}

// NewRouter creates a new Router with all routes configured.
func NewRouter(deps RouterDeps) *Router {
	return &Router{
		orchestrator:       deps.Orchestrator,
		engine:             deps.Engine,
		registry:           deps.Registry,
		backupService:      deps.BackupService,
		maintenanceService: deps.MaintenanceService,
		logger:             deps.Logger,
		basePath:           deps.BasePath,
	}
}

// Handler returns the fully configured HTTP handler with middleware applied.
// Resolution endpoints spend external API quota, so they sit behind a
// per-IP rate limiter.
func (r *Router) Handler(ctx context.Context) http.Handler {
	computeRL := middleware.NewComputeRateLimiter(ctx)
	mux := http.NewServeMux()
	bp := r.basePath

	mux.HandleFunc("GET "+bp+"/api/v1/health", r.handleHealth)
	mux.HandleFunc("GET "+bp+"/api/v1/platforms", r.handleListPlatforms)

	mux.HandleFunc("GET "+bp+"/api/v1/releases/{id}/matches", r.handleListMatches)
	mux.Handle("POST "+bp+"/api/v1/releases/{id}/tracks/{index}/resolve",
		computeRL.Middleware(http.HandlerFunc(r.handleResolve)))
	mux.HandleFunc("POST "+bp+"/api/v1/releases/{id}/tracks/{index}/approve", r.handleApprove)
	mux.HandleFunc("POST "+bp+"/api/v1/releases/{id}/tracks/{index}/reject", r.handleReject)
	mux.HandleFunc("DELETE "+bp+"/api/v1/releases/{id}/tracks/{index}/match", r.handleClearMatch)

	mux.Handle("POST "+bp+"/api/v1/matches/preview",
		computeRL.Middleware(http.HandlerFunc(r.handlePreview)))

	if r.backupService != nil {
		mux.HandleFunc("GET "+bp+"/api/v1/backups", r.handleListBackups)
		mux.HandleFunc("POST "+bp+"/api/v1/backups", r.handleCreateBackup)
		mux.HandleFunc("DELETE "+bp+"/api/v1/backups/{filename}", r.handleDeleteBackup)
	}
	if r.maintenanceService != nil {
		mux.HandleFunc("GET "+bp+"/api/v1/maintenance/status", r.handleMaintenanceStatus)
		mux.HandleFunc("POST "+bp+"/api/v1/maintenance/optimize", r.handleMaintenanceOptimize)
		mux.HandleFunc("POST "+bp+"/api/v1/maintenance/vacuum", r.handleMaintenanceVacuum)
	}

	var handler http.Handler = mux
	handler = middleware.Logging(r.logger)(handler)
	handler = middleware.SecurityHeaders(handler)
	return handler
}
