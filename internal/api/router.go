package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorekeep/canon/internal/api/handlers"
	mw "github.com/lorekeep/canon/internal/api/middleware"
	"github.com/lorekeep/canon/internal/config"
	"github.com/lorekeep/canon/internal/domain"
	"github.com/lorekeep/canon/internal/service"
	"github.com/lorekeep/canon/internal/store"
	"go.uber.org/zap"
)

// App holds the router and request counters for the metrics endpoint.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) (*App, error) {
	// Stores
	userStore := store.NewUserStore(db)
	evidenceStore := store.NewEvidenceStore(db)

	// Engine config comes from the environment; invalid segment width or
	// category map fails here, before any evidence is processed.
	categories, err := config.CategoryMap()
	if err != nil {
		return nil, err
	}
	engine, err := service.NewContinuityEngine(service.EngineConfig{
		SegmentWidth: config.SegmentWidth(),
		Categories:   categories,
	}, logger)
	if err != nil {
		return nil, err
	}

	continuitySvc := service.NewContinuityService(evidenceStore, engine, logger)

	// Handlers
	userHandler := handlers.NewUserHandler(userStore)
	evidenceHandler := handlers.NewEvidenceHandler(continuitySvc)
	continuityHandler := handlers.NewContinuityHandler(continuitySvc)

	r := chi.NewRouter()
	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health and metrics (no auth)
	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	// User creation (no auth, bootstrap endpoint)
	r.Post("/v1/users", userHandler.Create)

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(userStore))

		r.Route("/evidence", func(r chi.Router) {
			r.Post("/", evidenceHandler.Create)
			r.Get("/", evidenceHandler.List)
		})

		r.Route("/continuity", func(r chi.Router) {
			r.Get("/", continuityHandler.GetState)
			r.Get("/conflicts", continuityHandler.GetConflicts)
			r.Get("/merges", continuityHandler.GetMerges)
			r.Get("/report", continuityHandler.GetReport)
		})
	})

	return app, nil
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)
		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
			"go_version":     runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores satisfy interfaces at compile time.
var (
	_ domain.UserStore     = (*store.UserStore)(nil)
	_ domain.EvidenceStore = (*store.EvidenceStore)(nil)
	_ domain.EvidenceStore = (*store.InMemEvidenceStore)(nil)
)
