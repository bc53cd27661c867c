package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/recommender/internal/api/handlers"
	mw "github.com/Harshitk-cp/recommender/internal/api/middleware"
	"github.com/Harshitk-cp/recommender/internal/buildconfig"
	"github.com/Harshitk-cp/recommender/internal/config"
	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/Harshitk-cp/recommender/internal/service"
	"github.com/Harshitk-cp/recommender/internal/store"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Stores bundles the persistence the engine reads and writes.
type Stores struct {
	Interactions domain.InteractionStore
	Products     domain.ProductStore
	Preferences  domain.PreferenceStore
}

// App holds the router and background services for lifecycle management.
type App struct {
	Router      *chi.Mux
	Engine      *service.Engine
	RateLimiter *mw.RateLimiter
	Registry    *prometheus.Registry
	logger      *zap.Logger
	stopCh      chan struct{}
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	breakerCfg := store.BreakerConfig{
		FailureThreshold: config.BreakerFailureThreshold(),
		OpenTimeout:      config.BreakerOpenTimeout(),
		Logger:           logger,
	}

	stores := Stores{
		Interactions: store.NewBreakerInteractionStore(store.NewInteractionStore(db), breakerCfg),
		Products:     store.NewBreakerProductStore(store.NewProductStore(db), breakerCfg),
		Preferences:  store.NewPreferenceStore(db),
	}

	engineCfg := service.EngineConfig{
		ResultCacheTTL:      config.ResultCacheTTL(),
		ResultCacheCapacity: config.ResultCacheCapacity(),
		BundleTTL:           config.BundleTTL(),
		BundleCacheCapacity: config.BundleCacheCapacity(),
		ProfileQueueSize:    config.ProfileQueueSize(),
		RecordTimeout:       config.RecordTimeout(),
	}

	return newApp(stores, db, engineCfg, mw.NewRateLimiter(config.RateLimitRPS(), config.RateLimitBurst()), logger)
}

func newApp(stores Stores, db Pinger, engineCfg service.EngineConfig, limiter *mw.RateLimiter, logger *zap.Logger) *App {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	engine := service.NewEngine(
		stores.Interactions,
		stores.Products,
		stores.Preferences,
		engineCfg,
		logger,
		service.NewMetrics(reg),
	)

	interactionHandler := handlers.NewInteractionHandler(engine.Recorder)
	recommendationHandler := handlers.NewRecommendationHandler(engine)

	r := chi.NewRouter()

	app := &App{
		Router:      r,
		Engine:      engine,
		RateLimiter: limiter,
		Registry:    reg,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}

	metricsCollector := mw.NewMetricsCollector(reg)

	// Global middleware (order matters)
	r.Use(mw.RequestID)                // Generate/extract request ID first
	r.Use(middleware.RealIP)           // Extract real IP
	r.Use(metricsCollector.Middleware) // Collect metrics
	r.Use(mw.Logging(logger))          // Log all requests
	r.Use(middleware.Recoverer)        // Recover from panics
	r.Use(limiter.Middleware)          // Rate limiting

	r.Get("/health", healthHandler(db))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/interactions", interactionHandler.Create)

		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/recommendations", recommendationHandler.ForUser)
			r.Get("/recommendations/collaborative", recommendationHandler.Collaborative)
			r.Get("/recommendations/content", recommendationHandler.Content)
			r.Get("/bundle", recommendationHandler.Bundle)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/trending", recommendationHandler.Trending)
			r.Get("/{id}/similar", recommendationHandler.Similar)
		})

		r.Get("/cache", recommendationHandler.CacheStats)
		r.Delete("/cache", recommendationHandler.InvalidateCache)
	})

	return app
}

const (
	limiterIdleTimeout = 5 * time.Minute
	cacheSweepInterval = time.Minute
)

// Start launches background workers.
func (app *App) Start() {
	app.Engine.Profiles.Start()
	app.RateLimiter.StartCleanup(limiterIdleTimeout, app.stopCh)
	go app.sweepCaches(cacheSweepInterval)
}

func (app *App) sweepCaches(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := app.Engine.CleanupExpired(); n > 0 {
				app.logger.Debug("swept expired cache entries", zap.Int("count", n))
			}
		case <-app.stopCh:
			return
		}
	}
}

// Stop halts background workers and waits for in-flight profile refreshes.
func (app *App) Stop() {
	close(app.stopCh)
	app.Engine.Profiles.Stop()
}

type healthResponse struct {
	Status string           `json:"status"`
	Error  string           `json:"error,omitempty"`
	Build  buildconfig.Info `json:"build"`
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Build: buildconfig.VersionInfo()}
		status := http.StatusOK
		if err := db.Ping(r.Context()); err != nil {
			resp.Status = "error"
			resp.Error = err.Error()
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// Ensure stores satisfy interfaces at compile time.
var (
	_ domain.InteractionStore = (*store.InteractionStore)(nil)
	_ domain.InteractionStore = (*store.BreakerInteractionStore)(nil)
	_ domain.ProductStore     = (*store.ProductStore)(nil)
	_ domain.ProductStore     = (*store.BreakerProductStore)(nil)
	_ domain.PreferenceStore  = (*store.PreferenceStore)(nil)
)
