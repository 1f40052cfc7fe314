// Package main is the entrypoint for the users API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/semifinals/users/internal/cache"
	"github.com/semifinals/users/internal/config"
	"github.com/semifinals/users/internal/docstore"
	"github.com/semifinals/users/internal/handler"
	"github.com/semifinals/users/internal/metrics"
	"github.com/semifinals/users/internal/middleware"
	"github.com/semifinals/users/internal/server"
	"github.com/semifinals/users/internal/service"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	recorder := metrics.NewPrometheus()

	// Initialize document store
	rawStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error(
			"failed to open document store",
			slog.String("driver", cfg.DocumentStore),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL, cfg.CosmosKey)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	store := docstore.Instrument(rawStore, recorder, logger)
	logger.Info("document store ready",
		"driver", cfg.DocumentStore,
		"database", cfg.CosmosDatabase,
	)

	// Initialize cache; rate limiting is off without it
	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			store.Close()
			os.Exit(1)
		}
		logger.Info("connected to Redis")
	}

	deps := routerDeps{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		recorder: recorder,
		exporter: recorder.Handler(),
	}
	if cacheClient != nil {
		deps.cache = cacheClient
		deps.limiter = cacheClient
	}

	srv := server.New(setupRouter(deps), server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("document store", func(ctx context.Context) error {
		return store.Close()
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(ctx context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"rate_limit", cfg.RateLimitActive(),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStore connects the document store selected by DOCUMENT_STORE.
func openStore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	switch cfg.DocumentStore {
	case config.StoreCosmos:
		return docstore.NewCosmos(cfg.CosmosEndpoint, cfg.CosmosKey, cfg.CosmosDatabase)
	case config.StorePostgres:
		return docstore.NewPostgres(ctx, cfg.DatabaseURL, cfg.CosmosDatabase)
	case config.StoreMemory:
		return docstore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown document store %q", cfg.DocumentStore)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// routerDeps are the collaborators the router is assembled from. cache and
// limiter stay nil when Redis is not configured.
type routerDeps struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    docstore.Store
	cache    handler.HealthChecker
	limiter  middleware.IPLimiter
	recorder metrics.Recorder
	exporter http.Handler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	cfg := deps.cfg

	userService := service.NewUserService(deps.store, nil, deps.recorder)

	h := handler.New()
	healthHandler := handler.NewHealthHandler(deps.store, deps.cache)
	metricsHandler := handler.NewMetricsHandler(deps.exporter)
	userHandler := handler.NewUserHandler(userService, deps.logger)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Probes are never rate limited
	r.Get("/ping", healthHandler.Ping)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitIP(middleware.RateLimitConfig{
			Logger:  deps.logger,
			Limiter: deps.limiter,
			Enabled: cfg.RateLimitActive(),
			RPS:     cfg.RateLimitRPS,
			Burst:   cfg.RateLimitBurst,
		}))
		userHandler.Routes(r)
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// sanitizeError removes secrets from an error message. URLs keep their
// host; anything else is replaced outright.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := "[redacted]"
		if strings.Contains(secret, "://") {
			redacted = redactURL(secret)
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
