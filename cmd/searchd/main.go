package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Di-Twin/nlp-search-lite/internal/config"
	"github.com/Di-Twin/nlp-search-lite/internal/db/redis"
	logpkg "github.com/Di-Twin/nlp-search-lite/internal/logger"
	"github.com/Di-Twin/nlp-search-lite/internal/metrics"
	"github.com/Di-Twin/nlp-search-lite/internal/repository/catalog"
	"github.com/Di-Twin/nlp-search-lite/internal/repository/resultcache"
	chiTransport "github.com/Di-Twin/nlp-search-lite/internal/transport/chi"
	healthuc "github.com/Di-Twin/nlp-search-lite/internal/usecase/health"
	searchuc "github.com/Di-Twin/nlp-search-lite/internal/usecase/search"
	"github.com/Di-Twin/nlp-search-lite/internal/version"
)

func main() {
	// Load .env for local development (optional)
	_ = godotenv.Load()

	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting catalog search API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
	)

	ctx := context.Background()

	// Catalog database (Postgres)
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to parse database URL", zap.Error(err))
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	catalogRepo := catalog.New(pool)
	defer catalogRepo.Close()

	readyCtx, cancelReady := context.WithTimeout(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second)
	if err := catalogRepo.Ping(readyCtx); err != nil {
		cancelReady()
		logger.Fatal("Database not ready", zap.Error(err))
	}
	cancelReady()
	logger.Info("Connected to database")

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Result cache (Redis) — optional: the service runs without it.
	var pageCache searchuc.PageCache
	var cachePinger healthuc.CachePinger
	if len(cfg.Cache.Addrs) > 0 {
		store, err := redis.NewStore(redis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}

		pageCache = resultcache.New(
			store,
			time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.SearchCacheTotal,
			logger,
		)
		cachePinger = store
		logger.Info("Result cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	} else {
		logger.Warn("Result cache disabled: no cache.addrs configured")
	}

	// Use case services
	searchSvc := searchuc.New(catalogRepo, pageCache).
		WithPagination(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize).
		WithTimeout(time.Duration(cfg.Search.RequestTimeoutSec) * time.Second).
		WithMetrics(metrics.SearchStrategyTotal, metrics.SearchPipelineDuration, metrics.SearchEmptyTotal)
	healthSvc := healthuc.New(catalogRepo, cachePinger)

	// HTTP server
	server := chiTransport.NewServer(searchSvc, healthSvc)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(metrics.Middleware())

	r.Get("/api/v1/search", server.SearchCatalog)
	r.Get("/healthz", server.Healthz)
	r.Method(http.MethodGet, "/metrics", server.Metrics())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.Query().Get("q")),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
