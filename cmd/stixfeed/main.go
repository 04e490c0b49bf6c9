package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/stixfeed/internal/config"
	dbRedis "github.com/kailas-cloud/stixfeed/internal/db/redis"
	"github.com/kailas-cloud/stixfeed/internal/domain/stix"
	logpkg "github.com/kailas-cloud/stixfeed/internal/logger"
	"github.com/kailas-cloud/stixfeed/internal/metrics"
	collectionrepo "github.com/kailas-cloud/stixfeed/internal/repository/collection"
	objectrepo "github.com/kailas-cloud/stixfeed/internal/repository/object"
	principalrepo "github.com/kailas-cloud/stixfeed/internal/repository/principal"
	chiTransport "github.com/kailas-cloud/stixfeed/internal/transport/chi"
	accessuc "github.com/kailas-cloud/stixfeed/internal/usecase/access"
	feeduc "github.com/kailas-cloud/stixfeed/internal/usecase/feed"
	healthuc "github.com/kailas-cloud/stixfeed/internal/usecase/health"
	"github.com/kailas-cloud/stixfeed/internal/version"
)

func main() {
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

	logger.Info("Starting stixfeed TAXII server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("api_root", cfg.TAXII.APIRoot),
		zap.Int("max_pagination_result", cfg.TAXII.MaxPaginationResult),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterFeedMetrics()

	collRepo := collectionrepo.New(store)
	objectRepo := objectrepo.New(store).WithResultWindow(cfg.TAXII.ResultWindow)
	if err := objectRepo.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to prepare object indexes", zap.Error(err))
	}
	principalRepo := principalrepo.New(store, cfg.Auth.CacheSize, time.Duration(cfg.Auth.CacheTTLSec)*time.Second)

	accessSvc := accessuc.New(collRepo)
	feedSvc := feeduc.New(objectRepo, feeduc.Config{MaxPageSize: cfg.TAXII.MaxPaginationResult})
	healthSvc := healthuc.New(store, objectRepo)

	server := chiTransport.NewServer(accessSvc, feedSvc, healthSvc, chiTransport.Info{
		Title:            cfg.TAXII.Title,
		Description:      cfg.TAXII.Description,
		Contact:          cfg.TAXII.Contact,
		APIRoot:          cfg.TAXII.APIRoot,
		MaxContentLength: cfg.TAXII.MaxContentLength,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(principalRepo))
	r.Use(metrics.Middleware())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// jsonRecoverer turns a panic into a TAXII error message instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", stix.TaxiiMediaType)
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"title":"Internal error","http_status":"` +
						strconv.Itoa(http.StatusInternalServerError) + `"}` + "\n"))
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
