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
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/shoplens/shoplens/internal/config"
	dbRedis "github.com/shoplens/shoplens/internal/db/redis"
	logpkg "github.com/shoplens/shoplens/internal/logger"
	"github.com/shoplens/shoplens/internal/metrics"
	metadatarepo "github.com/shoplens/shoplens/internal/repository/metadata"
	textrepo "github.com/shoplens/shoplens/internal/repository/text"
	vectorrepo "github.com/shoplens/shoplens/internal/repository/vector"
	chiTransport "github.com/shoplens/shoplens/internal/transport/chi"
	"github.com/shoplens/shoplens/internal/transport/httpimg"
	openaiEnc "github.com/shoplens/shoplens/internal/transport/openai"
	enumsuc "github.com/shoplens/shoplens/internal/usecase/enums"
	ingestuc "github.com/shoplens/shoplens/internal/usecase/ingest"
	queryuc "github.com/shoplens/shoplens/internal/usecase/query"
	"github.com/shoplens/shoplens/internal/version"
)

func main() {
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

	logger.Info("Starting shoplens API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("redis_addrs", cfg.Redis.Addrs),
		zap.String("qdrant_host", cfg.Qdrant.Host),
	)

	ctx := context.Background()

	// Metadata store (postgres)
	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("Failed to create postgres pool", zap.Error(err))
	}
	defer pool.Close()

	if err := metadatarepo.RunMigrations(ctx, pool, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	metaRepo := metadatarepo.New(pool)
	logger.Info("Connected to postgres")

	// Text index (redis)
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Redis.Addrs,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create redis store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Redis not ready", zap.Error(err))
	}
	textRepo := textrepo.New(store)
	if err := textRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure text index", zap.Error(err))
	}
	logger.Info("Connected to redis")

	// Vector store (qdrant)
	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Qdrant.Host,
		Port:   cfg.Qdrant.Port,
		APIKey: cfg.Qdrant.APIKey,
		UseTLS: cfg.Qdrant.UseTLS,
	})
	if err != nil {
		logger.Fatal("Failed to create qdrant client", zap.Error(err))
	}
	defer func() { _ = qdrantClient.Close() }()

	vectorRepo := vectorrepo.New(
		qdrantClient, cfg.Qdrant.Collection, uint64(cfg.Qdrant.VectorSize),
	)
	if err := vectorRepo.EnsureCollection(ctx); err != nil {
		logger.Fatal("Failed to ensure vector collection", zap.Error(err))
	}
	logger.Info("Connected to qdrant",
		zap.String("collection", cfg.Qdrant.Collection),
		zap.Int("vector_size", cfg.Qdrant.VectorSize),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEncoderMetrics()
	metrics.RegisterIngestMetrics()

	// Multi-modal encoder
	encoder := openaiEnc.NewEncoder(&openaiEnc.Config{
		APIKey:     cfg.Encoder.APIKey,
		BaseURL:    cfg.Encoder.BaseURL,
		Model:      cfg.Encoder.Model,
		Dimensions: cfg.Encoder.Dimensions,
		Logger:     logger,
	})
	logger.Info("Encoder created",
		zap.String("model", cfg.Encoder.Model),
		zap.Int("dimensions", cfg.Encoder.Dimensions),
	)

	fetcher := httpimg.New(httpimg.Config{
		Timeout:  time.Duration(cfg.Images.TimeoutSec) * time.Second,
		MaxBytes: cfg.Images.MaxBytes,
	})

	// Use case services
	ingestSvc := ingestuc.New(metaRepo, vectorRepo, textRepo, fetcher, encoder, logger)
	querySvc := queryuc.New(metaRepo, vectorRepo, textRepo, encoder, logger)
	enumsSvc := enumsuc.New(metaRepo, time.Duration(cfg.Enums.CacheTTLSec)*time.Second)

	health := map[string]chiTransport.HealthCheck{
		"postgres": pool.Ping,
		"redis":    store.Ping,
		"qdrant": func(ctx context.Context) error {
			_, err := qdrantClient.HealthCheck(ctx)
			return err
		},
	}

	server := chiTransport.NewServer(ingestSvc, querySvc, enumsSvc, health, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

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

			requestID := chiMiddleware.GetReqID(r.Context())
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
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
