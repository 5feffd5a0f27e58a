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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hrtools/assessrag/internal/config"
	"github.com/hrtools/assessrag/internal/ingest"
	logpkg "github.com/hrtools/assessrag/internal/logger"
	"github.com/hrtools/assessrag/internal/metrics"
	"github.com/hrtools/assessrag/internal/store"
	memoryStore "github.com/hrtools/assessrag/internal/store/memory"
	redisStore "github.com/hrtools/assessrag/internal/store/redis"
	chiTransport "github.com/hrtools/assessrag/internal/transport/chi"
	geminiGen "github.com/hrtools/assessrag/internal/transport/gemini"
	openaiEmb "github.com/hrtools/assessrag/internal/transport/openai"
	answeruc "github.com/hrtools/assessrag/internal/usecase/answer"
	healthuc "github.com/hrtools/assessrag/internal/usecase/health"
	indexuc "github.com/hrtools/assessrag/internal/usecase/index"
	retrievaluc "github.com/hrtools/assessrag/internal/usecase/retrieval"
	"github.com/hrtools/assessrag/internal/version"
)

func main() {
	// .env is optional; deployments set real environment variables.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting assessrag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Store.Driver),
	)

	def, err := indexDefinition(cfg)
	if err != nil {
		logger.Fatal("Invalid index definition", zap.Error(err))
	}

	// Create vector store based on driver
	var st store.Store
	switch cfg.Store.Driver {
	case "memory":
		st, err = memoryStore.NewStore(def)
	case "redis":
		st, err = redisStore.NewStore(redisStore.Config{
			Addrs:    cfg.Redis.Addrs,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, def)
	default:
		logger.Fatal("Unknown store driver", zap.String("driver", cfg.Store.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create vector store", zap.Error(err))
	}
	defer st.Close()

	// Wait for the store to be ready
	ctx := context.Background()
	if err := st.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Vector store not ready", zap.Error(err))
	}

	if rs, ok := st.(*redisStore.Store); ok {
		if err := rs.EnsureIndex(ctx); err != nil {
			logger.Fatal("Failed to ensure search index", zap.Error(err))
		}
	}
	logger.Info("Vector store ready",
		zap.String("driver", cfg.Store.Driver),
		zap.String("index", def.Name),
		zap.Int("dimensions", def.Dimensions),
	)

	// Register adapter metrics explicitly (no init())
	metrics.RegisterAdapterMetrics()

	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
	})
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	generator, err := geminiGen.NewGenerator(ctx, &geminiGen.Config{
		APIKey:          cfg.Generation.APIKey,
		Model:           cfg.Generation.Model,
		MaxOutputTokens: cfg.Generation.MaxOutputTokens,
		Temperature:     cfg.Generation.Temperature,
	})
	if err != nil {
		logger.Fatal("Failed to create generator", zap.Error(err))
	}
	defer func() { _ = generator.Close() }()
	logger.Info("Generator created", zap.String("model", cfg.Generation.Model))

	// Create use case services
	indexSvc := indexuc.New(st, embedder, logger).WithBatchSize(cfg.Ingest.BatchSize)
	retrievalSvc := retrievaluc.New(st, embedder).WithTopK(cfg.Retrieval.TopK)
	answerSvc := answeruc.New(generator)

	// Seed the index in the background; the server starts regardless and
	// the load outcome stays visible via /health.
	loader := ingest.NewLoader(indexSvc, cfg.Ingest.SeedDir, cfg.Ingest.SeedFiles, logger)
	go loader.Run(ctx)

	healthSvc := healthuc.New(st, embedder, loader)

	// Create chi server
	server := chiTransport.NewServer(indexSvc, retrievalSvc, answerSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(corsHandler(cfg.HTTP.CORSOrigins))
	r.Use(metrics.Middleware())
	server.Routes(r)

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

// indexDefinition maps config into the store schema shared by both drivers.
// Vector dimensions come from the embedding model, not the index block.
func indexDefinition(cfg config.Config) (store.IndexDefinition, error) {
	metric, err := store.ParseMetric(cfg.Store.Index.Metric)
	if err != nil {
		return store.IndexDefinition{}, err
	}
	algorithm, err := store.ParseAlgorithm(cfg.Store.Index.Algorithm)
	if err != nil {
		return store.IndexDefinition{}, err
	}
	return store.IndexDefinition{
		Name:            cfg.Store.Index.Name,
		KeyPrefix:       cfg.Store.Index.KeyPrefix,
		Dimensions:      cfg.Embedding.Dimensions,
		Metric:          metric,
		Algorithm:       algorithm,
		HNSWM:           cfg.Store.Index.HNSWM,
		HNSWEFConstruct: cfg.Store.Index.HNSWEFConstruct,
	}, nil
}

// corsHandler allows the demo front end to call the API from any origin
// unless the config narrows it down.
func corsHandler(origins []string) func(next http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID", "X-Embedding-Tokens"},
		MaxAge:         300,
	})
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
						"error": "internal error",
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

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
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
