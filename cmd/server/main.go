// Command server runs the HeartPet recommendation HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"heartpet-recommender/internal/ai"
	"heartpet-recommender/internal/api"
	"heartpet-recommender/internal/api/handlers"
	"heartpet-recommender/internal/config"
	"heartpet-recommender/internal/embeddings"
	"heartpet-recommender/internal/logging"
	"heartpet-recommender/internal/recommend"
	"heartpet-recommender/internal/storage"
	"heartpet-recommender/internal/weather"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.SetDefaultLogger(logging.NewLoggerWithFormat(
		logging.ParseLogLevel(cfg.Logging.Level), cfg.Logging.Format))
	logger := logging.WithComponent("server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	postgres, err := storage.NewPostgresStore(&cfg.Postgres)
	if err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	defer func() { _ = postgres.Close() }()

	if err := postgres.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	index := storage.NewRetryableIndex(storage.NewQdrantIndex(&cfg.Qdrant), nil)
	if err := index.Initialize(ctx); err != nil {
		// The brute-force path covers retrieval while the index is down.
		logger.Warn("Vector index initialization failed, serving from fallback", "error", err)
	}
	defer func() { _ = index.Close() }()

	embeddingService := embeddings.NewRetryableService(
		embeddings.NewOpenAIService(&cfg.OpenAI), nil)

	var composer *recommend.VariantComposer
	if cfg.Recommend.ComposeEnabled {
		composer = recommend.NewVariantComposer(ai.NewChatClient(&cfg.OpenAI))
	}

	fallback := storage.NewBruteForceSearcher(postgres, embeddingService.GetDimension())
	engine := recommend.NewEngine(
		embeddingService, index, fallback,
		postgres, postgres, postgres,
		composer, &cfg.Recommend)

	router := api.NewRouter(cfg, &api.Deps{
		Engine:  engine,
		Actions: postgres,
		Prefs:   postgres,
		History: postgres,
		Weather: weather.NewClient(""),
		Checkers: map[string]handlers.HealthChecker{
			"postgres": postgres,
			"qdrant":   index,
		},
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
