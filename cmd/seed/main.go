// Command seed loads the starter action catalog into Postgres, embeds
// each action, and pushes the vectors into the Qdrant collection.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	_ "github.com/lib/pq" // PostgreSQL driver

	"heartpet-recommender/internal/config"
	"heartpet-recommender/internal/embeddings"
	"heartpet-recommender/internal/logging"
	"heartpet-recommender/internal/storage"
	"heartpet-recommender/internal/types"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Seeding failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.SetDefaultLogger(logging.NewLogger(logging.ParseLogLevel(cfg.Logging.Level)))
	logger := logging.WithComponent("seed")

	ctx := context.Background()

	postgres, err := storage.NewPostgresStore(&cfg.Postgres)
	if err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	defer func() { _ = postgres.Close() }()

	if err := postgres.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	index := storage.NewQdrantIndex(&cfg.Qdrant)
	if err := index.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize vector index: %w", err)
	}
	defer func() { _ = index.Close() }()

	embeddingService := embeddings.NewRetryableService(
		embeddings.NewOpenAIService(&cfg.OpenAI), nil)

	actions := starterCatalog()

	texts := make([]string, len(actions))
	for i := range actions {
		texts[i] = embeddingText(&actions[i])
	}

	logger.Info("Embedding catalog", "actions", len(actions), "model", embeddingService.GetModel())
	vectors, err := embeddingService.GenerateBatchEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed catalog: %w", err)
	}

	for i := range actions {
		actions[i].Embedding = vectors[i]
		if err := postgres.InsertAction(ctx, &actions[i]); err != nil {
			return fmt.Errorf("failed to insert %s: %w", actions[i].ID, err)
		}
		if err := index.Upsert(ctx, &actions[i]); err != nil {
			return fmt.Errorf("failed to index %s: %w", actions[i].ID, err)
		}
		logger.Info("Seeded action", "id", actions[i].ID, "category", actions[i].Category)
	}

	logger.Info("Catalog seeded", "actions", len(actions))
	return nil
}

// embeddingText is the text an action is indexed under. It mirrors the
// shape of the query string so catalog and query vectors live in a
// comparable region of the embedding space.
func embeddingText(a *types.Action) string {
	parts := []string{
		a.Title,
		strings.Join(a.Steps, " "),
		"category:" + a.Category,
		strings.Join(a.Tags, " "),
		a.Why,
	}
	return strings.Join(parts, "\n")
}
