package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"heartpet-recommender/internal/config"
	"heartpet-recommender/internal/logging"
	"heartpet-recommender/internal/types"
)

const (
	defaultCollection = "action_vectors"
	vectorSize        = 1536 // OpenAI embedding size
)

// QdrantIndex implements VectorIndex backed by a Qdrant collection.
type QdrantIndex struct {
	client         *qdrant.Client
	config         *config.QdrantConfig
	collectionName string
}

// NewQdrantIndex creates an index client. Initialize must be called
// before any other method.
func NewQdrantIndex(cfg *config.QdrantConfig) *QdrantIndex {
	collectionName := cfg.Collection
	if collectionName == "" {
		collectionName = defaultCollection
	}
	return &QdrantIndex{
		config:         cfg,
		collectionName: collectionName,
	}
}

// Initialize connects to Qdrant and creates the collection if it does
// not already exist.
func (qi *QdrantIndex) Initialize(ctx context.Context) error {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   qi.config.Host,
		Port:   qi.config.Port,
		APIKey: qi.config.APIKey,
		UseTLS: qi.config.UseTLS,
	})
	if err != nil {
		return fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	qi.client = client

	collections, err := qi.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	exists := false
	for _, name := range collections {
		if name == qi.collectionName {
			exists = true
			break
		}
	}

	if !exists {
		err = qi.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: qi.collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		logging.Info("Created Qdrant collection", "collection", qi.collectionName)
	}

	logging.Info("Qdrant index initialized", "collection", qi.collectionName, "host", qi.config.Host)
	return nil
}

// Search queries the collection for the nearest neighbors of vector.
// Connectivity and server failures come back as *IndexUnavailableError
// so the caller can fall back to local search; an empty answer is a
// valid result, not a failure.
func (qi *QdrantIndex) Search(ctx context.Context, vector []float64, limit int) ([]types.SearchHit, error) {
	if qi.client == nil {
		return nil, &IndexUnavailableError{Op: "search", Cause: fmt.Errorf("index not initialized")}
	}
	if limit <= 0 {
		return nil, fmt.Errorf("search limit must be positive, got %d", limit)
	}

	timeoutCtx, cancel := qi.withTimeout(ctx)
	defer cancel()

	result, err := qi.client.Query(timeoutCtx, &qdrant.QueryPoints{
		CollectionName: qi.collectionName,
		Query:          qdrant.NewQuery(float64ToFloat32(vector)...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, &IndexUnavailableError{Op: "search", Cause: err}
	}

	hits := make([]types.SearchHit, 0, len(result))
	for _, point := range result {
		hits = append(hits, types.SearchHit{
			ActionID: pointIDToString(point.GetId()),
			Category: getPayloadString(point.GetPayload(), "category"),
			Score:    float64(point.GetScore()),
		})
	}
	return hits, nil
}

// Upsert writes the action's embedding with its category and title as
// payload. Used by seeding, not on the request path.
func (qi *QdrantIndex) Upsert(ctx context.Context, action *types.Action) error {
	if qi.client == nil {
		return &IndexUnavailableError{Op: "upsert", Cause: fmt.Errorf("index not initialized")}
	}
	if !action.HasValidEmbedding(vectorSize) {
		return fmt.Errorf("action %s has no %d-dimensional embedding", action.ID, vectorSize)
	}

	timeoutCtx, cancel := qi.withTimeout(ctx)
	defer cancel()

	point := &qdrant.PointStruct{
		Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: action.ID}},
		Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: float64ToFloat32(action.Embedding)}}},
		Payload: map[string]*qdrant.Value{
			"category": stringValue(action.Category),
			"title":    stringValue(action.Title),
		},
	}

	_, err := qi.client.Upsert(timeoutCtx, &qdrant.UpsertPoints{
		CollectionName: qi.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return &IndexUnavailableError{Op: "upsert", Cause: err}
	}
	return nil
}

// HealthCheck verifies the collection is reachable.
func (qi *QdrantIndex) HealthCheck(ctx context.Context) error {
	if qi.client == nil {
		return fmt.Errorf("qdrant client not initialized")
	}

	timeoutCtx, cancel := qi.withTimeout(ctx)
	defer cancel()

	if _, err := qi.client.ListCollections(timeoutCtx); err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}

// Close releases the client connection.
func (qi *QdrantIndex) Close() error {
	if qi.client != nil {
		// Qdrant Go client has no explicit close; the connection is
		// released when the client is garbage collected.
		logging.Info("Qdrant connection closed")
	}
	return nil
}

func (qi *QdrantIndex) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(qi.config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func stringValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

func getPayloadString(payload map[string]*qdrant.Value, key string) string {
	if value, ok := payload[key]; ok {
		return value.GetStringValue()
	}
	return ""
}

func pointIDToString(id *qdrant.PointId) string {
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return fmt.Sprintf("%d", id.GetNum())
}

func float64ToFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
