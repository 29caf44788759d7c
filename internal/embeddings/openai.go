package embeddings

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"heartpet-recommender/internal/config"
)

// OpenAIService implements Service using OpenAI's embeddings API.
// Results are cached by content hash so repeated queries and catalog
// texts do not burn quota.
type OpenAIService struct {
	client      *openai.Client
	config      *config.OpenAIConfig
	cache       map[string][]float64
	cacheMu     sync.RWMutex
	rateLimiter *RateLimiter
}

const maxCacheEntries = 1000

// NewOpenAIService creates a new OpenAI embedding service.
func NewOpenAIService(cfg *config.OpenAIConfig) *OpenAIService {
	client := openai.NewClient(cfg.APIKey)

	rpm := cfg.RateLimitRPM
	if rpm <= 0 {
		rpm = 60
	}

	return &OpenAIService{
		client:      client,
		config:      cfg,
		cache:       make(map[string][]float64),
		rateLimiter: NewRateLimiter(rpm, time.Minute/time.Duration(rpm)),
	}
}

// GenerateEmbedding embeds a single text. A failed call returns an
// error; it never returns a zero or truncated vector.
func (s *OpenAIService) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, errors.New("text cannot be empty")
	}

	cacheKey := s.cacheKey(text)
	if cached := s.fromCache(cacheKey); cached != nil {
		return cached, nil
	}

	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(s.config.RequestTimeout)*time.Second)
	defer cancel()

	resp, err := s.client.CreateEmbeddings(timeoutCtx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(s.config.EmbeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embeddings returned")
	}

	embedding := float32sTo64(resp.Data[0].Embedding)
	if len(embedding) != s.GetDimension() {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(embedding), s.GetDimension())
	}

	s.putInCache(cacheKey, embedding)
	return embedding, nil
}

// GenerateBatchEmbeddings embeds multiple texts, serving cached entries
// without an API call.
func (s *OpenAIService) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, errors.New("texts cannot be empty")
	}

	results := make([][]float64, len(texts))
	uncachedTexts := []string{}
	uncachedIndices := []int{}

	for i, text := range texts {
		if text == "" {
			continue
		}
		if cached := s.fromCache(s.cacheKey(text)); cached != nil {
			results[i] = cached
		} else {
			uncachedTexts = append(uncachedTexts, text)
			uncachedIndices = append(uncachedIndices, i)
		}
	}

	if len(uncachedTexts) == 0 {
		return results, nil
	}

	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(s.config.RequestTimeout)*time.Second)
	defer cancel()

	resp, err := s.client.CreateEmbeddings(timeoutCtx, openai.EmbeddingRequest{
		Input: uncachedTexts,
		Model: openai.EmbeddingModel(s.config.EmbeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create batch embeddings: %w", err)
	}
	if len(resp.Data) != len(uncachedTexts) {
		return nil, fmt.Errorf("mismatch between input texts (%d) and embeddings (%d)", len(uncachedTexts), len(resp.Data))
	}

	for i, data := range resp.Data {
		embedding := float32sTo64(data.Embedding)
		results[uncachedIndices[i]] = embedding
		s.putInCache(s.cacheKey(uncachedTexts[i]), embedding)
	}

	return results, nil
}

// GetDimension returns the dimension of embeddings produced by the
// configured model.
func (s *OpenAIService) GetDimension() int {
	switch s.config.EmbeddingModel {
	case "text-embedding-3-large":
		return 3072
	default:
		// ada-002 and 3-small both produce 1536-dimensional vectors
		return 1536
	}
}

// GetModel returns the model name.
func (s *OpenAIService) GetModel() string {
	return s.config.EmbeddingModel
}

// HealthCheck verifies the service is working.
func (s *OpenAIService) HealthCheck(ctx context.Context) error {
	_, err := s.GenerateEmbedding(ctx, "health check")
	return err
}

func (s *OpenAIService) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(s.config.EmbeddingModel + "|" + text))
	return fmt.Sprintf("%x", hash)
}

func (s *OpenAIService) fromCache(key string) []float64 {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()

	if embedding, exists := s.cache[key]; exists {
		result := make([]float64, len(embedding))
		copy(result, embedding)
		return result
	}
	return nil
}

func (s *OpenAIService) putInCache(key string, embedding []float64) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if len(s.cache) >= maxCacheEntries {
		// Drop an arbitrary quarter of the cache rather than track LRU
		count := 0
		for k := range s.cache {
			delete(s.cache, k)
			count++
			if count >= maxCacheEntries/4 {
				break
			}
		}
	}

	cached := make([]float64, len(embedding))
	copy(cached, embedding)
	s.cache[key] = cached
}

func float32sTo64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
