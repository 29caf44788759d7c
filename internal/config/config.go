package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Qdrant    QdrantConfig    `json:"qdrant"`
	OpenAI    OpenAIConfig    `json:"openai"`
	Postgres  PostgresConfig  `json:"postgres"`
	Recommend RecommendConfig `json:"recommend"`
	Logging   LoggingConfig   `json:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port         int    `json:"port"`
	Host         string `json:"host"`
	ReadTimeout  int    `json:"read_timeout_seconds"`
	WriteTimeout int    `json:"write_timeout_seconds"`
}

// QdrantConfig represents Qdrant vector database configuration
type QdrantConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	APIKey         string `json:"-"` // Never serialize API key
	UseTLS         bool   `json:"use_tls"`
	Collection     string `json:"collection"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// OpenAIConfig represents OpenAI API configuration
type OpenAIConfig struct {
	APIKey         string  `json:"-"` // Never serialize API key
	EmbeddingModel string  `json:"embedding_model"`
	ChatModel      string  `json:"chat_model"`
	MaxTokens      int     `json:"max_tokens"`
	Temperature    float64 `json:"temperature"`
	RequestTimeout int     `json:"request_timeout_seconds"`
	RateLimitRPM   int     `json:"rate_limit_rpm"`
}

// PostgresConfig represents the relational store configuration
type PostgresConfig struct {
	DSN             string `json:"-"` // May embed credentials
	MaxOpenConns    int    `json:"max_open_conns"`
	MaxIdleConns    int    `json:"max_idle_conns"`
	ConnMaxLifetime int    `json:"conn_max_lifetime_minutes"`
}

// RecommendConfig tunes the retrieval and ranking behavior
type RecommendConfig struct {
	TopK            int  `json:"top_k"`           // candidates fetched from the index
	RecentWindow    int  `json:"recent_window"`   // executions considered for novelty
	ComposeEnabled  bool `json:"compose_enabled"` // generative variant composition
	RateLimitPerMin int  `json:"rate_limit_per_min"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "localhost",
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Qdrant: QdrantConfig{
			Host:           "localhost",
			Port:           6334,
			UseTLS:         false,
			Collection:     "action_vectors",
			TimeoutSeconds: 10,
		},
		OpenAI: OpenAIConfig{
			EmbeddingModel: "text-embedding-3-small",
			ChatModel:      "gpt-4o-mini",
			MaxTokens:      1024,
			Temperature:    0.7,
			RequestTimeout: 30,
			RateLimitRPM:   60,
		},
		Postgres: PostgresConfig{
			DSN:             "postgres://localhost:5432/heartpet?sslmode=disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30,
		},
		Recommend: RecommendConfig{
			TopK:            8,
			RecentWindow:    5,
			ComposeEnabled:  true,
			RateLimitPerMin: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from environment variables and defaults
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := DefaultConfig()
	loadFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func loadFromEnv(config *Config) {
	loadServerConfig(config)
	loadQdrantConfig(config)
	loadOpenAIConfig(config)
	loadPostgresConfig(config)
	loadRecommendConfig(config)
	loadLoggingConfig(config)
}

func loadServerConfig(config *Config) {
	if port := os.Getenv("HEARTPET_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("HEARTPET_HOST"); host != "" {
		config.Server.Host = host
	}
	if readTimeout := os.Getenv("HEARTPET_READ_TIMEOUT_SECONDS"); readTimeout != "" {
		if rt, err := strconv.Atoi(readTimeout); err == nil {
			config.Server.ReadTimeout = rt
		}
	}
	if writeTimeout := os.Getenv("HEARTPET_WRITE_TIMEOUT_SECONDS"); writeTimeout != "" {
		if wt, err := strconv.Atoi(writeTimeout); err == nil {
			config.Server.WriteTimeout = wt
		}
	}
}

func loadQdrantConfig(config *Config) {
	// Check both prefixed and non-prefixed env vars
	if host := os.Getenv("HEARTPET_QDRANT_HOST"); host != "" {
		config.Qdrant.Host = host
	} else if host := os.Getenv("QDRANT_HOST"); host != "" {
		config.Qdrant.Host = host
	}

	if port := os.Getenv("HEARTPET_QDRANT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Qdrant.Port = p
		}
	} else if port := os.Getenv("QDRANT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Qdrant.Port = p
		}
	}

	if apiKey := os.Getenv("HEARTPET_QDRANT_API_KEY"); apiKey != "" {
		config.Qdrant.APIKey = apiKey
	} else if apiKey := os.Getenv("QDRANT_API_KEY"); apiKey != "" {
		config.Qdrant.APIKey = apiKey
	}

	if useTLS := os.Getenv("HEARTPET_QDRANT_USE_TLS"); useTLS != "" {
		if tls, err := strconv.ParseBool(useTLS); err == nil {
			config.Qdrant.UseTLS = tls
		}
	}

	if collection := os.Getenv("HEARTPET_QDRANT_COLLECTION"); collection != "" {
		config.Qdrant.Collection = collection
	}

	if timeoutSeconds := os.Getenv("HEARTPET_QDRANT_TIMEOUT_SECONDS"); timeoutSeconds != "" {
		if ts, err := strconv.Atoi(timeoutSeconds); err == nil {
			config.Qdrant.TimeoutSeconds = ts
		}
	}
}

func loadOpenAIConfig(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}
	if model := os.Getenv("OPENAI_EMBEDDING_MODEL"); model != "" {
		config.OpenAI.EmbeddingModel = model
	}
	if model := os.Getenv("OPENAI_CHAT_MODEL"); model != "" {
		config.OpenAI.ChatModel = model
	}
	if maxTokens := os.Getenv("HEARTPET_OPENAI_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.OpenAI.MaxTokens = mt
		}
	}
	if temperature := os.Getenv("HEARTPET_OPENAI_TEMPERATURE"); temperature != "" {
		if temp, err := strconv.ParseFloat(temperature, 64); err == nil {
			config.OpenAI.Temperature = temp
		}
	}
	if requestTimeout := os.Getenv("HEARTPET_OPENAI_REQUEST_TIMEOUT_SECONDS"); requestTimeout != "" {
		if rt, err := strconv.Atoi(requestTimeout); err == nil {
			config.OpenAI.RequestTimeout = rt
		}
	}
	if rateLimitRPM := os.Getenv("HEARTPET_OPENAI_RATE_LIMIT_RPM"); rateLimitRPM != "" {
		if rl, err := strconv.Atoi(rateLimitRPM); err == nil {
			config.OpenAI.RateLimitRPM = rl
		}
	}
}

func loadPostgresConfig(config *Config) {
	if dsn := os.Getenv("HEARTPET_DATABASE_URL"); dsn != "" {
		config.Postgres.DSN = dsn
	} else if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		config.Postgres.DSN = dsn
	}
	if maxOpen := os.Getenv("HEARTPET_DB_MAX_OPEN_CONNS"); maxOpen != "" {
		if mo, err := strconv.Atoi(maxOpen); err == nil {
			config.Postgres.MaxOpenConns = mo
		}
	}
	if maxIdle := os.Getenv("HEARTPET_DB_MAX_IDLE_CONNS"); maxIdle != "" {
		if mi, err := strconv.Atoi(maxIdle); err == nil {
			config.Postgres.MaxIdleConns = mi
		}
	}
}

func loadRecommendConfig(config *Config) {
	if topK := os.Getenv("HEARTPET_RECOMMEND_TOP_K"); topK != "" {
		if k, err := strconv.Atoi(topK); err == nil {
			config.Recommend.TopK = k
		}
	}
	if window := os.Getenv("HEARTPET_RECOMMEND_RECENT_WINDOW"); window != "" {
		if w, err := strconv.Atoi(window); err == nil {
			config.Recommend.RecentWindow = w
		}
	}
	if compose := os.Getenv("HEARTPET_COMPOSE_ENABLED"); compose != "" {
		if ce, err := strconv.ParseBool(compose); err == nil {
			config.Recommend.ComposeEnabled = ce
		}
	}
	if limit := os.Getenv("HEARTPET_RATE_LIMIT_PER_MIN"); limit != "" {
		if rl, err := strconv.Atoi(limit); err == nil {
			config.Recommend.RateLimitPerMin = rl
		}
	}
}

func loadLoggingConfig(config *Config) {
	if level := os.Getenv("HEARTPET_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("HEARTPET_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}

	if c.Qdrant.Host == "" {
		return fmt.Errorf("qdrant host cannot be empty")
	}
	if c.Qdrant.Port <= 0 {
		return fmt.Errorf("qdrant port must be greater than 0")
	}
	if c.Qdrant.Collection == "" {
		return fmt.Errorf("qdrant collection cannot be empty")
	}

	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required")
	}
	if c.OpenAI.EmbeddingModel == "" {
		return fmt.Errorf("OpenAI embedding model cannot be empty")
	}

	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres DSN cannot be empty")
	}

	if c.Recommend.TopK <= 0 {
		return fmt.Errorf("recommend top_k must be positive")
	}
	if c.Recommend.RecentWindow <= 0 {
		return fmt.Errorf("recommend recent_window must be positive")
	}

	return nil
}
