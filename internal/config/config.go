package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	Postgres  PostgresConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Broker    BrokerConfig
	Apify     ApifyConfig
	LLM       LLMConfig
	Retention RetentionConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// PostgresConfig holds the relational store connection settings.
type PostgresConfig struct {
	URL string
}

// MongoConfig holds the content store connection settings.
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig holds the activity/cache store settings. An empty Addr disables
// Redis-backed features.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// BrokerConfig holds the optional AMQP task dispatch settings. An empty URL
// keeps task execution in-process.
type BrokerConfig struct {
	URL string
}

// ApifyConfig holds the scraping platform credentials. An empty Token leaves
// collection tasks unable to reach the platform; they fail at run time with a
// descriptive error rather than at startup.
type ApifyConfig struct {
	Token string
}

// LLMConfig holds API keys and model selection for content analysis and
// embeddings. Empty keys switch the analyzers to their rule-based fallbacks.
type LLMConfig struct {
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	EmbeddingModel  string
}

// RetentionConfig controls sweeping of terminal task records. A zero MaxAge
// disables the sweep, preserving records for the process lifetime.
type RetentionConfig struct {
	MaxAge        time.Duration
	SweepInterval time.Duration
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultLogFormat = "json"

	defaultMongoDatabase  = "polisight"
	defaultAnthropicModel = "claude-3-5-sonnet-latest"
	defaultEmbeddingModel = "text-embedding-3-small"

	defaultSweepInterval = 1 * time.Hour
)

// Load reads configuration from environment variables, applying defaults when
// values are not provided or invalid.
func Load() (Config, error) {
	// Cloud platforms set PORT; allow SERVER_PORT override for local dev.
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Mongo: MongoConfig{
			URI:      os.Getenv("MONGO_URI"),
			Database: getEnv("MONGO_DATABASE", defaultMongoDatabase),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Broker: BrokerConfig{
			URL: os.Getenv("AMQP_URL"),
		},
		Apify: ApifyConfig{
			Token: os.Getenv("APIFY_TOKEN"),
		},
		LLM: LLMConfig{
			AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
			AnthropicModel:  getEnv("ANTHROPIC_MODEL", defaultAnthropicModel),
			OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
			EmbeddingModel:  getEnv("OPENAI_EMBEDDING_MODEL", defaultEmbeddingModel),
		},
		Retention: RetentionConfig{
			SweepInterval: defaultSweepInterval,
		},
	}

	if v := os.Getenv("SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil || db < 0 {
			return Config{}, fmt.Errorf("invalid REDIS_DB: must be a non-negative integer")
		}
		cfg.Redis.DB = db
	}

	if v := os.Getenv("TASK_RETENTION_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours < 0 {
			return Config{}, fmt.Errorf("invalid TASK_RETENTION_HOURS: must be a non-negative integer")
		}
		cfg.Retention.MaxAge = time.Duration(hours) * time.Hour
	}

	if v := os.Getenv("TASK_SWEEP_INTERVAL_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TASK_SWEEP_INTERVAL_SECONDS: %w", err)
		}
		cfg.Retention.SweepInterval = d
	}

	return cfg, nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
