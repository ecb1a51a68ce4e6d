package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	LedgerDynamoDB = "dynamodb"
	LedgerRedis    = "redis"
	LedgerPostgres = "postgres"
	LedgerMemory   = "memory"

	StorageS3    = "s3"
	StorageLocal = "local"
)

type Config struct {
	Server    ServerConfig
	App       AppConfig
	Inference InferenceConfig
	Ledger    LedgerConfig
	Storage   StorageConfig
	Events    EventsConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

// InferenceConfig holds the chat completions endpoint settings. APIKey is
// not validated here; a missing key only fails generation attempts.
type InferenceConfig struct {
	APIKey  string
	URL     string
	Model   string
	Timeout time.Duration
}

type LedgerConfig struct {
	Backend       string
	DynamoDBTable string
	SQLTable      string
	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

type StorageConfig struct {
	Backend    string
	Bucket     string
	LocalDir   string
	PublicURL  string
	SigningKey string
}

type EventsConfig struct {
	NatsURL string
	Subject string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Inference: InferenceConfig{
			APIKey:  os.Getenv("GROQ_API_KEY"),
			URL:     getEnv("GROQ_API_URL", "https://api.groq.com/openai/v1/chat/completions"),
			Model:   getEnv("GROQ_MODEL", "llama3-8b-8192"),
			Timeout: getEnvAsDuration("INFERENCE_TIMEOUT", 60*time.Second),
		},
		Ledger: LedgerConfig{
			Backend:       getEnv("LEDGER_BACKEND", LedgerDynamoDB),
			DynamoDBTable: getEnv("DYNAMODB_TABLE", "SkillNavigatorUsers"),
			SQLTable:      getEnv("LEDGER_TABLE", "user_credits"),
			DSN:           os.Getenv("DB_DSN"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			RedisPrefix:   getEnv("REDIS_KEY_PREFIX", "skillnav:"),
		},
		Storage: StorageConfig{
			Backend:    getEnv("STORAGE_BACKEND", StorageS3),
			Bucket:     getEnv("S3_BUCKET_NAME", "skill-navigator-roadmaps"),
			LocalDir:   getEnv("LOCAL_STORAGE_DIR", "out/artifacts"),
			PublicURL:  getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
			SigningKey: os.Getenv("ARTIFACT_SIGNING_KEY"),
		},
		Events: EventsConfig{
			NatsURL: os.Getenv("NATS_URL"),
			Subject: getEnv("EVENTS_SUBJECT", "roadmap.settled"),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat("RATE_LIMIT_RPS", 0),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 5),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Ledger.Backend {
	case LedgerDynamoDB:
		if c.Ledger.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb ledger")
		}
	case LedgerRedis:
		if c.Ledger.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis ledger")
		}
	case LedgerPostgres:
		if c.Ledger.DSN == "" {
			return fmt.Errorf("DB_DSN is required for the postgres ledger")
		}
		if c.Ledger.SQLTable == "" {
			return fmt.Errorf("LEDGER_TABLE is required for the postgres ledger")
		}
	case LedgerMemory:
	default:
		return fmt.Errorf("invalid LEDGER_BACKEND %q, must be one of dynamodb, redis, postgres, memory", c.Ledger.Backend)
	}

	switch c.Storage.Backend {
	case StorageS3:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("S3_BUCKET_NAME is required for the s3 store")
		}
	case StorageLocal:
		if c.Storage.LocalDir == "" || c.Storage.PublicURL == "" {
			return fmt.Errorf("LOCAL_STORAGE_DIR and PUBLIC_BASE_URL are required for the local store")
		}
		if len(c.Storage.SigningKey) < 16 {
			return fmt.Errorf("ARTIFACT_SIGNING_KEY must be at least 16 characters for the local store")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q, must be s3 or local", c.Storage.Backend)
	}

	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled")
	}

	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.App.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "default", defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		slog.Warn("invalid number in environment, using default", "key", key, "default", defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "default", defaultValue)
		return defaultValue
	}

	return value
}
