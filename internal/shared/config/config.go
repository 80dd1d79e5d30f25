package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds application configuration.
type Config struct {
	Port            string    `env:"PORT" envDefault:"8080"`
	Env             string    `env:"ENV" envDefault:"dev"`
	LogLevel        string    `env:"LOG_LEVEL" envDefault:"info"`
	CORSAllowOrigin []string  `env:"CORS_ALLOW_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	DatabaseURL     string    `env:"DATABASE_URL"`
	RedisURL        string    `env:"REDIS_URL"`
	ObjectStoreType string    `env:"OBJECT_STORE" envDefault:"local" validate:"oneof=local s3 none"`
	LocalStoreDir   string    `env:"LOCAL_STORE_DIR" envDefault:"./data"`
	AWSRegion       string    `env:"AWS_REGION"`
	S3Bucket        string    `env:"S3_BUCKET" validate:"required_if=ObjectStoreType s3"`
	S3Prefix        string    `env:"S3_PREFIX" envDefault:"imports/"`
	SSEKMSKeyID     string    `env:"SSE_KMS_KEY_ID"`
	SeedFile        string    `env:"SEED_SUBMISSIONS_FILE"`
	Import          Import    `envPrefix:"IMPORT_"`
	RateLimit       RateLimit `envPrefix:"RATE_LIMIT_"`
}

// RateLimit holds per-client token bucket settings. A zero rate disables the group.
type RateLimit struct {
	ReadRPS    float64 `env:"READ_RPS" envDefault:"20" validate:"gte=0"`
	ReadBurst  int     `env:"READ_BURST" envDefault:"40" validate:"gte=0"`
	WriteRPS   float64 `env:"WRITE_RPS" envDefault:"1" validate:"gte=0"`
	WriteBurst int     `env:"WRITE_BURST" envDefault:"5" validate:"gte=0"`
}

// Import tunes the bulk import pipeline.
type Import struct {
	LookupTimeout      time.Duration `env:"LOOKUP_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	StorageTimeout     time.Duration `env:"STORAGE_TIMEOUT" envDefault:"5s" validate:"gt=0"`
	MaxUploadBytes     int64         `env:"MAX_UPLOAD_BYTES" envDefault:"20971520" validate:"gt=0"`
	BatchTTL           time.Duration `env:"BATCH_TTL" envDefault:"1h" validate:"gt=0"`
	DeployConcurrency  int           `env:"DEPLOY_CONCURRENCY" envDefault:"4" validate:"gte=1,lte=64"`
	MaxDisplayedErrors int           `env:"MAX_DISPLAYED_ERRORS" envDefault:"5" validate:"gte=1"`
	LockTTL            time.Duration `env:"LOCK_TTL" envDefault:"30s" validate:"gt=0"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.ObjectStoreType = normalizeStoreType(cfg.ObjectStoreType)
	cfg.CORSAllowOrigin = trimAll(cfg.CORSAllowOrigin)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.Env == "production" && cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	return cfg, nil
}

// Defaults returns the configuration produced by an empty environment. It
// panics if a default tag does not parse.
func Defaults() Config {
	var cfg Config
	if err := parseEmpty(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

func parseEmpty(v any) error {
	return env.ParseWithOptions(v, env.Options{Environment: map[string]string{}})
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func trimAll(in []string) []string {
	var out []string
	for _, p := range in {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "none", "off":
		return "none"
	default:
		return "local"
	}
}
