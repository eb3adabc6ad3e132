package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port string `envconfig:"PORT" default:"5000"`
	Env  string `envconfig:"ENV" default:"development"`

	DatabaseURL string `envconfig:"DB_URL" required:"true"`
	RedisURL    string `envconfig:"REDIS_URL"`

	JWTSecret   string        `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer   string        `envconfig:"JWT_ISSUER" default:"bookmate"`
	JWTLifetime time.Duration `envconfig:"JWT_LIFETIME" default:"24h"`

	// Asynq worker settings. Queues uses asynq's CSV weight syntax,
	// e.g. "chat=3,default=1".
	QueueConcurrency int    `envconfig:"QUEUE_CONCURRENCY" default:"10"`
	QueueWeights     string `envconfig:"QUEUE_WEIGHTS" default:"chat=2,default=1"`

	ProfileCacheTTL time.Duration `envconfig:"PROFILE_CACHE_TTL" default:"5m"`
}

// Load reads configuration from the environment. A .env file is loaded first
// when present (development convenience; missing file is not an error).
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
