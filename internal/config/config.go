package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string

	HTTPAddr    string
	DatabaseURL string
	AutoMigrate bool

	JWTSecret string
	JWTIssuer string

	// RabbitMQ
	RabbitURL      string
	RabbitExchange string
	StatsQueue     string

	// Redis & Caching
	RedisURL        string
	CacheTTLDetails time.Duration // event detail
	ProfileStatsTTL time.Duration

	// EventLocation anchors calendar dates and time ranges.
	EventLocation *time.Location

	// Rate Limiting
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration

	LogLevel  string
	LogFormat string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	ShutdownTimeout  time.Duration

	OutboxPollInterval time.Duration
}

func (c *Config) IsDev() bool { return c.AppEnv == "dev" }

// UsesMemoryStore is true only in dev without a DATABASE_URL.
func (c *Config) UsesMemoryStore() bool { return c.IsDev() && c.DatabaseURL == "" }

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8082")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	cfg.AutoMigrate = getEnv("AUTO_MIGRATE", "true") == "true"

	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.JWTIssuer = getEnv("JWT_ISSUER", "")

	cfg.RabbitURL = getEnv("RABBIT_URL", "")
	cfg.RabbitExchange = getEnv("RABBIT_EXCHANGE", "blood.events")
	cfg.StatsQueue = getEnv("STATS_QUEUE", defaultStatsQueue())

	cfg.RedisURL = getEnv("REDIS_URL", "")
	cfg.CacheTTLDetails = getDuration("CACHE_TTL_DETAILS", 30*time.Second)
	cfg.ProfileStatsTTL = getDuration("PROFILE_STATS_TTL", 5*time.Minute)

	// Rate Limiting Defaults: 100 reqs / 1 min
	cfg.RLEnabled = getEnv("RL_ENABLED", "true") == "true"
	cfg.RLLimit = getIntEnv("RL_IP_LIMIT", 100)
	cfg.RLWindow = getDuration("RL_IP_WINDOW", 1*time.Minute)

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "console")

	cfg.HTTPReadTimeout = getDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.HTTPWriteTimeout = getDuration("HTTP_WRITE_TIMEOUT", 20*time.Second)
	cfg.HTTPIdleTimeout = getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)
	cfg.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)

	cfg.OutboxPollInterval = getDuration("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)

	loc, err := loadLocation(getEnv("EVENT_TIMEZONE", ""))
	if err != nil {
		return nil, err
	}
	cfg.EventLocation = loc

	// validation
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing JWT_SECRET")
	}
	if !cfg.IsDev() && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("missing DATABASE_URL (required when APP_ENV != dev)")
	}
	if !cfg.IsDev() && cfg.RabbitURL == "" {
		return nil, fmt.Errorf("missing RABBIT_URL (required when APP_ENV != dev)")
	}
	if cfg.RLLimit <= 0 {
		return nil, fmt.Errorf("RL_IP_LIMIT must be > 0")
	}

	return cfg, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

func defaultStatsQueue() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return "blood-drive-service.stats." + host
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getIntEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
