package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ulule/limiter/v3"
)

// RateLimitOff disables rate limiting when used as RATE_LIMIT
const RateLimitOff = "off"

// Config holds application configuration
type Config struct {
	ServerPort         string
	ServerDebugMode    bool
	EnableHSTS         bool
	CORSAllowedOrigins []string
	RateLimit          string
	RedisURL           string
	RabbitMQURL        string
	OTELEnabled        bool
	OTELEndpoint       string
	SeedDemoData       bool
	RequestTimeoutSecs int

	// Event worker settings
	WorkerDebugMode  bool
	RabbitMQPrefetch int
	EventsQueueName  string // empty means an exclusive server-named queue
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:         getEnv("SERVER_PORT", "4000"),
		ServerDebugMode:    getEnvBool("SERVER_DEBUG_MODE", false),
		EnableHSTS:         getEnvBool("ENABLE_HSTS", false),
		CORSAllowedOrigins: ParseOrigins(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RateLimit:          getEnv("RATE_LIMIT", "50-S"),
		RedisURL:           getEnv("REDIS_URL", ""),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		OTELEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		SeedDemoData:       getEnvBool("SEED_DEMO_DATA", true),
		RequestTimeoutSecs: getEnvInt("REQUEST_TIMEOUT_SECONDS", 30),
		WorkerDebugMode:    getEnvBool("WORKER_DEBUG_MODE", false),
		RabbitMQPrefetch:   getEnvInt("RABBITMQ_PREFETCH", 10),
		EventsQueueName:    getEnv("EVENTS_QUEUE_NAME", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail at server start
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.ServerPort)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("SERVER_PORT must be a port number, got %q", c.ServerPort)
	}

	if c.RateLimitEnabled() {
		if _, err := limiter.NewRateFromFormatted(c.RateLimit); err != nil {
			return fmt.Errorf("RATE_LIMIT %q is invalid (e.g. 5-S, 100-M): %w", c.RateLimit, err)
		}
	}

	if c.RequestTimeoutSecs <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive, got %d", c.RequestTimeoutSecs)
	}

	if c.RabbitMQPrefetch <= 0 {
		return fmt.Errorf("RABBITMQ_PREFETCH must be positive, got %d", c.RabbitMQPrefetch)
	}

	return nil
}

// RateLimitEnabled reports whether a rate limit is configured
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimit != "" && !strings.EqualFold(c.RateLimit, RateLimitOff)
}

// ParseOrigins splits a comma-separated origin list, dropping blanks and duplicates
func ParseOrigins(value string) []string {
	var origins []string
	seen := make(map[string]bool)
	for _, origin := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		origins = append(origins, trimmed)
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
