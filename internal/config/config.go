package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the LaunchPage server.
type Config struct {
	DBPath           string
	ServerPort       int
	LogLevel         string
	BaseURL          string
	Domain           string
	ShortenerTimeout time.Duration
	SentryDSN        string
	Environment      string
	RateLimit        RateLimitConfig
	ShutdownGrace    time.Duration
}

// RateLimitConfig controls the deploy-endpoint rate limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

const (
	defaultDBPath           = "./data/launchpage.db"
	defaultServerPort       = 8080
	defaultLogLevel         = "info"
	defaultEnvironment      = "development"
	defaultBaseURL          = "http://localhost:8080"
	defaultDomain           = "localhost:8080"
	defaultShortenerTimeout = 5 * time.Second
	defaultRateLimitRPS     = 1.0
	defaultRateLimitBurst   = 5
	defaultRateLimitTTL     = 10 * time.Minute
	defaultShutdownGrace    = 10 * time.Second
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:      getEnv("DB_PATH", defaultDBPath),
		LogLevel:    getEnv("LOG_LEVEL", defaultLogLevel),
		BaseURL:     getEnv("BASE_URL", defaultBaseURL),
		Domain:      getEnv("DOMAIN", defaultDomain),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
		Environment: getEnv("ENV", defaultEnvironment),
		RateLimit: RateLimitConfig{
			RequestsPerSecond: defaultRateLimitRPS,
			Burst:             defaultRateLimitBurst,
			ClientTTL:         defaultRateLimitTTL,
		},
		ShortenerTimeout: defaultShortenerTimeout,
		ShutdownGrace:    defaultShutdownGrace,
	}

	portValue := getEnv("SERVER_PORT", strconv.Itoa(defaultServerPort))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid SERVER_PORT value: %s", portValue)
	}
	cfg.ServerPort = port

	if raw := os.Getenv("SHORTENER_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid SHORTENER_TIMEOUT value: %s", raw)
		}
		cfg.ShortenerTimeout = timeout
	}

	if raw := os.Getenv("RATE_LIMIT_RPS"); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid RATE_LIMIT_RPS value: %s", raw)
		}
		cfg.RateLimit.RequestsPerSecond = rps
	}

	if raw := os.Getenv("RATE_LIMIT_BURST"); raw != "" {
		burst, err := strconv.Atoi(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid RATE_LIMIT_BURST value: %s", raw)
		}
		cfg.RateLimit.Burst = burst
	}

	if raw := os.Getenv("RATE_LIMIT_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid RATE_LIMIT_TTL value: %s", raw)
		}
		cfg.RateLimit.ClientTTL = ttl
	}

	if raw := os.Getenv("SHUTDOWN_GRACE"); raw != "" {
		grace, err := time.ParseDuration(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid SHUTDOWN_GRACE value: %s", raw)
		}
		cfg.ShutdownGrace = grace
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
