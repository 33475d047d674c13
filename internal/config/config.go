package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"

	AuthJWT    = "jwt"
	AuthRemote = "remote"
)

type AppConfig struct {
	HTTPAddr     string
	PublicOrigin string

	StoreBackend string
	RedisURL     string
	StorePrefix  string

	DatabaseURL string

	AuthMode    string
	JWTSecret   string
	AuthBaseURL string
	AuthTimeout time.Duration

	LeaderboardLimit int
	MessagesDir      string
}

// Load reads the environment and validates the result.
func Load() (*AppConfig, error) {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads the environment without validating, so callers can apply
// flag overrides first.
func FromEnv() *AppConfig {
	cfg := &AppConfig{
		HTTPAddr:         ":8080",
		StoreBackend:     StoreRedis,
		StorePrefix:      "tapracer:",
		AuthMode:         AuthJWT,
		AuthTimeout:      5 * time.Second,
		LeaderboardLimit: 10,
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.PublicOrigin = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_ORIGIN")), "/")

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND"))); v != "" {
		cfg.StoreBackend = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	if v, ok := os.LookupEnv("STORE_PREFIX"); ok {
		cfg.StorePrefix = strings.TrimSpace(v)
	}
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("AUTH_MODE"))); v != "" {
		cfg.AuthMode = v
	}
	cfg.JWTSecret = strings.TrimSpace(os.Getenv("JWT_SECRET"))
	cfg.AuthBaseURL = strings.TrimSpace(os.Getenv("AUTH_BASE_URL"))
	if v := strings.TrimSpace(os.Getenv("AUTH_TIMEOUT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AuthTimeout = time.Duration(n) * time.Millisecond
		}
	}

	if v := strings.TrimSpace(os.Getenv("LEADERBOARD_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LeaderboardLimit = n
		}
	}
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))
	return cfg
}

// Validate checks the cross-field requirements. It is re-run after CLI
// flags override loaded values.
func (c *AppConfig) Validate() error {
	switch c.StoreBackend {
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when STORE_BACKEND=redis")
		}
	case StoreMemory:
	default:
		return errors.New("STORE_BACKEND must be redis or memory")
	}
	switch c.AuthMode {
	case AuthJWT:
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET is required when AUTH_MODE=jwt")
		}
	case AuthRemote:
		if c.AuthBaseURL == "" {
			return errors.New("AUTH_BASE_URL is required when AUTH_MODE=remote")
		}
	default:
		return errors.New("AUTH_MODE must be jwt or remote")
	}
	return nil
}
