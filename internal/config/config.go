// Package config loads server and client settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is the development signing key. Production refuses it.
const DefaultJWTSecret = "seams-dev-secret-change-me"

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr       string
	CORSOrigin string
}

// DBConfig holds database configuration.
type DBConfig struct {
	Path string
}

// JWTConfig holds token signing configuration.
type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string
}

// EstateConfig holds estate housekeeping settings.
type EstateConfig struct {
	ExpiryWindowDays int
	SyncInterval     time.Duration
}

// ClientConfig holds settings for the API client and pollers.
type ClientConfig struct {
	APIURL       string
	PollInterval time.Duration
	PollJitter   time.Duration
	RPS          float64
}

// Config holds all configuration.
type Config struct {
	Env    string
	Server ServerConfig
	DB     DBConfig
	JWT    JWTConfig
	Log    LogConfig
	Estate EstateConfig
	Client ClientConfig
}

// Load reads configuration from the environment, after loading .env if present.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Addr:       getEnv("SEAMS_ADDR", ":8080"),
			CORSOrigin: getEnv("CORS_ORIGIN", "*"),
		},
		DB: DBConfig{
			Path: getEnv("DB_PATH", "./data/seams.db"),
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", DefaultJWTSecret),
			TokenTTL: getEnvAsDuration("TOKEN_TTL", 24*time.Hour),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Estate: EstateConfig{
			ExpiryWindowDays: getEnvAsInt("EXPIRY_WINDOW_DAYS", 30),
			SyncInterval:     getEnvAsDuration("SYNC_INTERVAL", time.Hour),
		},
		Client: ClientConfig{
			APIURL:       strings.TrimRight(getEnv("SEAMS_API_URL", "http://localhost:8080"), "/"),
			PollInterval: getEnvAsDuration("POLL_INTERVAL", 30*time.Second),
			PollJitter:   getEnvAsDuration("POLL_JITTER", 5*time.Second),
			RPS:          getEnvAsFloat("CLIENT_RPS", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() && (c.JWT.Secret == "" || c.JWT.Secret == DefaultJWTSecret) {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.JWT.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.JWT.TokenTTL))
	}
	if c.Estate.SyncInterval <= 0 {
		errs = append(errs, fmt.Errorf("SYNC_INTERVAL must be positive, got %s", c.Estate.SyncInterval))
	}
	if c.Client.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.Client.PollInterval))
	}
	if c.Client.PollJitter < 0 {
		errs = append(errs, fmt.Errorf("POLL_JITTER must not be negative, got %s", c.Client.PollJitter))
	}
	if c.Client.RPS <= 0 {
		errs = append(errs, fmt.Errorf("CLIENT_RPS must be positive, got %v", c.Client.RPS))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
