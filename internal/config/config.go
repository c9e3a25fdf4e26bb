package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Rule store backends
const (
	RuleStoreMemory = "memory"
	RuleStoreRedis  = "redis"
)

// Config holds all configuration for the application
type Config struct {
	// Common
	Environment string
	LogLevel    string

	Engine   EngineConfig
	Redis    RedisConfig
	Database DatabaseConfig
	API      APIConfig
}

// EngineConfig holds inference engine configuration
type EngineConfig struct {
	// MaxSteps caps rule firings per inference run
	MaxSteps int

	// RuleFile optionally points at a JSON rule file; empty means the
	// built-in rule library
	RuleFile string

	// RuleStoreType is "memory" or "redis"
	RuleStoreType string

	// RuleReloadInterval is how often evaluation rebuilds its rule
	// snapshot from the store
	RuleReloadInterval time.Duration

	// BatchWorkers is the concurrency for batch evaluation
	BatchWorkers int

	// Thresholds holds fact threshold overrides from the environment;
	// keys absent here fall back to the built-in defaults
	Thresholds map[string]float64
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// DatabaseConfig holds Postgres configuration for the result audit log
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// EnableAudit controls whether inference results are persisted
	EnableAudit bool
}

// ConnString returns a lib/pq connection string
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
}

// APIConfig holds REST API configuration
type APIConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RateLimitRPS int
}

// Load loads configuration from environment variables, reading a .env
// file first if one exists
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Engine: EngineConfig{
			MaxSteps:           getEnvAsInt("ENGINE_MAX_STEPS", 256),
			RuleFile:           getEnv("ENGINE_RULE_FILE", ""),
			RuleStoreType:      getEnv("ENGINE_RULE_STORE_TYPE", RuleStoreMemory),
			RuleReloadInterval: getEnvAsDuration("ENGINE_RULE_RELOAD_INTERVAL", 30*time.Second),
			BatchWorkers:       getEnvAsInt("ENGINE_BATCH_WORKERS", 8),
			Thresholds:         loadThresholdOverrides(),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 10),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvAsInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Database:    getEnv("DB_NAME", "trading_kb"),
			SSLMode:     getEnv("DB_SSL_MODE", "disable"),
			EnableAudit: getEnvAsBool("DB_ENABLE_AUDIT", false),
		},
		API: APIConfig{
			Port:         getEnvAsInt("API_PORT", 8090),
			ReadTimeout:  getEnvAsDuration("API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("API_WRITE_TIMEOUT", 15*time.Second),
			RateLimitRPS: getEnvAsInt("API_RATE_LIMIT_RPS", 100),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// thresholdEnvVars maps environment variables to fact threshold keys
var thresholdEnvVars = map[string]string{
	"THRESHOLD_RSI_OVERSOLD":    "rsi_oversold",
	"THRESHOLD_RSI_OVERBOUGHT":  "rsi_overbought",
	"THRESHOLD_MACD_EPSILON":    "macd_epsilon",
	"THRESHOLD_MACD_STRONG":     "macd_strong",
	"THRESHOLD_VOLUME_HIGH":     "volume_high",
	"THRESHOLD_VOLUME_SURGE":    "volume_surge",
	"THRESHOLD_VOLATILITY_HIGH": "volatility_high",
	"THRESHOLD_TREND_STRENGTH":  "trend_strength",
}

// loadThresholdOverrides collects only the threshold variables actually
// present in the environment, so unset keys keep their defaults
func loadThresholdOverrides() map[string]float64 {
	overrides := make(map[string]float64)
	for envVar, key := range thresholdEnvVars {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		overrides[key] = parsed
	}
	return overrides
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Engine.MaxSteps <= 0 {
		return fmt.Errorf("ENGINE_MAX_STEPS must be positive")
	}
	switch c.Engine.RuleStoreType {
	case RuleStoreMemory, RuleStoreRedis:
	default:
		return fmt.Errorf("ENGINE_RULE_STORE_TYPE must be %q or %q, got %q",
			RuleStoreMemory, RuleStoreRedis, c.Engine.RuleStoreType)
	}
	if c.Engine.RuleStoreType == RuleStoreRedis && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required with the redis rule store")
	}
	if c.Database.EnableAudit && c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required when DB_ENABLE_AUDIT is set")
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("API_PORT must be a valid port, got %d", c.API.Port)
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
