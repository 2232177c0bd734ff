package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"steammatch/internal/lifecycle"
	"steammatch/internal/matching"
)

// Config holds the full process configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Security  SecurityConfig
	Directory DirectoryConfig
	Lifecycle LifecycleConfig
	Matching  MatchingConfig
	Logging   LoggingConfig
}

// ServerConfig is the status/control HTTP server.
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig is the Postgres connection backing internal/repository.
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// SecurityConfig holds the secrets used to protect the stored Steam web
// API key and the control surface.
type SecurityConfig struct {
	JWTSecret      string
	EncryptionKey  string
	SessionTimeout int
}

// DirectoryConfig configures the steam-trade-matcher directory client
// (§3, §6).
type DirectoryConfig struct {
	BaseURL                  string
	LoadBalancingDelaySeconds int
}

// LifecycleConfig loads the §4.3-§4.4 TTL/period values from the
// environment. internal/lifecycle does not read it: Controller and
// Trigger use that package's own constants.
type LifecycleConfig struct {
	MinAnnouncementCheckTTL time.Duration
	MinHeartbeatTTL         time.Duration
	MinPersonaStateTTL      time.Duration
	MinItemsCount           int
	TriggerPeriod           time.Duration
}

// MatchingConfig carries the preference flags and C5 round-loop
// constants (§4.5).
type MatchingConfig struct {
	MatchActively       bool
	MatchEverything     bool
	MaxMatchingRounds   int
	MaxTradesPerAccount int
	MaxItemsPerTrade    int
	InterRoundSleep     time.Duration
}

// LoggingConfig configures the zap logger (§10.1).
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment, falling back to the
// spec's defaults for anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "steammatch"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Security: SecurityConfig{
			JWTSecret:      getEnv("JWT_SECRET", "change-me-in-production"),
			EncryptionKey:  getEnv("ENCRYPTION_KEY", ""),
			SessionTimeout: getEnvAsInt("SESSION_TIMEOUT", 3600),
		},
		Directory: DirectoryConfig{
			BaseURL:                   getEnv("DIRECTORY_BASE_URL", "https://rest.tf2outpost.com"),
			LoadBalancingDelaySeconds: getEnvAsInt("LOAD_BALANCING_DELAY_SECONDS", 2),
		},
		Lifecycle: LifecycleConfig{
			MinAnnouncementCheckTTL: getEnvAsDuration("MIN_ANNOUNCEMENT_CHECK_TTL", lifecycle.MinAnnouncementCheckTTL),
			MinHeartbeatTTL:         getEnvAsDuration("MIN_HEARTBEAT_TTL", lifecycle.MinHeartbeatTTL),
			MinPersonaStateTTL:      getEnvAsDuration("MIN_PERSONA_STATE_TTL", lifecycle.MinPersonaStateTTL),
			MinItemsCount:           getEnvAsInt("MIN_ITEMS_COUNT", lifecycle.MinItemsCount),
			TriggerPeriod:           getEnvAsDuration("TRIGGER_PERIOD", lifecycle.TriggerPeriod),
		},
		Matching: MatchingConfig{
			MatchActively:       getEnvAsBool("MATCH_ACTIVELY", true),
			MatchEverything:     getEnvAsBool("MATCH_EVERYTHING", false),
			MaxMatchingRounds:   getEnvAsInt("MAX_MATCHING_ROUNDS", matching.MaxMatchingRounds),
			MaxTradesPerAccount: getEnvAsInt("MAX_TRADES_PER_ACCOUNT", 3),
			MaxItemsPerTrade:    getEnvAsInt("MAX_ITEMS_PER_TRADE", 40),
			InterRoundSleep:     getEnvAsDuration("INTER_ROUND_SLEEP", matching.InterRoundSleep),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if cfg.Security.EncryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required for encrypting the stored Steam web API key")
	}

	if len(cfg.Security.EncryptionKey) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	return cfg, nil
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
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
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
		return defaultValue
	}
	return value
}
