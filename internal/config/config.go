package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/joho/godotenv"
)

// DefaultAPIBaseURL is the endpoint root used when API_BASE_URL is unset
const DefaultAPIBaseURL = "http://localhost:5000/api/calls"

// Config holds all configuration for the application
type Config struct {
	// Client side
	APIBaseURL          string
	RequestTimeout      time.Duration
	ViewMode            types.ViewMode
	Vocabulary          types.Vocabulary
	AutoRefreshInterval time.Duration
	LiveUpdatesURL      string
	LogFile             string

	// Server side
	Port           string
	AllowedOrigins []string
	StoreMode      string
	SQLitePath     string
	DatabaseURL    string
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64

	LogLevel string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		APIBaseURL:     strings.TrimRight(getEnv("API_BASE_URL", DefaultAPIBaseURL), "/"),
		LiveUpdatesURL: getEnv("LIVE_UPDATES_URL", ""),
		LogFile:        getEnv("LOG_FILE", ""),
		Port:           getEnv("PORT", "5000"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		StoreMode:      strings.ToLower(getEnv("STORE_MODE", "memory")),
		SQLitePath:     getEnv("SQLITE_PATH", "calldesk.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if config.ViewMode, err = types.ParseViewMode(getEnv("VIEW_MODE", "edit")); err != nil {
		return nil, fmt.Errorf("invalid VIEW_MODE: %w", err)
	}
	if config.Vocabulary, err = types.ParseVocabulary(getEnv("STATUS_SET", "calls")); err != nil {
		return nil, fmt.Errorf("invalid STATUS_SET: %w", err)
	}

	requestTimeout, err := strconv.Atoi(getEnv("REQUEST_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}
	config.RequestTimeout = time.Duration(requestTimeout) * time.Second

	refresh, err := strconv.Atoi(getEnv("AUTO_REFRESH_INTERVAL", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTO_REFRESH_INTERVAL: %w", err)
	}
	if refresh > 0 {
		config.AutoRefreshInterval = time.Duration(refresh) * time.Second
	}

	switch config.StoreMode {
	case "memory", "sqlite", "postgres", "dynamodb":
	default:
		return nil, fmt.Errorf("invalid STORE_MODE: %q", config.StoreMode)
	}

	// Parse WebSocket timeouts
	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	config.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}
	config.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	// Calculate WebSocket constants
	config.PongWait = config.WSReadTimeout
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = config.WSWriteTimeout
	config.MaxMessageSize = 512

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
