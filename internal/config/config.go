package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Client sync core
	ServerURL            string `yaml:"server_url"`
	APIToken             string `yaml:"api_token"`
	DBPath               string `yaml:"db_path"`
	LogLevel             string `yaml:"log_level"`
	SyncIntervalMinutes  int    `yaml:"sync_interval_minutes"`
	SyncMaxAttempts      int    `yaml:"sync_max_attempts"`
	RemoteTimeoutSeconds int    `yaml:"remote_timeout_seconds"`
	TimerPollSeconds     int    `yaml:"timer_poll_seconds"`
	// AI breakdown
	AIBaseURL string `yaml:"ai_base_url"`
	AIModel   string `yaml:"ai_model"`
	// Companion backend
	Port         int    `yaml:"port"`
	ServerDBPath string `yaml:"server_db_path"`
	ServerAPIKey string `yaml:"server_api_key"`
}

// Load builds the configuration from defaults, an optional YAML file named by
// MEALSYNC_CONFIG, and environment variable overrides, in that order.
func Load() (*Config, error) {
	cfg := &Config{
		ServerURL:            "http://localhost:8620",
		DBPath:               "/data/mealsync.db",
		LogLevel:             "info",
		SyncIntervalMinutes:  5,
		SyncMaxAttempts:      10,
		RemoteTimeoutSeconds: 10,
		TimerPollSeconds:     5,
		AIBaseURL:            "http://localhost:11434",
		AIModel:              "qwen2.5:1.5b",
		Port:                 8620,
		ServerDBPath:         "/data/mealsync-server.db",
	}

	if path := os.Getenv("MEALSYNC_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.ServerURL = envStr("SERVER_URL", cfg.ServerURL)
	cfg.APIToken = envStr("API_TOKEN", cfg.APIToken)
	cfg.DBPath = envStr("DB_PATH", cfg.DBPath)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)
	cfg.SyncIntervalMinutes = envInt("SYNC_INTERVAL_MINUTES", cfg.SyncIntervalMinutes)
	cfg.SyncMaxAttempts = envInt("SYNC_MAX_ATTEMPTS", cfg.SyncMaxAttempts)
	cfg.RemoteTimeoutSeconds = envInt("REMOTE_TIMEOUT_SECONDS", cfg.RemoteTimeoutSeconds)
	cfg.TimerPollSeconds = envInt("TIMER_POLL_SECONDS", cfg.TimerPollSeconds)
	cfg.AIBaseURL = envStr("AI_BASE_URL", cfg.AIBaseURL)
	cfg.AIModel = envStr("AI_MODEL", cfg.AIModel)
	cfg.Port = envInt("PORT", cfg.Port)
	cfg.ServerDBPath = envStr("SERVER_DB_PATH", cfg.ServerDBPath)
	cfg.ServerAPIKey = envStr("SERVER_API_KEY", cfg.ServerAPIKey)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}
	if c.ServerURL == "" {
		return fmt.Errorf("SERVER_URL must not be empty")
	}
	if c.SyncIntervalMinutes < 1 {
		return fmt.Errorf("SYNC_INTERVAL_MINUTES must be positive, got %d", c.SyncIntervalMinutes)
	}
	if c.RemoteTimeoutSeconds < 1 {
		return fmt.Errorf("REMOTE_TIMEOUT_SECONDS must be positive, got %d", c.RemoteTimeoutSeconds)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
