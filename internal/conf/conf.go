package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config represents application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Store configuration
	Store StoreConfig

	// Gemini configuration
	Gemini GeminiConfig

	// Presence configuration
	Presence PresenceConfig

	// Prompts configuration (loaded from YAML)
	Prompts *PromptsConfig

	// Debug mode
	Debug bool
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int
}

// StoreConfig contains database configuration
type StoreConfig struct {
	DBPath string
}

// GeminiConfig contains completion provider configuration
type GeminiConfig struct {
	Model   string
	BaseURL string
}

// PresenceConfig contains the presence janitor settings
type PresenceConfig struct {
	SweepInterval time.Duration
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	port := 8080
	if val := os.Getenv("PORT"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			port = parsed
		}
	}

	dbPath := os.Getenv("ROUTER_DB_PATH")
	if dbPath == "" {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".axion-router", "router.db")
	}

	sweepMinutes := 5
	if val := os.Getenv("PRESENCE_SWEEP_MINUTES"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			sweepMinutes = parsed
		}
	}

	// Load prompts from YAML
	promptsConfigPath := os.Getenv("PROMPTS_CONFIG_PATH")
	promptsConfig, _ := LoadPromptsConfig(promptsConfigPath)

	return &Config{
		Server: ServerConfig{
			Port: port,
		},
		Store: StoreConfig{
			DBPath: dbPath,
		},
		Gemini: GeminiConfig{
			Model:   os.Getenv("GEMINI_MODEL"),
			BaseURL: os.Getenv("GEMINI_BASE_URL"),
		},
		Presence: PresenceConfig{
			SweepInterval: time.Duration(sweepMinutes) * time.Minute,
		},
		Prompts: promptsConfig,
		Debug:   os.Getenv("DEBUG") == "true",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return &ConfigError{Field: "PORT", Message: "must be a valid port number"}
	}
	if c.Presence.SweepInterval <= 0 {
		return &ConfigError{Field: "PRESENCE_SWEEP_MINUTES", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
