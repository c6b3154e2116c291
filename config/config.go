package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Matching  MatchingConfig
	Assistant AssistantConfig
	RateLimit RateLimitConfig
	LogLevel  string `mapstructure:"log_level"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig holds the durable-storage file locations
type CatalogConfig struct {
	InventoryPath string `mapstructure:"inventory_path"`
	ShopsPath     string `mapstructure:"shops_path"`
	TrainingPath  string `mapstructure:"training_path"`
}

// MatchingConfig holds fuzzy matching and path generation configuration.
// DefaultLat/DefaultLon are used when a request carries no user location.
type MatchingConfig struct {
	Threshold  float64 `mapstructure:"threshold"`
	TopShops   int     `mapstructure:"top_shops"`
	PathCount  int     `mapstructure:"path_count"`
	DefaultLat float64 `mapstructure:"default_lat"`
	DefaultLon float64 `mapstructure:"default_lon"`
}

// AssistantConfig holds the text-categorization collaborator configuration.
// An empty API key disables the manual (free-text) evaluate option.
type AssistantConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shoproute/")

	// Environment variable settings
	v.SetEnvPrefix("SHOPROUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Catalog defaults
	v.SetDefault("catalog.inventory_path", "data/inventory.csv")
	v.SetDefault("catalog.shops_path", "data/shops.csv")
	v.SetDefault("catalog.training_path", "data/fuzzy_training.json")

	// Matching defaults
	v.SetDefault("matching.threshold", 75.0)
	v.SetDefault("matching.top_shops", 10)
	v.SetDefault("matching.path_count", 5)
	v.SetDefault("matching.default_lat", 20.3488)
	v.SetDefault("matching.default_lon", 85.8162)

	// Assistant defaults
	v.SetDefault("assistant.api_key", "")
	v.SetDefault("assistant.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("assistant.model", "gemini-2.0-flash")
	v.SetDefault("assistant.timeout", "30s")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	v.SetDefault("log_level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Catalog.InventoryPath == "" || config.Catalog.ShopsPath == "" {
		return fmt.Errorf("catalog inventory and shop dataset paths are required")
	}

	if config.Catalog.TrainingPath == "" {
		return fmt.Errorf("training cache path is required")
	}

	if config.Matching.Threshold <= 0 || config.Matching.Threshold > 100 {
		return fmt.Errorf("matching threshold must be in (0, 100], got: %v", config.Matching.Threshold)
	}

	if config.Matching.PathCount <= 0 {
		return fmt.Errorf("path count must be positive, got: %d", config.Matching.PathCount)
	}

	return nil
}
