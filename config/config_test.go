package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("SHOPROUTE_SERVER_PORT")
		os.Unsetenv("SHOPROUTE_SERVER_ENVIRONMENT")
		os.Unsetenv("SHOPROUTE_CATALOG_INVENTORY_PATH")
		os.Unsetenv("SHOPROUTE_CATALOG_SHOPS_PATH")
		os.Unsetenv("SHOPROUTE_CATALOG_TRAINING_PATH")
		os.Unsetenv("SHOPROUTE_MATCHING_THRESHOLD")
		os.Unsetenv("SHOPROUTE_MATCHING_PATH_COUNT")
		os.Unsetenv("SHOPROUTE_MATCHING_DEFAULT_LAT")
		os.Unsetenv("SHOPROUTE_ASSISTANT_API_KEY")
		os.Unsetenv("SHOPROUTE_ASSISTANT_TIMEOUT")
		os.Unsetenv("SHOPROUTE_RATELIMIT_PER_IP")
		os.Unsetenv("SHOPROUTE_LOG_LEVEL")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Catalog.InventoryPath != "data/inventory.csv" {
			t.Errorf("Catalog.InventoryPath = %s, want data/inventory.csv", cfg.Catalog.InventoryPath)
		}
		if cfg.Matching.Threshold != 75.0 {
			t.Errorf("Matching.Threshold = %v, want 75", cfg.Matching.Threshold)
		}
		if cfg.Matching.TopShops != 10 {
			t.Errorf("Matching.TopShops = %d, want 10", cfg.Matching.TopShops)
		}
		if cfg.Matching.PathCount != 5 {
			t.Errorf("Matching.PathCount = %d, want 5", cfg.Matching.PathCount)
		}
		if cfg.Matching.DefaultLat != 20.3488 {
			t.Errorf("Matching.DefaultLat = %v, want 20.3488", cfg.Matching.DefaultLat)
		}
		if cfg.Assistant.Model != "gemini-2.0-flash" {
			t.Errorf("Assistant.Model = %s, want gemini-2.0-flash", cfg.Assistant.Model)
		}
		if cfg.Assistant.Timeout != 30*time.Second {
			t.Errorf("Assistant.Timeout = %v, want 30s", cfg.Assistant.Timeout)
		}
		if cfg.RateLimit.PerIP != 100 {
			t.Errorf("RateLimit.PerIP = %d, want 100", cfg.RateLimit.PerIP)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SHOPROUTE_SERVER_PORT", "9090")
		os.Setenv("SHOPROUTE_CATALOG_INVENTORY_PATH", "/data/inv.csv")
		os.Setenv("SHOPROUTE_MATCHING_THRESHOLD", "80")
		os.Setenv("SHOPROUTE_ASSISTANT_API_KEY", "secret")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Catalog.InventoryPath != "/data/inv.csv" {
			t.Errorf("Catalog.InventoryPath = %s, want /data/inv.csv", cfg.Catalog.InventoryPath)
		}
		if cfg.Matching.Threshold != 80.0 {
			t.Errorf("Matching.Threshold = %v, want 80", cfg.Matching.Threshold)
		}
		if cfg.Assistant.APIKey != "secret" {
			t.Errorf("Assistant.APIKey = %s, want secret", cfg.Assistant.APIKey)
		}
	})

	t.Run("rejects out-of-range threshold", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SHOPROUTE_MATCHING_THRESHOLD", "150")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("Load() expected error for threshold > 100")
		}
	})

	t.Run("rejects zero path count", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SHOPROUTE_MATCHING_PATH_COUNT", "0")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("Load() expected error for zero path count")
		}
	})
}
