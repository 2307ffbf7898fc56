package worker

import (
	"fmt"
	"os"
)

// Config holds configuration for the worker service.
type Config struct {
	// ProjectID is the Google Cloud project hosting the subscription.
	ProjectID string

	// SubscriptionName is the Pub/Sub subscription carrying
	// measurement batches.
	SubscriptionName string

	// ModelServerURL is the base URL of the inference server.
	ModelServerURL string

	// BundlePath points at the model bundle manifest.
	BundlePath string

	// MapsDir is the directory rendered maps are written to.
	MapsDir string

	// WeatherStatsPath points at the daily climatology table used to
	// synthesize forecast weather.
	WeatherStatsPath string
}

// ConfigFromEnv creates a worker configuration from environment variables.
func ConfigFromEnv() Config {
	return Config{
		ProjectID:        os.Getenv("PUBSUB_PROJECT_ID"),
		SubscriptionName: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "measurement-batches"),
		ModelServerURL:   getEnvOrDefault("MODEL_SERVER_URL", "http://localhost:8500"),
		BundlePath:       getEnvOrDefault("MODEL_BUNDLE_PATH", "models/manifest.json"),
		MapsDir:          getEnvOrDefault("MAPS_DIR", "maps"),
		WeatherStatsPath: getEnvOrDefault("WEATHER_STATS_PATH", "models/weather_stats.json"),
	}
}

// Validate checks that required settings are present.
func (c Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("PUBSUB_PROJECT_ID is required")
	}
	if c.SubscriptionName == "" {
		return fmt.Errorf("PUBSUB_SUBSCRIPTION is required")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
