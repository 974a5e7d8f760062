// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"
)

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string
	DSN    string
}

type ServerConfig struct {
	Addr string
}

type TracingConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

type ReconcileConfig struct {
	Enabled  bool
	Interval time.Duration
}

type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	Tracing     TracingConfig
	Reconcile   ReconcileConfig
	SeedDemo    bool
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

// Load reads configuration from BILLORA_* environment variables with local
// development defaults.
func Load() (Config, error) {
	cfg := Config{
		Environment: envString("BILLORA_ENV", "development"),
		LogLevel:    envString("BILLORA_LOG_LEVEL", ""),
		Server: ServerConfig{
			Addr: envString("BILLORA_HTTP_ADDR", ":8080"),
		},
		Database: DatabaseConfig{
			Driver: envString("BILLORA_DB_DRIVER", "postgres"),
			DSN:    envString("BILLORA_DB_DSN", "host=localhost user=billora dbname=billora sslmode=disable"),
		},
		Tracing: TracingConfig{
			Enabled:          envBool("BILLORA_TRACING_ENABLED", false),
			ExporterEndpoint: envString("BILLORA_TRACING_ENDPOINT", ""),
			ExporterProtocol: envString("BILLORA_TRACING_PROTOCOL", "grpc"),
			SamplingRatio:    envFloat("BILLORA_TRACING_SAMPLING_RATIO", 0.1),
		},
		Reconcile: ReconcileConfig{
			Enabled:  envBool("BILLORA_RECONCILE_ENABLED", true),
			Interval: envDuration("BILLORA_RECONCILE_INTERVAL", 15*time.Minute),
		},
		SeedDemo: envBool("BILLORA_SEED_DEMO", false),
	}
	return cfg, nil
}

func envString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
