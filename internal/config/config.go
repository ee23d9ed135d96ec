// Package config provides configuration loading from environment variables.
package config

import (
	"log/slog"
	"time"
)

// ServiceConfig holds configuration for the run service.
type ServiceConfig struct {
	Port              string
	MetricsPort       string
	APIKey            string
	LogLevel          slog.Level
	ShutdownDrainWait time.Duration // Time to wait for load balancer to drain (0 to skip)
	MaxConcurrentRuns int           // Cap on simultaneously executing runs
	RunRetention      time.Duration // How long to keep finished run records
	SweepInterval     time.Duration // How often to prune expired records
}

// LoadServiceConfig loads service configuration from environment variables.
func LoadServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Port:              GetEnv("PORT", "8080"),
		MetricsPort:       GetEnv("METRICS_PORT", "9090"),
		APIKey:            GetSecretFile(GetEnv("API_KEY_FILE", "")),
		LogLevel:          GetLevelEnv("LOG_LEVEL", slog.LevelInfo),
		ShutdownDrainWait: GetDurationEnv("SHUTDOWN_DRAIN_WAIT", 5*time.Second),
		MaxConcurrentRuns: GetIntEnv("MAX_CONCURRENT_RUNS", 8),
		RunRetention:      GetDurationEnv("RUN_RETENTION", 15*time.Minute),
		SweepInterval:     GetDurationEnv("SWEEP_INTERVAL", time.Minute),
	}
}
