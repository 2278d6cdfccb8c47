// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	engineCfg := cfg.EngineConfig()
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/ledger-reconcile/internal/domain/reconcile"
)

// Config represents the entire application configuration
type Config struct {
	Reconcile     ReconcileConfig     `yaml:"reconcile"`
	Storage       StorageConfig       `yaml:"storage"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ReconcileConfig holds the matching engine options
type ReconcileConfig struct {
	MatchThreshold         int                `yaml:"match_threshold"`
	DuplicateThreshold     int                `yaml:"duplicate_threshold"`
	ReviewThreshold        int                `yaml:"review_threshold"`
	DateProximityDays      int                `yaml:"date_proximity_days"`
	AmountTolerancePercent float64            `yaml:"amount_tolerance_percent"`
	Strategy               string             `yaml:"strategy"` // "greedy" or "optimal"
	Weights                *reconcile.Weights `yaml:"weights"`  // seeded with the default table; nil keeps it
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	engine := reconcile.DefaultConfig()
	weights := engine.Weights
	return &Config{
		Reconcile: ReconcileConfig{
			MatchThreshold:         engine.MatchThreshold,
			DuplicateThreshold:     engine.DuplicateThreshold,
			ReviewThreshold:        engine.ReviewThreshold,
			DateProximityDays:      engine.DateProximityDays,
			AmountTolerancePercent: engine.AmountTolerancePercent,
			Strategy:               engine.Strategy,
			Weights:                &weights,
		},
		Storage: StorageConfig{
			DatabasePath: "reconcile.db",
		},
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "text",
			},
		},
	}
}

// Load reads and parses the config file. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${RECONCILE_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	d := Defaults()
	return &Config{
		Reconcile: ReconcileConfig{
			MatchThreshold:         getEnvInt("RECONCILE_MATCH_THRESHOLD", d.Reconcile.MatchThreshold),
			DuplicateThreshold:     getEnvInt("RECONCILE_DUPLICATE_THRESHOLD", d.Reconcile.DuplicateThreshold),
			ReviewThreshold:        getEnvInt("RECONCILE_REVIEW_THRESHOLD", d.Reconcile.ReviewThreshold),
			DateProximityDays:      getEnvInt("RECONCILE_DATE_PROXIMITY_DAYS", d.Reconcile.DateProximityDays),
			AmountTolerancePercent: getEnvFloat("RECONCILE_AMOUNT_TOLERANCE", d.Reconcile.AmountTolerancePercent),
			Strategy:               getEnv("RECONCILE_STRATEGY", d.Reconcile.Strategy),
			Weights:                d.Reconcile.Weights,
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("RECONCILE_DB_PATH", d.Storage.DatabasePath),
		},
		Server: ServerConfig{
			Port:           getEnvInt("PORT", d.Server.Port),
			AllowedOrigins: getEnvList("ALLOWED_ORIGINS", d.Server.AllowedOrigins),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", d.Observability.Logging.Level),
				Format: getEnv("LOG_FORMAT", d.Observability.Logging.Format),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// EngineConfig maps the reconcile section onto the engine configuration.
func (c *Config) EngineConfig() reconcile.Config {
	engine := reconcile.DefaultConfig()
	r := c.Reconcile

	engine.MatchThreshold = r.MatchThreshold
	engine.DuplicateThreshold = r.DuplicateThreshold
	engine.ReviewThreshold = r.ReviewThreshold
	engine.DateProximityDays = r.DateProximityDays
	engine.AmountTolerancePercent = r.AmountTolerancePercent
	if r.Strategy != "" {
		engine.Strategy = r.Strategy
	}
	if r.Weights != nil {
		engine.Weights = *r.Weights
	}

	return engine
}

// Validate checks the configuration for values the application cannot run with
func (c *Config) Validate() error {
	if err := c.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage: database_path is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: invalid port %d", c.Server.Port)
	}
	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.Atoi(val); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.ParseFloat(val, 64); err == nil {
			return result
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
