// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

// Package config loads service configuration from layered sources:
// struct defaults, an optional YAML file, and POSHAN_* environment
// variables, in increasing priority.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/poshanlabs/poshan/internal/logging"
	"github.com/poshanlabs/poshan/internal/recommend"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig     `koanf:"server"`
	Log      logging.Config   `koanf:"log"`
	Database DatabaseConfig   `koanf:"database"`
	Engine   recommend.Config `koanf:"engine"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	// RateLimit is the per-IP request budget per minute. Zero
	// disables rate limiting.
	RateLimit int `koanf:"rate_limit"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file. ":memory:" runs fully in memory.
	Path string `koanf:"path"`
	// SeedFile is an optional JSON food catalog loaded into an empty
	// database at startup.
	SeedFile string `koanf:"seed_file"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       120,
		},
		Log:      logging.DefaultConfig(),
		Database: DatabaseConfig{Path: "poshan.db"},
		Engine:   *recommend.DefaultConfig(),
	}
}

// envMappings routes POSHAN_* environment variables onto config paths.
var envMappings = map[string]string{
	"poshan_server_host":         "server.host",
	"poshan_server_port":         "server.port",
	"poshan_server_rate_limit":   "server.rate_limit",
	"poshan_log_level":           "log.level",
	"poshan_log_format":          "log.format",
	"poshan_db_path":             "database.path",
	"poshan_db_seed_file":        "database.seed_file",
	"poshan_cache_enabled":       "engine.cache.enabled",
	"poshan_result_cache_ttl":    "engine.cache.result_ttl",
	"poshan_nutrition_cache_ttl": "engine.cache.nutrition_ttl",
	"poshan_default_items":       "engine.limits.default_k",
	"poshan_max_items":           "engine.limits.max_k",
}

func envTransform(key string) string {
	if path, ok := envMappings[strings.ToLower(key)]; ok {
		return path
	}
	// Unmapped variables are ignored rather than guessed at.
	return ""
}

// Load builds the configuration from defaults, the optional YAML file
// named by POSHAN_CONFIG (or configPath when non-empty), and POSHAN_*
// environment variables.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath == "" {
		configPath = os.Getenv("POSHAN_CONFIG")
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("POSHAN_", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate_limit must be non-negative, got %d", c.Server.RateLimit)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database path is required")
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine config: %w", err)
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
