/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the kiosk hub
type Config struct {
	Server    ServerConfig
	Engine    EngineConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig
	Logging   LoggingConfig
	NATS      NATSConfig
	Language  string // answer language: "kr" or "en"
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// EngineConfig holds the on-device dialog runtime configuration
type EngineConfig struct {
	ConfigPath string // runtime JSON configuration file
	Strict     bool   // fail init when the runtime is not linked
	Enabled    bool   // open a dialog session at startup
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DBPath      string
	SeedAnswers bool // load the bundled answer catalogue on startup
}

// TelemetryConfig holds the inference telemetry endpoint
type TelemetryConfig struct {
	URL     string // base URL; empty disables telemetry
	Timeout time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// NATSConfig holds NATS messaging configuration
type NATSConfig struct {
	Enabled       bool
	URL           string
	SubjectPrefix string
	MaxReconnect  int
	ReconnectWait time.Duration
}

// Supported answer languages
const (
	LanguageKorean  = "kr"
	LanguageEnglish = "en"
)

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         3000,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Engine: EngineConfig{
			ConfigPath: "/data/local/tmp/llama-maum-skm-htp.json",
			Strict:     false,
			Enabled:    true,
		},
		Storage: StorageConfig{
			DBPath:      "./data/loqa-kiosk.db",
			SeedAnswers: true,
		},
		Telemetry: TelemetryConfig{
			URL:     "",
			Timeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		NATS: NATSConfig{
			Enabled:       false,
			URL:           "nats://localhost:4222",
			SubjectPrefix: "jarvis",
			MaxReconnect:  10,
			ReconnectWait: 2 * time.Second,
		},
		Language: LanguageKorean,
	}
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	d := Default()
	config := &Config{
		Server: ServerConfig{
			Host:         getEnvString("KIOSK_HOST", d.Server.Host),
			Port:         getEnvInt("KIOSK_PORT", d.Server.Port),
			ReadTimeout:  getEnvDuration("KIOSK_READ_TIMEOUT", d.Server.ReadTimeout),
			WriteTimeout: getEnvDuration("KIOSK_WRITE_TIMEOUT", d.Server.WriteTimeout),
		},
		Engine: EngineConfig{
			ConfigPath: getEnvString("GENIE_CONFIG_PATH", d.Engine.ConfigPath),
			Strict:     getEnvBool("GENIE_STRICT", d.Engine.Strict),
			Enabled:    getEnvBool("GENIE_ENABLED", d.Engine.Enabled),
		},
		Storage: StorageConfig{
			DBPath:      getEnvString("DB_PATH", d.Storage.DBPath),
			SeedAnswers: getEnvBool("SEED_ANSWERS", d.Storage.SeedAnswers),
		},
		Telemetry: TelemetryConfig{
			URL:     getEnvString("TELEMETRY_URL", d.Telemetry.URL),
			Timeout: getEnvDuration("TELEMETRY_TIMEOUT", d.Telemetry.Timeout),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", d.Logging.Level),
			Format: getEnvString("LOG_FORMAT", d.Logging.Format),
		},
		NATS: NATSConfig{
			Enabled:       getEnvBool("NATS_ENABLED", d.NATS.Enabled),
			URL:           getEnvString("NATS_URL", d.NATS.URL),
			SubjectPrefix: getEnvString("NATS_SUBJECT_PREFIX", d.NATS.SubjectPrefix),
			MaxReconnect:  getEnvInt("NATS_MAX_RECONNECT", d.NATS.MaxReconnect),
			ReconnectWait: getEnvDuration("NATS_RECONNECT_WAIT", d.NATS.ReconnectWait),
		},
		Language: strings.ToLower(getEnvString("KIOSK_LANGUAGE", d.Language)),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}

	if c.Engine.ConfigPath == "" {
		return fmt.Errorf("engine config path must be provided")
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("database path must be provided")
	}

	if c.Telemetry.Timeout <= 0 {
		return fmt.Errorf("telemetry timeout must be positive: %s", c.Telemetry.Timeout)
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("NATS URL must be provided when NATS is enabled")
	}

	if c.NATS.SubjectPrefix == "" {
		return fmt.Errorf("NATS subject prefix must be provided")
	}

	switch c.Language {
	case LanguageKorean, LanguageEnglish:
	default:
		return fmt.Errorf("unsupported language: %q", c.Language)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
