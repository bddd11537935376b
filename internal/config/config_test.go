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
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 3000)
	}
	if cfg.Addr() != "0.0.0.0:3000" {
		t.Errorf("Addr() = %q, want %q", cfg.Addr(), "0.0.0.0:3000")
	}

	if cfg.Engine.ConfigPath != "/data/local/tmp/llama-maum-skm-htp.json" {
		t.Errorf("Engine.ConfigPath = %q", cfg.Engine.ConfigPath)
	}
	if cfg.Engine.Strict {
		t.Error("Engine.Strict should default to false")
	}
	if !cfg.Engine.Enabled {
		t.Error("Engine.Enabled should default to true")
	}

	if cfg.Storage.DBPath != "./data/loqa-kiosk.db" {
		t.Errorf("Storage.DBPath = %q, want %q", cfg.Storage.DBPath, "./data/loqa-kiosk.db")
	}
	if !cfg.Storage.SeedAnswers {
		t.Error("Storage.SeedAnswers should default to true")
	}

	if cfg.Telemetry.URL != "" {
		t.Errorf("Telemetry.URL = %q, want empty", cfg.Telemetry.URL)
	}

	if cfg.NATS.Enabled {
		t.Error("NATS.Enabled should default to false")
	}
	if cfg.NATS.SubjectPrefix != "jarvis" {
		t.Errorf("NATS.SubjectPrefix = %q, want %q", cfg.NATS.SubjectPrefix, "jarvis")
	}

	if cfg.Language != LanguageKorean {
		t.Errorf("Language = %q, want %q", cfg.Language, LanguageKorean)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name: "Server configuration",
			envVars: map[string]string{
				"KIOSK_HOST":          "127.0.0.1",
				"KIOSK_PORT":          "8081",
				"KIOSK_WRITE_TIMEOUT": "2m",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Addr() != "127.0.0.1:8081" {
					t.Errorf("Addr() = %q, want %q", cfg.Addr(), "127.0.0.1:8081")
				}
				if cfg.Server.WriteTimeout != 2*time.Minute {
					t.Errorf("Server.WriteTimeout = %v, want %v", cfg.Server.WriteTimeout, 2*time.Minute)
				}
			},
		},
		{
			name: "Engine configuration",
			envVars: map[string]string{
				"GENIE_CONFIG_PATH": "/opt/genie/dialog.json",
				"GENIE_STRICT":      "true",
				"GENIE_ENABLED":     "false",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Engine.ConfigPath != "/opt/genie/dialog.json" {
					t.Errorf("Engine.ConfigPath = %q", cfg.Engine.ConfigPath)
				}
				if !cfg.Engine.Strict || cfg.Engine.Enabled {
					t.Errorf("Engine = %+v", cfg.Engine)
				}
			},
		},
		{
			name: "Storage and telemetry",
			envVars: map[string]string{
				"DB_PATH":           "/tmp/kiosk.db",
				"SEED_ANSWERS":      "false",
				"TELEMETRY_URL":     "http://telemetry.local/",
				"TELEMETRY_TIMEOUT": "750ms",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Storage.DBPath != "/tmp/kiosk.db" || cfg.Storage.SeedAnswers {
					t.Errorf("Storage = %+v", cfg.Storage)
				}
				if cfg.Telemetry.URL != "http://telemetry.local/" {
					t.Errorf("Telemetry.URL = %q", cfg.Telemetry.URL)
				}
				if cfg.Telemetry.Timeout != 750*time.Millisecond {
					t.Errorf("Telemetry.Timeout = %v", cfg.Telemetry.Timeout)
				}
			},
		},
		{
			name: "NATS configuration",
			envVars: map[string]string{
				"NATS_ENABLED":        "true",
				"NATS_URL":            "nats://broker:4222",
				"NATS_SUBJECT_PREFIX": "kiosk7",
				"NATS_MAX_RECONNECT":  "3",
				"NATS_RECONNECT_WAIT": "500ms",
			},
			validate: func(t *testing.T, cfg *Config) {
				want := NATSConfig{
					Enabled:       true,
					URL:           "nats://broker:4222",
					SubjectPrefix: "kiosk7",
					MaxReconnect:  3,
					ReconnectWait: 500 * time.Millisecond,
				}
				if cfg.NATS != want {
					t.Errorf("NATS = %+v, want %+v", cfg.NATS, want)
				}
			},
		},
		{
			name: "Language is case insensitive",
			envVars: map[string]string{
				"KIOSK_LANGUAGE": "EN",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Language != LanguageEnglish {
					t.Errorf("Language = %q, want %q", cfg.Language, LanguageEnglish)
				}
			},
		},
		{
			name: "Unparseable values fall back to defaults",
			envVars: map[string]string{
				"KIOSK_PORT":   "not-a-port",
				"GENIE_STRICT": "maybe",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != 3000 || cfg.Engine.Strict {
					t.Errorf("unexpected values: port=%d strict=%v", cfg.Server.Port, cfg.Engine.Strict)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			for key, value := range tt.envVars {
				_ = os.Setenv(key, value)
			}
			defer clearEnvVars()

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			tt.validate(t, cfg)
		})
	}
}

func TestLoad_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name          string
		envVars       map[string]string
		expectError   bool
		errorContains string
	}{
		{
			name:          "Invalid server port",
			envVars:       map[string]string{"KIOSK_PORT": "0"},
			expectError:   true,
			errorContains: "invalid server port",
		},
		{
			name:          "Port out of range",
			envVars:       map[string]string{"KIOSK_PORT": "99999"},
			expectError:   true,
			errorContains: "invalid server port",
		},
		{
			name:          "Unsupported language",
			envVars:       map[string]string{"KIOSK_LANGUAGE": "jp"},
			expectError:   true,
			errorContains: "unsupported language",
		},
		{
			name:          "Negative telemetry timeout",
			envVars:       map[string]string{"TELEMETRY_TIMEOUT": "-1s"},
			expectError:   true,
			errorContains: "telemetry timeout",
		},
		{
			name:          "Zero read timeout",
			envVars:       map[string]string{"KIOSK_READ_TIMEOUT": "0s"},
			expectError:   true,
			errorContains: "server timeouts",
		},
		{
			name:        "Valid configuration",
			envVars:     map[string]string{"KIOSK_PORT": "3000", "KIOSK_LANGUAGE": "kr"},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			for key, value := range tt.envVars {
				_ = os.Setenv(key, value)
			}
			defer clearEnvVars()

			_, err := Load()

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				} else if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error to contain %q, got: %v", tt.errorContains, err)
				}
			} else if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_NATSRequiresURL(t *testing.T) {
	cfg := Default()
	cfg.NATS.Enabled = true
	cfg.NATS.URL = ""

	if err := cfg.validate(); err == nil {
		t.Error("expected error for enabled NATS without URL")
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().validate(); err != nil {
		t.Errorf("Default().validate() = %v", err)
	}
}

// clearEnvVars clears environment variables used in tests
func clearEnvVars() {
	envVars := []string{
		"KIOSK_HOST", "KIOSK_PORT", "KIOSK_READ_TIMEOUT", "KIOSK_WRITE_TIMEOUT",
		"GENIE_CONFIG_PATH", "GENIE_STRICT", "GENIE_ENABLED",
		"DB_PATH", "SEED_ANSWERS",
		"TELEMETRY_URL", "TELEMETRY_TIMEOUT",
		"LOG_LEVEL", "LOG_FORMAT",
		"NATS_ENABLED", "NATS_URL", "NATS_SUBJECT_PREFIX", "NATS_MAX_RECONNECT", "NATS_RECONNECT_WAIT",
		"KIOSK_LANGUAGE",
	}

	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}
