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

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/loqalabs/loqa-kiosk/internal/bridge"
	"github.com/loqalabs/loqa-kiosk/internal/config"
	"github.com/loqalabs/loqa-kiosk/internal/conversation"
	"github.com/loqalabs/loqa-kiosk/internal/genie"
	"github.com/loqalabs/loqa-kiosk/internal/logging"
	"github.com/loqalabs/loqa-kiosk/internal/messaging"
	"github.com/loqalabs/loqa-kiosk/internal/server"
	"github.com/loqalabs/loqa-kiosk/internal/storage"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logging.InitializeWithConfig(logging.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	db, err := storage.NewDatabase(storage.DatabaseConfig{Path: cfg.Storage.DBPath})
	if err != nil {
		logging.LogError(err, "Failed to open database")
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := db.Checkpoint(); err != nil {
			logging.LogWarn("WAL checkpoint failed", zap.Error(err))
		}
		_ = db.Close()
	}()

	answers := storage.NewAnswerStore(db)
	if cfg.Storage.SeedAnswers {
		if _, err := answers.SeedDefaults(); err != nil {
			logging.LogError(err, "Failed to seed answer catalogue")
		}
	}

	opts := conversation.Options{
		Language:  cfg.Language,
		Recorder:  storage.NewInteractionsStore(db),
		Telemetry: conversation.NewTelemetry(cfg.Telemetry.URL, cfg.Telemetry.Timeout),
	}

	var nc *messaging.NATSService
	if cfg.NATS.Enabled {
		nc = messaging.NewNATSService(cfg.NATS)
		if err := nc.Connect(); err != nil {
			logging.LogError(err, "NATS unavailable, continuing without events", zap.String("url", cfg.NATS.URL))
		} else {
			opts.Publisher = nc
		}
		defer nc.Close()
	}

	b := bridge.New(genie.New(), bridge.Options{
		ConfigPath: cfg.Engine.ConfigPath,
		Strict:     cfg.Engine.Strict,
	})
	defer b.Release()

	if cfg.Engine.Enabled {
		if code := b.Init(""); code != bridge.InitOK {
			logging.LogWarn("Dialog engine not ready, /api/query will answer with sentinels",
				zap.Int("code", code),
				zap.String("config_path", cfg.Engine.ConfigPath))
		}
	}

	conv := conversation.NewService(b, answers, opts)
	defer conv.Wait()

	srv := server.New(cfg, server.Dependencies{
		Bridge:       b,
		Conversation: conv,
		Database:     db,
		NATS:         nc,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.LogInfo("Received signal", zap.String("signal", sig.String()))
		if err := srv.Stop(); err != nil {
			logging.LogError(err, "Failed to stop server")
		}
	case err := <-errCh:
		if err != nil {
			logging.LogError(err, "Failed to start server")
		}
	}
}
