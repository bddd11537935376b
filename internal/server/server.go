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

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/loqalabs/loqa-kiosk/internal/api"
	"github.com/loqalabs/loqa-kiosk/internal/bridge"
	"github.com/loqalabs/loqa-kiosk/internal/config"
	"github.com/loqalabs/loqa-kiosk/internal/conversation"
	"github.com/loqalabs/loqa-kiosk/internal/genie"
	"github.com/loqalabs/loqa-kiosk/internal/logging"
	"github.com/loqalabs/loqa-kiosk/internal/messaging"
	"github.com/loqalabs/loqa-kiosk/internal/storage"
	"go.uber.org/zap"
)

// Dependencies are the components the HTTP surface serves
type Dependencies struct {
	Bridge       *bridge.Bridge
	Conversation *conversation.Service
	Database     *storage.Database
	NATS         *messaging.NATSService // nil when messaging is disabled
}

// Server is the kiosk hub's HTTP surface
type Server struct {
	cfg    *config.Config
	deps   Dependencies
	mux    *http.ServeMux
	server *http.Server
}

// New creates a new server and registers its routes
func New(cfg *config.Config, deps Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		cfg:  cfg,
		deps: deps,
		mux:  mux,
	}

	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.routes()
	return s
}

// Handler returns the server's root handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves HTTP until Stop is called
func (s *Server) Start() error {
	logging.LogInfo("🚀 Kiosk hub starting",
		zap.String("addr", s.server.Addr),
		zap.Bool("engine_available", genie.Available()))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	logging.LogInfo("🛑 Shutting down kiosk hub")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logging.LogInfo("✅ Kiosk hub shut down successfully")
	return nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)

	if s.deps.Bridge != nil {
		kiosk := api.NewKioskHandler(s.deps.Bridge, s.conversation())
		s.mux.HandleFunc("/api/infer", kiosk.HandleInfer)
		s.mux.HandleFunc("/api/query", kiosk.HandleQuery)
		if s.deps.Conversation != nil {
			s.mux.HandleFunc("/api/converse", kiosk.HandleConverse)
		}
	}

	if s.deps.Database != nil {
		interactions := api.NewInteractionsHandler(storage.NewInteractionsStore(s.deps.Database))
		s.mux.HandleFunc("/api/interactions", interactions.HandleInteractions)
		s.mux.HandleFunc("/api/interactions/", interactions.HandleInteractionByID)

		answers := api.NewAnswersHandler(storage.NewAnswerStore(s.deps.Database))
		s.mux.HandleFunc("/api/answers", answers.HandleAnswers)
		s.mux.HandleFunc("/api/answers/lookup", answers.HandleLookup)
	}

	logging.LogDebug("🌐 HTTP routes configured",
		zap.Bool("kiosk", s.deps.Bridge != nil),
		zap.Bool("conversation", s.deps.Conversation != nil),
		zap.Bool("storage", s.deps.Database != nil))
}

// conversation avoids handing the kiosk handler a typed nil
func (s *Server) conversation() api.Conversation {
	if s.deps.Conversation == nil {
		return nil
	}
	return s.deps.Conversation
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Engine    EngineHealth   `json:"engine"`
	Database  DatabaseHealth `json:"database"`
	NATS      NATSHealth     `json:"nats"`
}

// EngineHealth describes the dialog runtime
type EngineHealth struct {
	Available  bool   `json:"available"`
	State      string `json:"state"`
	ConfigPath string `json:"config_path,omitempty"`
}

// DatabaseHealth describes the SQLite store
type DatabaseHealth struct {
	Path string `json:"path,omitempty"`
	OK   bool   `json:"ok"`
}

// NATSHealth describes the message bus connection
type NATSHealth struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Engine:    EngineHealth{Available: genie.Available(), State: "disabled"},
		NATS:      NATSHealth{Enabled: s.cfg.NATS.Enabled},
	}

	if s.deps.Bridge != nil {
		health.Engine.State = s.deps.Bridge.State().String()
		health.Engine.ConfigPath = s.deps.Bridge.ConfigPath()
	}

	if s.deps.Database != nil {
		health.Database.Path = s.deps.Database.GetPath()
		health.Database.OK = s.deps.Database.Ping() == nil
		if !health.Database.OK {
			health.Status = "degraded"
		}
	}

	if s.deps.NATS != nil {
		health.NATS.Connected = s.deps.NATS.IsConnected()
		if s.cfg.NATS.Enabled && !health.NATS.Connected {
			health.Status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		logging.LogError(err, "Failed to write health response")
	}
}
