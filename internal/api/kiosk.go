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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/loqalabs/loqa-kiosk/internal/conversation"
	"github.com/loqalabs/loqa-kiosk/internal/logging"
	"github.com/loqalabs/loqa-kiosk/internal/security"
	"go.uber.org/zap"
)

// Engine is the host-facing surface of the bridge
type Engine interface {
	Infer(prompt string) string
	GenerateContext(ctx context.Context, prompt string) string
}

// Conversation runs the full utterance pipeline
type Conversation interface {
	Handle(ctx context.Context, kioskID, utterance string) (*conversation.Result, error)
}

// KioskHandler exposes classification, dialog queries and conversations
type KioskHandler struct {
	engine       Engine
	conversation Conversation
}

// NewKioskHandler creates a new kiosk handler
func NewKioskHandler(engine Engine, conv Conversation) *KioskHandler {
	return &KioskHandler{engine: engine, conversation: conv}
}

// InferRequest is the body of POST /api/infer
type InferRequest struct {
	Text string `json:"text"`
}

// InferResponse carries the token, empty when nothing matched
type InferResponse struct {
	Token string `json:"token"`
}

// QueryRequest is the body of POST /api/query
type QueryRequest struct {
	Prompt string `json:"prompt"`
}

// QueryResponse carries the dialog answer or a sentinel
type QueryResponse struct {
	Text string `json:"text"`
}

// ConverseRequest is the body of POST /api/converse
type ConverseRequest struct {
	KioskID string `json:"kiosk_id"`
	Text    string `json:"text"`
}

// HandleInfer handles POST /api/infer
func (h *KioskHandler) HandleInfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req InferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := security.ValidateUtterance(req.Text); err != nil {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, InferResponse{Token: h.engine.Infer(req.Text)})
}

// HandleQuery handles POST /api/query
func (h *KioskHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Prompt == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, QueryResponse{Text: h.engine.GenerateContext(r.Context(), req.Prompt)})
}

// HandleConverse handles POST /api/converse
func (h *KioskHandler) HandleConverse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ConverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	result, err := h.conversation.Handle(r.Context(), req.KioskID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrInvalidUtterance):
			http.Error(w, "text is required", http.StatusBadRequest)
		case errors.Is(err, security.ErrInvalidKioskID):
			http.Error(w, "Invalid kiosk_id", http.StatusBadRequest)
		default:
			logging.LogError(err, "Conversation failed",
				zap.String("kiosk_id", security.SanitizeLogInput(req.KioskID)))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}
