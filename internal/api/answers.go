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
	"errors"
	"net/http"

	"github.com/loqalabs/loqa-kiosk/internal/command"
	"github.com/loqalabs/loqa-kiosk/internal/logging"
	"github.com/loqalabs/loqa-kiosk/internal/storage"
	"go.uber.org/zap"
)

// AnswersHandler serves the answer catalogue
type AnswersHandler struct {
	store *storage.AnswerStore
}

// NewAnswersHandler creates a new answers handler
func NewAnswersHandler(store *storage.AnswerStore) *AnswersHandler {
	return &AnswersHandler{store: store}
}

// ListAnswersResponse represents the response for listing the catalogue
type ListAnswersResponse struct {
	Answers []*storage.Answer `json:"answers"`
	Total   int               `json:"total"`
}

// HandleAnswers handles GET /api/answers
func (h *AnswersHandler) HandleAnswers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	answers, err := h.store.List()
	if err != nil {
		logging.LogError(err, "Failed to list answers")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if answers == nil {
		answers = []*storage.Answer{}
	}

	writeJSON(w, http.StatusOK, ListAnswersResponse{Answers: answers, Total: len(answers)})
}

// HandleLookup handles GET /api/answers/lookup?token=<jarvis_N>(key=value)
func (h *AnswersHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw := r.URL.Query().Get("token")
	if raw == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}

	tok, err := command.ParseToken(raw)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusBadRequest)
		return
	}

	answer, err := h.store.LookupToken(tok)
	if err != nil {
		if errors.Is(err, storage.ErrAnswerNotFound) {
			http.Error(w, "Answer not found", http.StatusNotFound)
			return
		}
		logging.LogError(err, "Failed to look up answer", zap.String("token", tok.String()))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}
