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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/loqalabs/loqa-kiosk/internal/events"
	"github.com/loqalabs/loqa-kiosk/internal/logging"
	"github.com/loqalabs/loqa-kiosk/internal/storage"
	"go.uber.org/zap"
)

// InteractionsHandler handles HTTP requests for the interaction log
type InteractionsHandler struct {
	store *storage.InteractionsStore
}

// NewInteractionsHandler creates a new interactions handler
func NewInteractionsHandler(store *storage.InteractionsStore) *InteractionsHandler {
	return &InteractionsHandler{store: store}
}

// ListInteractionsResponse represents the response for listing interactions
type ListInteractionsResponse struct {
	Interactions []*events.Interaction `json:"interactions"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	TotalPages   int                   `json:"total_pages"`
}

// HandleInteractions handles GET /api/interactions
func (h *InteractionsHandler) HandleInteractions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.listInteractions(w, r)
}

// HandleInteractionByID handles GET and DELETE /api/interactions/{id}
func (h *InteractionsHandler) HandleInteractionByID(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/interactions/"), "/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		http.Error(w, "Interaction ID is required", http.StatusBadRequest)
		return
	}
	id := pathParts[0]

	switch r.Method {
	case http.MethodGet:
		h.getInteraction(w, id)
	case http.MethodDelete:
		h.deleteInteraction(w, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *InteractionsHandler) listInteractions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := parseIntParam(query.Get("page"), 1)
	pageSize := parseIntParam(query.Get("page_size"), 20)
	if pageSize > 100 {
		pageSize = 100
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}

	options := storage.ListOptions{
		KioskID:     query.Get("kiosk_id"),
		TokenHeader: query.Get("token_header"),
		Limit:       pageSize,
		Offset:      (page - 1) * pageSize,
		SortBy:      query.Get("sort_by"),
		SortOrder:   strings.ToUpper(query.Get("sort_order")),
	}

	if v := query.Get("fallback"); v != "" {
		if fallback, err := strconv.ParseBool(v); err == nil {
			options.Fallback = &fallback
		}
	}
	if v := query.Get("success"); v != "" {
		if success, err := strconv.ParseBool(v); err == nil {
			options.Success = &success
		}
	}
	if v := query.Get("start_time"); v != "" {
		if startTime, err := time.Parse(time.RFC3339, v); err == nil {
			options.StartTime = &startTime
		}
	}
	if v := query.Get("end_time"); v != "" {
		if endTime, err := time.Parse(time.RFC3339, v); err == nil {
			options.EndTime = &endTime
		}
	}

	total, err := h.store.Count(options)
	if err != nil {
		logging.LogError(err, "Failed to count interactions")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	interactions, err := h.store.List(options)
	if err != nil {
		logging.LogError(err, "Failed to list interactions")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if interactions == nil {
		interactions = []*events.Interaction{}
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	logging.LogDebug("Interactions API request",
		zap.String("endpoint", "list"),
		zap.Int("page", page),
		zap.Int("page_size", pageSize),
		zap.Int64("total_results", total),
		zap.String("kiosk_id", options.KioskID))

	writeJSON(w, http.StatusOK, ListInteractionsResponse{
		Interactions: interactions,
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
		TotalPages:   totalPages,
	})
}

func (h *InteractionsHandler) getInteraction(w http.ResponseWriter, id string) {
	interaction, err := h.store.GetByID(id)
	if err != nil {
		if errors.Is(err, storage.ErrInteractionNotFound) {
			http.Error(w, "Interaction not found", http.StatusNotFound)
			return
		}
		logging.LogError(err, "Failed to get interaction", zap.String("id", id))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, interaction)
}

func (h *InteractionsHandler) deleteInteraction(w http.ResponseWriter, id string) {
	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, storage.ErrInteractionNotFound) {
			http.Error(w, "Interaction not found", http.StatusNotFound)
			return
		}
		logging.LogError(err, "Failed to delete interaction", zap.String("id", id))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseIntParam parses integer parameter with default value
func parseIntParam(param string, defaultValue int) int {
	if param == "" {
		return defaultValue
	}
	if value, err := strconv.Atoi(param); err == nil {
		return value
	}
	return defaultValue
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.LogError(err, "Failed to encode response")
	}
}
