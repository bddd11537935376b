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

package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Interaction is one kiosk utterance carried through the pipeline
type Interaction struct {
	// Core identification
	ID        string    `json:"id" db:"id"`
	RequestID string    `json:"request_id" db:"request_id"`
	KioskID   string    `json:"kiosk_id" db:"kiosk_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	// Input
	Utterance  string `json:"utterance" db:"utterance"`
	Normalized string `json:"normalized" db:"normalized"`
	Prompt     string `json:"prompt,omitempty" db:"prompt"`

	// Inference
	RawResponse string            `json:"raw_response" db:"raw_response"`
	Token       string            `json:"token" db:"token"`
	TokenHeader string            `json:"token_header" db:"token_header"`
	Params      map[string]string `json:"params" db:"params"`
	LatencyMS   int64             `json:"latency_ms" db:"latency_ms"`

	// Response
	APIMethod      string `json:"api_method,omitempty" db:"api_method"`
	ResponseText   string `json:"response_text" db:"response_text"`
	Fallback       bool   `json:"fallback" db:"fallback"`
	ProcessingTime int64  `json:"processing_time_ms" db:"processing_time_ms"`
	Success        bool   `json:"success" db:"success"`
	ErrorMessage   string `json:"error_message,omitempty" db:"error_message"`
}

// NewInteraction creates an Interaction with a generated ID and the current time
func NewInteraction(kioskID, requestID string) *Interaction {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return &Interaction{
		ID:        uuid.NewString(),
		RequestID: requestID,
		KioskID:   kioskID,
		Timestamp: time.Now(),
		Params:    make(map[string]string),
		Success:   true,
	}
}

// GetID returns the interaction ID
func (i *Interaction) GetID() string {
	return i.ID
}

// SetInput records the raw and normalized utterance and the prompt built from it
func (i *Interaction) SetInput(utterance, normalized, prompt string) {
	i.Utterance = utterance
	i.Normalized = normalized
	i.Prompt = prompt
}

// SetInference records the engine output and the token parsed from it
func (i *Interaction) SetInference(raw, token, header string, params map[string]string, latency time.Duration) {
	i.RawResponse = raw
	i.Token = token
	i.TokenHeader = header
	i.Params = params
	i.LatencyMS = latency.Milliseconds()
}

// SetResponse sets the spoken answer and marks processing as complete
func (i *Interaction) SetResponse(apiMethod, text string, fallback bool) {
	i.APIMethod = apiMethod
	i.ResponseText = text
	i.Fallback = fallback
	i.ProcessingTime = time.Since(i.Timestamp).Milliseconds()
}

// SetError marks the interaction as failed with an error message
func (i *Interaction) SetError(err error) {
	i.Success = false
	i.ErrorMessage = err.Error()
	i.ProcessingTime = time.Since(i.Timestamp).Milliseconds()
}

// ParamsJSON returns params as JSON string for database storage
func (i *Interaction) ParamsJSON() (string, error) {
	if i.Params == nil {
		return "{}", nil
	}

	data, err := json.Marshal(i.Params)
	if err != nil {
		return "", fmt.Errorf("failed to marshal params: %w", err)
	}

	return string(data), nil
}

// SetParamsFromJSON parses JSON string and sets params
func (i *Interaction) SetParamsFromJSON(jsonStr string) error {
	if jsonStr == "" || jsonStr == "{}" {
		i.Params = make(map[string]string)
		return nil
	}

	var params map[string]string
	if err := json.Unmarshal([]byte(jsonStr), &params); err != nil {
		return fmt.Errorf("failed to unmarshal params JSON: %w", err)
	}

	i.Params = params
	return nil
}

// IsValid performs basic validation on the interaction
func (i *Interaction) IsValid() error {
	if i.ID == "" {
		return fmt.Errorf("ID is required")
	}

	if _, err := uuid.Parse(i.ID); err != nil {
		return fmt.Errorf("ID must be a UUID: %w", err)
	}

	if i.KioskID == "" {
		return fmt.Errorf("kioskID is required")
	}

	if i.RequestID == "" {
		return fmt.Errorf("requestID is required")
	}

	if i.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}

	if i.LatencyMS < 0 {
		return fmt.Errorf("latency must not be negative")
	}

	return nil
}

// String returns a human-readable representation of the interaction
func (i *Interaction) String() string {
	return fmt.Sprintf("Interaction{ID: %s, KioskID: %s, Token: %s, Utterance: %q, Fallback: %t, Success: %t}",
		i.ID, i.KioskID, i.Token, i.Utterance, i.Fallback, i.Success)
}
