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

package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// TelemetryPath is appended to the telemetry base URL for inference reports
const TelemetryPath = "suda/llm"

// LLMReport is the body posted after every inference
type LLMReport struct {
	Data         string  `json:"data"`
	ResponseTime float64 `json:"response_time"`
}

// Telemetry posts inference reports to the store dashboard
type Telemetry struct {
	endpoint string
	client   *http.Client
}

// NewTelemetry returns nil when baseURL is empty
func NewTelemetry(baseURL string, timeout time.Duration) *Telemetry {
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Telemetry{
		endpoint: strings.TrimRight(baseURL, "/") + "/" + TelemetryPath,
		client:   &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the full report URL
func (t *Telemetry) Endpoint() string {
	return t.endpoint
}

// SendLLM reports the raw engine output and its latency
func (t *Telemetry) SendLLM(ctx context.Context, raw string, latency time.Duration) error {
	body, err := json.Marshal(LLMReport{
		Data:         raw,
		ResponseTime: float64(latency.Microseconds()) / 1000,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telemetry endpoint unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry endpoint returned %d", resp.StatusCode)
	}
	return nil
}
