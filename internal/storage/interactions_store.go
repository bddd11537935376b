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

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/loqalabs/loqa-kiosk/internal/events"
	"github.com/loqalabs/loqa-kiosk/internal/security"
)

// ErrInteractionNotFound is returned when no interaction has the given ID
var ErrInteractionNotFound = errors.New("interaction not found")

const interactionColumns = `id, request_id, kiosk_id, timestamp,
			   utterance, normalized, prompt,
			   raw_response, token, token_header, params, latency_ms,
			   api_method, response_text, fallback, processing_time_ms, success, error_message`

// InteractionsStore handles database operations for kiosk interactions
type InteractionsStore struct {
	db *Database
}

// NewInteractionsStore creates a new interactions store
func NewInteractionsStore(db *Database) *InteractionsStore {
	return &InteractionsStore{db: db}
}

// Insert stores a new interaction in the database
func (s *InteractionsStore) Insert(interaction *events.Interaction) error {
	if err := interaction.IsValid(); err != nil {
		return fmt.Errorf("invalid interaction: %w", err)
	}

	paramsJSON, err := interaction.ParamsJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize params: %w", err)
	}

	query := `
		INSERT INTO interactions (` + interactionColumns + `
		) VALUES (
			?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?
		)`

	_, err = s.db.DB().Exec(query,
		interaction.ID, interaction.RequestID, interaction.KioskID, interaction.Timestamp.UTC(),
		interaction.Utterance, interaction.Normalized, interaction.Prompt,
		interaction.RawResponse, interaction.Token, interaction.TokenHeader, paramsJSON, interaction.LatencyMS,
		interaction.APIMethod, interaction.ResponseText, interaction.Fallback,
		interaction.ProcessingTime, interaction.Success, interaction.ErrorMessage,
	)

	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}

	log.Printf("📝 Stored interaction: %s (KioskID: %s, Token: %s)",
		interaction.ID, security.SanitizeLogInput(interaction.KioskID), interaction.Token)
	return nil
}

// GetByID retrieves an interaction by its ID
func (s *InteractionsStore) GetByID(id string) (*events.Interaction, error) {
	query := `SELECT ` + interactionColumns + ` FROM interactions WHERE id = ?`

	row := s.db.DB().QueryRow(query, id)
	return s.scanInteraction(row)
}

// List retrieves interactions with pagination and filtering
func (s *InteractionsStore) List(options ListOptions) ([]*events.Interaction, error) {
	query, args := s.buildListQuery(options)

	rows, err := s.db.DB().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	var list []*events.Interaction
	for rows.Next() {
		interaction, err := s.scanInteraction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		list = append(list, interaction)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interactions: %w", err)
	}

	return list, nil
}

// Count returns the total number of interactions matching the filter
func (s *InteractionsStore) Count(options ListOptions) (int64, error) {
	options.Limit = 0
	options.Offset = 0
	query, args := s.buildListQuery(options)

	countQuery := "SELECT COUNT(*) FROM (" + query + ") as filtered"

	var count int64
	err := s.db.DB().QueryRow(countQuery, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count interactions: %w", err)
	}

	return count, nil
}

// GetRecentByKiosk retrieves recent interactions for a specific kiosk
func (s *InteractionsStore) GetRecentByKiosk(kioskID string, limit int) ([]*events.Interaction, error) {
	return s.List(ListOptions{KioskID: kioskID, Limit: limit})
}

// Delete removes an interaction by ID
func (s *InteractionsStore) Delete(id string) error {
	result, err := s.db.DB().Exec("DELETE FROM interactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete interaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrInteractionNotFound, id)
	}

	log.Printf("🗑️  Deleted interaction: %s", id)
	return nil
}

// ListOptions defines filtering and pagination options
type ListOptions struct {
	// Filtering
	KioskID     string
	TokenHeader string
	Fallback    *bool // nil = all
	Success     *bool // nil = all, true = success only, false = errors only
	StartTime   *time.Time
	EndTime     *time.Time

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "timestamp", "latency", "processing_time"
	SortOrder string // "ASC", "DESC"
}

var sortColumns = map[string]string{
	"timestamp":       "timestamp",
	"latency":         "latency_ms",
	"processing_time": "processing_time_ms",
}

// buildListQuery constructs the SQL query based on ListOptions
func (s *InteractionsStore) buildListQuery(options ListOptions) (string, []interface{}) {
	query := `SELECT ` + interactionColumns + ` FROM interactions WHERE 1=1`

	var args []interface{}

	if options.KioskID != "" {
		query += " AND kiosk_id = ?"
		args = append(args, options.KioskID)
	}

	if options.TokenHeader != "" {
		query += " AND token_header = ?"
		args = append(args, options.TokenHeader)
	}

	if options.Fallback != nil {
		query += " AND fallback = ?"
		args = append(args, *options.Fallback)
	}

	if options.Success != nil {
		query += " AND success = ?"
		args = append(args, *options.Success)
	}

	if options.StartTime != nil {
		query += " AND timestamp >= ?"
		args = append(args, options.StartTime.UTC())
	}

	if options.EndTime != nil {
		query += " AND timestamp <= ?"
		args = append(args, options.EndTime.UTC())
	}

	// column names come from a whitelist, never from the request
	sortBy, ok := sortColumns[options.SortBy]
	if !ok {
		sortBy = "timestamp"
	}

	sortOrder := "DESC"
	if strings.EqualFold(options.SortOrder, "ASC") {
		sortOrder = "ASC"
	}

	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, sortOrder)

	if options.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, options.Limit)

		if options.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, options.Offset)
		}
	}

	return query, args
}

// scanInteraction scans a database row into an Interaction
func (s *InteractionsStore) scanInteraction(row interface {
	Scan(dest ...interface{}) error
}) (*events.Interaction, error) {
	var interaction events.Interaction
	var paramsJSON string

	err := row.Scan(
		&interaction.ID, &interaction.RequestID, &interaction.KioskID, &interaction.Timestamp,
		&interaction.Utterance, &interaction.Normalized, &interaction.Prompt,
		&interaction.RawResponse, &interaction.Token, &interaction.TokenHeader, &paramsJSON, &interaction.LatencyMS,
		&interaction.APIMethod, &interaction.ResponseText, &interaction.Fallback,
		&interaction.ProcessingTime, &interaction.Success, &interaction.ErrorMessage,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInteractionNotFound
		}
		return nil, err
	}

	if err := interaction.SetParamsFromJSON(paramsJSON); err != nil {
		return nil, fmt.Errorf("failed to parse params JSON: %w", err)
	}

	return &interaction, nil
}
