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
	"sort"
	"strings"

	"github.com/loqalabs/loqa-kiosk/internal/command"
	"github.com/loqalabs/loqa-kiosk/internal/logging"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrAnswerNotFound is returned when no catalogue entry matches a token
var ErrAnswerNotFound = errors.New("answer not found")

// Answer maps a command token onto the kiosk API method and the sentence
// spoken back to the customer.
type Answer struct {
	ID          int64             `json:"id" yaml:"-"`
	TokenHeader string            `json:"token_header" yaml:"token_header"`
	APIMethod   string            `json:"api_method" yaml:"api_method"`
	AnswerKR    string            `json:"answer_kr" yaml:"answer_kr"`
	AnswerEN    string            `json:"answer_en" yaml:"answer_en"`
	LLMParams   map[string]string `json:"llm_params" yaml:"llm_params"`
	APIParams   map[string]string `json:"api_params,omitempty" yaml:"api_params,omitempty"`
}

// Text returns the answer in the requested language ("kr" or "en")
func (a *Answer) Text(language string) string {
	if strings.EqualFold(language, "en") {
		return a.AnswerEN
	}
	return a.AnswerKR
}

type answerSeed struct {
	Answers []*Answer `yaml:"answers"`
}

// DefaultAnswers parses the bundled answer catalogue
func DefaultAnswers() ([]*Answer, error) {
	data, err := schemaFiles.ReadFile("answers.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read answers.yaml: %w", err)
	}

	var seed answerSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse answers.yaml: %w", err)
	}
	return seed.Answers, nil
}

// AnswerStore handles database operations for the answer catalogue
type AnswerStore struct {
	db *Database
}

// NewAnswerStore creates a new answer store
func NewAnswerStore(db *Database) *AnswerStore {
	return &AnswerStore{db: db}
}

// Insert stores an answer unless one with the same header and llm params
// exists. It reports whether a row was written.
func (s *AnswerStore) Insert(answer *Answer) (bool, error) {
	if answer.TokenHeader == "" || answer.APIMethod == "" {
		return false, fmt.Errorf("token header and api method are required")
	}
	if _, err := command.ParseHeader(answer.TokenHeader); err != nil {
		return false, err
	}

	existing, err := s.Lookup(answer.TokenHeader, answer.LLMParams)
	if err == nil {
		answer.ID = existing.ID
		return false, nil
	}
	if !errors.Is(err, ErrAnswerNotFound) {
		return false, err
	}

	tx, err := s.db.DB().Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(
		"INSERT INTO api_call (token_header, api_method, answer_kr, answer_en) VALUES (?, ?, ?, ?)",
		answer.TokenHeader, answer.APIMethod, answer.AnswerKR, answer.AnswerEN)
	if err != nil {
		return false, fmt.Errorf("failed to insert answer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get answer id: %w", err)
	}

	if err := insertParams(tx, "llm_param", id, answer.LLMParams); err != nil {
		return false, err
	}
	if err := insertParams(tx, "api_param", id, answer.APIParams); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit answer: %w", err)
	}

	answer.ID = id
	logging.LogDatabaseOperation("INSERT", "api_call",
		zap.Int64("id", id), zap.String("token_header", answer.TokenHeader))
	return true, nil
}

func insertParams(tx *sql.Tx, table string, apiCallID int64, params map[string]string) error {
	for _, key := range sortedKeys(params) {
		query := fmt.Sprintf("INSERT INTO %s (api_call_id, param, value) VALUES (?, ?, ?)", table)
		if _, err := tx.Exec(query, apiCallID, key, params[key]); err != nil {
			return fmt.Errorf("failed to insert %s: %w", table, err)
		}
	}
	return nil
}

// Seed inserts entries that are not yet present and returns how many were added
func (s *AnswerStore) Seed(entries []*Answer) (int, error) {
	added := 0
	for _, entry := range entries {
		inserted, err := s.Insert(entry)
		if err != nil {
			return added, fmt.Errorf("failed to seed %s: %w", entry.TokenHeader, err)
		}
		if inserted {
			added++
		}
	}

	log.Printf("🌱 Seeded answer catalogue: %d new of %d entries", added, len(entries))
	return added, nil
}

// SeedDefaults seeds the bundled catalogue
func (s *AnswerStore) SeedDefaults() (int, error) {
	entries, err := DefaultAnswers()
	if err != nil {
		return 0, err
	}
	return s.Seed(entries)
}

// Lookup finds the answer for a token header whose llm params include every
// given key/value pair.
func (s *AnswerStore) Lookup(tokenHeader string, params map[string]string) (*Answer, error) {
	query := "SELECT ac.id, ac.token_header, ac.api_method, ac.answer_kr, ac.answer_en FROM api_call ac "
	keys := sortedKeys(params)
	for i := range keys {
		query += fmt.Sprintf("JOIN llm_param lp%d ON ac.id = lp%d.api_call_id ", i, i)
	}
	query += "WHERE ac.token_header = ? "

	args := []interface{}{tokenHeader}
	for i, key := range keys {
		query += fmt.Sprintf("AND lp%d.param = ? AND lp%d.value = ? ", i, i)
		args = append(args, key, params[key])
	}
	query += "ORDER BY ac.id LIMIT 1"

	var answer Answer
	err := s.db.DB().QueryRow(query, args...).Scan(
		&answer.ID, &answer.TokenHeader, &answer.APIMethod, &answer.AnswerKR, &answer.AnswerEN)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s %v", ErrAnswerNotFound, tokenHeader, params)
		}
		return nil, fmt.Errorf("failed to look up answer: %w", err)
	}

	if err := s.loadParams(&answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

// LookupToken finds the answer for a parsed command token
func (s *AnswerStore) LookupToken(tok command.Token) (*Answer, error) {
	return s.Lookup(tok.Header(), tok.Params())
}

// List returns the whole catalogue ordered by token header
func (s *AnswerStore) List() ([]*Answer, error) {
	rows, err := s.db.DB().Query(
		"SELECT id, token_header, api_method, answer_kr, answer_en FROM api_call ORDER BY token_header, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}

	var answers []*Answer
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.ID, &a.TokenHeader, &a.APIMethod, &a.AnswerKR, &a.AnswerEN); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, &a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating answers: %w", err)
	}
	rows.Close()

	// params are loaded after the cursor is closed; the pool has one connection
	for _, a := range answers {
		if err := s.loadParams(a); err != nil {
			return nil, err
		}
	}
	return answers, nil
}

// Count returns the number of catalogue entries
func (s *AnswerStore) Count() (int64, error) {
	var count int64
	if err := s.db.DB().QueryRow("SELECT COUNT(*) FROM api_call").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count answers: %w", err)
	}
	return count, nil
}

// Delete removes an answer and its params
func (s *AnswerStore) Delete(id int64) error {
	result, err := s.db.DB().Exec("DELETE FROM api_call WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete answer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrAnswerNotFound, id)
	}

	logging.LogDatabaseOperation("DELETE", "api_call", zap.Int64("id", id))
	return nil
}

func (s *AnswerStore) loadParams(a *Answer) error {
	var err error
	if a.LLMParams, err = s.queryParams("llm_param", a.ID); err != nil {
		return err
	}
	if a.APIParams, err = s.queryParams("api_param", a.ID); err != nil {
		return err
	}
	return nil
}

func (s *AnswerStore) queryParams(table string, apiCallID int64) (map[string]string, error) {
	query := fmt.Sprintf("SELECT param, value FROM %s WHERE api_call_id = ? ORDER BY id", table)
	rows, err := s.db.DB().Query(query, apiCallID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	params := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		params[key] = value
	}
	return params, rows.Err()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
