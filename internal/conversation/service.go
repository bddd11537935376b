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

// Package conversation turns a customer utterance into a command token and
// the sentence the kiosk speaks back.
package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/loqalabs/loqa-kiosk/internal/command"
	"github.com/loqalabs/loqa-kiosk/internal/events"
	"github.com/loqalabs/loqa-kiosk/internal/logging"
	"github.com/loqalabs/loqa-kiosk/internal/security"
	"github.com/loqalabs/loqa-kiosk/internal/storage"
	"go.uber.org/zap"
)

// DefaultKioskID is used when a request names no kiosk
const DefaultKioskID = "kiosk"

// Inferer maps a prompt to engine output containing a command token.
// *bridge.Bridge satisfies it.
type Inferer interface {
	Infer(prompt string) string
}

// InfererFunc adapts a function to Inferer
type InfererFunc func(prompt string) string

// Infer calls f(prompt)
func (f InfererFunc) Infer(prompt string) string {
	return f(prompt)
}

// AnswerLookup resolves a token to its catalogue entry
type AnswerLookup interface {
	LookupToken(tok command.Token) (*storage.Answer, error)
}

// Recorder persists finished interactions
type Recorder interface {
	Insert(interaction *events.Interaction) error
}

// EventPublisher fans events out to other kiosk components
type EventPublisher interface {
	PublishCommand(event *events.CommandEvent) error
	PublishInteraction(interaction *events.Interaction) error
}

// Options configures a Service
type Options struct {
	Language  string // "kr" or "en"
	Recorder  Recorder
	Publisher EventPublisher
	Telemetry *Telemetry
}

// Result is the outcome of one utterance
type Result struct {
	InteractionID string          `json:"interaction_id"`
	KioskID       string          `json:"kiosk_id"`
	Normalized    string          `json:"normalized"`
	RawResponse   string          `json:"raw_response"`
	Token         string          `json:"token,omitempty"`
	Answer        *storage.Answer `json:"answer,omitempty"`
	SpeechText    string          `json:"speech_text"`
	Fallback      bool            `json:"fallback"`
	LatencyMS     int64           `json:"latency_ms"`
}

// Service runs the utterance pipeline
type Service struct {
	inferer   Inferer
	answers   AnswerLookup
	recorder  Recorder
	publisher EventPublisher
	telemetry *Telemetry
	language  string

	wg sync.WaitGroup
}

// NewService creates a conversation service. A nil inferer echoes the
// normalized utterance, as the kiosk does when no engine is linked.
func NewService(inferer Inferer, answers AnswerLookup, opts Options) *Service {
	return &Service{
		inferer:   inferer,
		answers:   answers,
		recorder:  opts.Recorder,
		publisher: opts.Publisher,
		telemetry: opts.Telemetry,
		language:  opts.Language,
	}
}

// Handle classifies utterance and resolves the spoken answer. When no token
// can be parsed or no answer matches, the normalized utterance is spoken and
// Fallback is set. Recording, publishing and telemetry never fail the call.
func (s *Service) Handle(ctx context.Context, kioskID, utterance string) (*Result, error) {
	if kioskID == "" {
		kioskID = DefaultKioskID
	}
	if err := security.ValidateKioskID(kioskID); err != nil {
		return nil, err
	}
	if err := security.ValidateUtterance(utterance); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	interaction := events.NewInteraction(kioskID, "")
	normalized := command.Normalize(utterance)
	prompt := command.BuildPrompt(normalized)
	interaction.SetInput(utterance, normalized, prompt)

	raw, latency := s.infer(prompt, normalized)

	result := &Result{
		InteractionID: interaction.ID,
		KioskID:       kioskID,
		Normalized:    normalized,
		RawResponse:   raw,
		LatencyMS:     latency.Milliseconds(),
	}

	tok, answer, err := s.resolve(raw)
	switch {
	case err != nil:
		logging.LogWarn("Falling back to normalized utterance",
			zap.String("kiosk_id", kioskID),
			zap.String("raw_response", security.SanitizeLogInput(raw)),
			zap.Error(err))
		result.SpeechText = normalized
		result.Fallback = true
		if tok != nil {
			result.Token = tok.String()
			interaction.SetInference(raw, tok.String(), tok.Header(), tok.Params(), latency)
		} else {
			interaction.SetInference(raw, "", "", nil, latency)
		}
		interaction.SetResponse("", normalized, true)
	default:
		result.Token = tok.String()
		result.Answer = answer
		result.SpeechText = answer.Text(s.language)
		interaction.SetInference(raw, tok.String(), tok.Header(), tok.Params(), latency)
		interaction.SetResponse(answer.APIMethod, result.SpeechText, false)
		logging.LogCommand(security.SanitizeLogInput(normalized), result.Token,
			zap.String("kiosk_id", kioskID),
			zap.String("api_method", answer.APIMethod))
		s.publishCommand(events.NewCommandEvent(kioskID, interaction.ID, *tok, answer.APIMethod))
	}

	s.record(interaction)
	s.report(raw, latency)
	return result, nil
}

func (s *Service) infer(prompt, normalized string) (string, time.Duration) {
	if s.inferer == nil {
		return normalized, 0
	}
	start := time.Now()
	raw := s.inferer.Infer(prompt)
	return raw, time.Since(start)
}

func (s *Service) resolve(raw string) (*command.Token, *storage.Answer, error) {
	tok, err := command.ParseToken(raw)
	if err != nil {
		return nil, nil, err
	}
	if s.answers == nil {
		return &tok, nil, fmt.Errorf("%w: no answer catalogue", storage.ErrAnswerNotFound)
	}
	answer, err := s.answers.LookupToken(tok)
	if err != nil {
		return &tok, nil, err
	}
	return &tok, answer, nil
}

func (s *Service) publishCommand(event *events.CommandEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishCommand(event); err != nil {
		logging.LogError(err, "Failed to publish command event", zap.String("token", event.Token))
	}
}

func (s *Service) record(interaction *events.Interaction) {
	if s.recorder != nil {
		if err := s.recorder.Insert(interaction); err != nil {
			logging.LogError(err, "Failed to record interaction", zap.String("interaction_id", interaction.ID))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishInteraction(interaction); err != nil {
			logging.LogError(err, "Failed to publish interaction", zap.String("interaction_id", interaction.ID))
		}
	}
	logging.LogInteraction(interaction, "Interaction completed",
		zap.String("token", interaction.Token),
		zap.Bool("fallback", interaction.Fallback),
		zap.Int64("latency_ms", interaction.LatencyMS))
}

// report posts telemetry in the background; Wait blocks until it is delivered
func (s *Service) report(raw string, latency time.Duration) {
	if s.telemetry == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.telemetry.SendLLM(context.Background(), raw, latency); err != nil {
			logging.LogDebug("Telemetry report skipped", zap.Error(err))
		}
	}()
}

// Wait blocks until pending telemetry reports finish
func (s *Service) Wait() {
	s.wg.Wait()
}
