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

package dialog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/loqalabs/loqa-kiosk/internal/genie"
	"github.com/loqalabs/loqa-kiosk/internal/logging"
	"go.uber.org/zap"
)

// State is the lifecycle position of a Session
type State int

const (
	StateUnconfigured State = iota
	StateConfigured
	StateReady
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfigured:
		return "configured"
	case StateReady:
		return "ready"
	case StateReleased:
		return "released"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is one configuration plus one dialog. At most one query runs at a
// time; every method serializes on the session mutex.
type Session struct {
	mu         sync.Mutex
	engine     genie.Engine
	config     *Config
	dialog     *Dialog
	needsReset bool
	released   bool
}

// NewSession creates an unconfigured session on engine
func NewSession(engine genie.Engine) *Session {
	return &Session{
		engine: engine,
		config: NewConfig(engine),
		dialog: NewDialog(engine),
	}
}

// InitConfig loads the runtime configuration from path
func (s *Session) InitConfig(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.config.Init(path); err != nil {
		return err
	}
	s.released = false
	return nil
}

// InitDialog opens the dialog on the held configuration
func (s *Session) InitDialog() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dialog.Held() {
		logging.LogWarn("Dialog already initialized")
		return nil
	}
	if err := s.dialog.Init(s.config); err != nil {
		return err
	}
	// a fresh dialog has no turn state to clear
	s.needsReset = false
	return nil
}

// Init runs InitConfig then InitDialog
func (s *Session) Init(path string) error {
	if err := s.InitConfig(path); err != nil {
		return err
	}
	return s.InitDialog()
}

// Query sends prompt to the dialog and returns the accumulated answer.
// A non-success engine status is returned as ErrQueryEngine together with
// whatever text arrived before the failure.
func (s *Session) Query(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dialog.Held() {
		logging.LogWarn("Dialog query before init")
		return "", ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if s.needsReset {
		// the reset status does not gate the query
		status := s.engine.ResetDialog(s.dialog.handle)
		logging.LogEngineCall("dialog_reset", int32(status))
	}

	var answer strings.Builder
	start := time.Now()
	status := s.engine.QueryDialog(s.dialog.handle, prompt, genie.SentenceComplete, func(f genie.Fragment) {
		if f.Code == genie.SentenceAbort || f.Code == genie.SentenceEnd {
			return
		}
		if f.Null {
			return
		}
		if f.Code == genie.SentenceBegin {
			answer.Reset()
		}
		answer.WriteString(f.Text)
	})
	s.needsReset = true

	logging.LogEngineCall("dialog_query", int32(status),
		zap.Int("prompt_length", len(prompt)),
		zap.Int("answer_length", answer.Len()),
		zap.Duration("duration", time.Since(start)))

	if !status.OK() {
		return answer.String(), fmt.Errorf("%w: status=%s", ErrQueryEngine, status)
	}
	return answer.String(), nil
}

// Release frees the dialog then the configuration. Safe to call repeatedly.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dialog.Held() && !s.config.Held() {
		logging.LogWarn("Dialog session release with nothing held")
	}
	if s.dialog.Held() {
		s.dialog.Close()
	}
	if s.config.Held() {
		s.config.Close()
	}
	s.needsReset = false
	s.released = true
}

// State reports the session's lifecycle position
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.dialog.Held():
		return StateReady
	case s.config.Held():
		return StateConfigured
	case s.released:
		return StateReleased
	default:
		return StateUnconfigured
	}
}

// NeedsReset reports whether the next query will reset the dialog first
func (s *Session) NeedsReset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needsReset
}
