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

	"github.com/loqalabs/loqa-kiosk/internal/genie"
	"github.com/loqalabs/loqa-kiosk/internal/logging"
	"go.uber.org/zap"
)

// Answers returned in place of engine text
const (
	AnswerConfigInitFailed = "[ERROR] Config Init failed"
	AnswerDialogInitFailed = "[ERROR] Dialog Init failed"
	AnswerEmpty            = "[EMPTY RESPONSE]"
)

// Run queries an already initialized session and maps the outcome onto the
// answer sentinels.
func Run(ctx context.Context, s *Session, prompt string) string {
	if s.State() != StateReady {
		return AnswerDialogInitFailed
	}

	text, err := s.Query(ctx, prompt)
	if err != nil {
		logging.LogWarn("Dialog query returned error", zap.Error(err))
	}
	if text == "" {
		return AnswerEmpty
	}
	return text
}

// RunOnce configures a fresh session on engine from path, asks one prompt and
// releases everything before returning.
func RunOnce(ctx context.Context, engine genie.Engine, path, prompt string) string {
	s := NewSession(engine)
	defer s.Release()

	if err := s.InitConfig(path); err != nil {
		logging.LogError(err, "Dialog config init failed", zap.String("path", path))
		return AnswerConfigInitFailed
	}
	if err := s.InitDialog(); err != nil {
		logging.LogError(err, "Dialog init failed")
		return AnswerDialogInitFailed
	}

	return Run(ctx, s, prompt)
}
