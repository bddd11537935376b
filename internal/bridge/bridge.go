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

// Package bridge is the host-facing surface of the kiosk: Init, Infer,
// Generate and Release. Nothing here returns a Go error or lets a panic out;
// failures become status codes and sentinel answers.
package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/loqalabs/loqa-kiosk/internal/command"
	"github.com/loqalabs/loqa-kiosk/internal/dialog"
	"github.com/loqalabs/loqa-kiosk/internal/genie"
	"github.com/loqalabs/loqa-kiosk/internal/logging"
	"go.uber.org/zap"
)

// Init status codes
const (
	InitOK           = 0
	InitConfigFailed = -1
	InitDialogFailed = -2
)

// Options configures a Bridge
type Options struct {
	// ConfigPath is used when Init is given an empty path
	ConfigPath string
	// Strict reports init failures even when the runtime is not linked
	Strict bool
}

// Bridge routes host calls to the classifier and the dialog session
type Bridge struct {
	engine     genie.Engine
	classifier *command.Classifier
	session    *dialog.Session
	configPath string
	strict     bool
}

// New creates a bridge over engine with the default rule table
func New(engine genie.Engine, opts Options) *Bridge {
	if opts.ConfigPath == "" {
		opts.ConfigPath = dialog.DefaultConfigPath
	}
	return &Bridge{
		engine:     engine,
		classifier: command.NewDefaultClassifier(),
		session:    dialog.NewSession(engine),
		configPath: opts.ConfigPath,
		strict:     opts.Strict,
	}
}

// Init configures the dialog session from modelPath
func (b *Bridge) Init(modelPath string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			logging.LogError(fmt.Errorf("panic: %v", r), "Bridge init panicked")
			code = InitConfigFailed
		}
	}()

	path := modelPath
	if path == "" {
		path = b.configPath
	}

	err := b.session.Init(path)
	if err == nil {
		logging.LogDebug("Dialog session ready", zap.String("path", path))
		return InitOK
	}

	if b.lenient() {
		// without the runtime only the classifier path can serve
		logging.LogWarn("Dialog runtime not linked, serving classifier only",
			zap.String("path", path), zap.Error(err))
		return InitOK
	}

	logging.LogError(err, "Bridge init failed", zap.String("path", path))
	if errors.Is(err, dialog.ErrDialogInit) {
		return InitDialogFailed
	}
	return InitConfigFailed
}

func (b *Bridge) lenient() bool {
	return !b.strict && genie.Native(b.engine) && !genie.Available()
}

// Infer classifies prompt into a command token, or "" when nothing matches
func (b *Bridge) Infer(prompt string) (token string) {
	defer func() {
		if r := recover(); r != nil {
			logging.LogError(fmt.Errorf("panic: %v", r), "Bridge infer panicked")
			token = ""
		}
	}()

	token = b.classifier.ClassifyString(prompt)
	if token == "" {
		logging.LogDebug("No command matched", zap.String("utterance", prompt))
		return ""
	}
	logging.LogCommand(prompt, token)
	return token
}

// Generate asks the dialog session for free-form text
func (b *Bridge) Generate(prompt string) string {
	return b.GenerateContext(context.Background(), prompt)
}

// GenerateContext is Generate with a caller context checked before the
// engine call
func (b *Bridge) GenerateContext(ctx context.Context, prompt string) (answer string) {
	defer func() {
		if r := recover(); r != nil {
			logging.LogError(fmt.Errorf("panic: %v", r), "Bridge generate panicked")
			answer = dialog.AnswerEmpty
		}
	}()

	return dialog.Run(ctx, b.session, prompt)
}

// Release frees the dialog session; repeat calls are harmless
func (b *Bridge) Release() {
	defer func() {
		if r := recover(); r != nil {
			logging.LogError(fmt.Errorf("panic: %v", r), "Bridge release panicked")
		}
	}()

	b.session.Release()
}

// State reports the dialog session's lifecycle position
func (b *Bridge) State() dialog.State {
	return b.session.State()
}

// ConfigPath returns the default runtime configuration path
func (b *Bridge) ConfigPath() string {
	return b.configPath
}
