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

// Package dialog adapts the on-device dialog runtime into a session with
// explicit lifecycle: configure, open a dialog, query, release.
package dialog

import (
	"errors"
	"fmt"
	"os"

	"github.com/loqalabs/loqa-kiosk/internal/genie"
	"github.com/loqalabs/loqa-kiosk/internal/logging"
	"go.uber.org/zap"
)

// DefaultConfigPath is where the kiosk image ships the runtime configuration
const DefaultConfigPath = "/data/local/tmp/llama-maum-skm-htp.json"

var (
	ErrConfigInit  = errors.New("dialog config init failed")
	ErrDialogInit  = errors.New("dialog init failed")
	ErrQueryEngine = errors.New("dialog query failed")
	ErrNotReady    = errors.New("dialog session not ready")
)

// Config owns one runtime dialog configuration handle
type Config struct {
	engine genie.Engine
	handle genie.ConfigHandle
}

// NewConfig creates an empty configuration bound to engine
func NewConfig(engine genie.Engine) *Config {
	return &Config{engine: engine}
}

// Init reads the whole file at path and builds the configuration from it.
// It is a no-op when a configuration is already held.
func (c *Config) Init(path string) error {
	if c.handle != 0 {
		logging.LogWarn("Dialog config already initialized", zap.String("path", path))
		return nil
	}

	// read to end of file so embedded NULs do not truncate the text
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrConfigInit, path, err)
	}

	status, handle := c.engine.CreateConfigFromJSON(string(data))
	logging.LogEngineCall("config_create", int32(status), zap.String("path", path))
	if !status.OK() || handle == 0 {
		return fmt.Errorf("%w: status=%s path=%s", ErrConfigInit, status, path)
	}

	c.handle = handle
	return nil
}

// Held reports whether a configuration handle is live
func (c *Config) Held() bool {
	return c.handle != 0
}

// Close frees the configuration once; later calls only log
func (c *Config) Close() {
	if c.handle == 0 {
		logging.LogWarn("Dialog config not initialized")
		return
	}

	status := c.engine.FreeConfig(c.handle)
	logging.LogEngineCall("config_free", int32(status))
	c.handle = 0
}

// Dialog owns one runtime dialog handle built from a live Config
type Dialog struct {
	engine genie.Engine
	handle genie.DialogHandle
}

// NewDialog creates an empty dialog bound to engine
func NewDialog(engine genie.Engine) *Dialog {
	return &Dialog{engine: engine}
}

// Init builds the dialog from cfg. It is a no-op when a dialog is already held.
func (d *Dialog) Init(cfg *Config) error {
	if d.handle != 0 {
		logging.LogWarn("Dialog already initialized")
		return nil
	}
	if cfg == nil || !cfg.Held() {
		return fmt.Errorf("%w: config not initialized", ErrDialogInit)
	}

	status, handle := d.engine.CreateDialog(cfg.handle)
	logging.LogEngineCall("dialog_create", int32(status))
	if !status.OK() || handle == 0 {
		return fmt.Errorf("%w: status=%s", ErrDialogInit, status)
	}

	d.handle = handle
	return nil
}

// Held reports whether a dialog handle is live
func (d *Dialog) Held() bool {
	return d.handle != 0
}

// Close frees the dialog once; later calls only log
func (d *Dialog) Close() {
	if d.handle == 0 {
		logging.LogWarn("Dialog not initialized")
		return
	}

	status := d.engine.FreeDialog(d.handle)
	logging.LogEngineCall("dialog_free", int32(status))
	d.handle = 0
}
