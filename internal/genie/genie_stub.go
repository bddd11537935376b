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

//go:build !genie

package genie

// nativeEngine is a stub implementation when the runtime is not linked
type nativeEngine struct{}

// New returns the stub engine (build with -tags genie to link the runtime)
func New() Engine {
	return nativeEngine{}
}

// Available reports whether the native runtime is linked into this binary
func Available() bool {
	return false
}

func (nativeEngine) CreateConfigFromJSON(string) (Status, ConfigHandle) {
	return StatusUnavailable, 0
}

func (nativeEngine) FreeConfig(ConfigHandle) Status {
	return StatusUnavailable
}

func (nativeEngine) CreateDialog(ConfigHandle) (Status, DialogHandle) {
	return StatusUnavailable, 0
}

func (nativeEngine) FreeDialog(DialogHandle) Status {
	return StatusUnavailable
}

func (nativeEngine) ResetDialog(DialogHandle) Status {
	return StatusUnavailable
}

func (nativeEngine) QueryDialog(DialogHandle, string, SentenceCode, QueryCallback) Status {
	return StatusUnavailable
}
