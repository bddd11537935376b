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

// Package genie describes the on-device dialog runtime the kiosk talks to.
// The runtime is opaque: configs and dialogs are handles, queries stream
// their answer through a synchronous callback.
package genie

import "fmt"

// Status is the runtime's return code
type Status int32

const (
	StatusSuccess      Status = 0
	StatusErrorGeneral Status = -1
	// StatusUnavailable is never produced by the native runtime; the stub
	// binding returns it when the binary was built without the runtime.
	StatusUnavailable Status = -100
)

// OK reports whether the status is success
func (s Status) OK() bool {
	return s == StatusSuccess
}

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// SentenceCode frames the fragments of one streamed response
type SentenceCode int

const (
	SentenceComplete SentenceCode = iota
	SentenceBegin
	SentenceContinue
	SentenceEnd
	SentenceAbort
)

func (c SentenceCode) String() string {
	switch c {
	case SentenceComplete:
		return "complete"
	case SentenceBegin:
		return "begin"
	case SentenceContinue:
		return "continue"
	case SentenceEnd:
		return "end"
	case SentenceAbort:
		return "abort"
	default:
		return fmt.Sprintf("sentence(%d)", int(c))
	}
}

// ConfigHandle references a runtime dialog configuration; zero is null
type ConfigHandle uintptr

// DialogHandle references a runtime dialog; zero is null
type DialogHandle uintptr

// Fragment is one callback invocation during a query
type Fragment struct {
	Text string
	// Null is set when the runtime passed a null string
	Null bool
	Code SentenceCode
}

// QueryCallback receives fragments synchronously, on the caller's stack
type QueryCallback func(Fragment)

// Engine is the narrow synchronous contract of the dialog runtime
type Engine interface {
	// CreateConfigFromJSON builds a dialog configuration from its JSON text
	CreateConfigFromJSON(json string) (Status, ConfigHandle)
	FreeConfig(h ConfigHandle) Status

	// CreateDialog builds a dialog bound to a live configuration
	CreateDialog(cfg ConfigHandle) (Status, DialogHandle)
	FreeDialog(h DialogHandle) Status

	// ResetDialog clears the dialog's turn state
	ResetDialog(h DialogHandle) Status

	// QueryDialog issues one prompt; cb runs zero or more times before it returns
	QueryDialog(h DialogHandle, prompt string, mode SentenceCode, cb QueryCallback) Status
}

// Native reports whether e is this binary's native binding (linked or stub)
func Native(e Engine) bool {
	_, ok := e.(nativeEngine)
	return ok
}
