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

package genie

import (
	"sync"
)

// Call names recorded by MockEngine
const (
	CallCreateConfig = "create_config"
	CallFreeConfig   = "free_config"
	CallCreateDialog = "create_dialog"
	CallFreeDialog   = "free_dialog"
	CallReset        = "reset"
	CallQuery        = "query"
)

// MockEngine implements Engine for testing. It records every call in order
// and replays scripted fragments for queries.
type MockEngine struct {
	mu sync.Mutex

	ConfigStatus Status
	DialogStatus Status
	QueryStatus  Status
	ResetStatus  Status

	// NullConfig and NullDialog make create succeed with a zero handle
	NullConfig bool
	NullDialog bool

	// Responses holds the fragments emitted by each successive query.
	// The last entry repeats once the script runs out.
	Responses [][]Fragment

	// QueryFunc overrides Responses when set
	QueryFunc func(prompt string, emit QueryCallback) Status

	calls      []string
	configJSON []string
	prompts    []string
	queries    int
	nextHandle uintptr
	configs    map[ConfigHandle]bool
	dialogs    map[DialogHandle]bool
}

// NewMockEngine creates a mock that succeeds everywhere and answers each
// query with a single complete fragment carrying response.
func NewMockEngine(response string) *MockEngine {
	return &MockEngine{
		Responses: [][]Fragment{{{Text: response, Code: SentenceComplete}}},
	}
}

// Text builds a fragment with the given code
func Text(text string, code SentenceCode) Fragment {
	return Fragment{Text: text, Code: code}
}

// NullFragment builds a fragment carrying a null string
func NullFragment(code SentenceCode) Fragment {
	return Fragment{Null: true, Code: code}
}

func (m *MockEngine) record(name string) {
	m.calls = append(m.calls, name)
}

func (m *MockEngine) handle() uintptr {
	m.nextHandle++
	return m.nextHandle
}

func (m *MockEngine) CreateConfigFromJSON(json string) (Status, ConfigHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(CallCreateConfig)
	m.configJSON = append(m.configJSON, json)
	if !m.ConfigStatus.OK() {
		return m.ConfigStatus, 0
	}
	if m.NullConfig {
		return StatusSuccess, 0
	}

	if m.configs == nil {
		m.configs = make(map[ConfigHandle]bool)
	}
	h := ConfigHandle(m.handle())
	m.configs[h] = true
	return StatusSuccess, h
}

func (m *MockEngine) FreeConfig(h ConfigHandle) Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(CallFreeConfig)
	if !m.configs[h] {
		return StatusErrorGeneral
	}
	delete(m.configs, h)
	return StatusSuccess
}

func (m *MockEngine) CreateDialog(cfg ConfigHandle) (Status, DialogHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(CallCreateDialog)
	if !m.configs[cfg] {
		return StatusErrorGeneral, 0
	}
	if !m.DialogStatus.OK() {
		return m.DialogStatus, 0
	}
	if m.NullDialog {
		return StatusSuccess, 0
	}

	if m.dialogs == nil {
		m.dialogs = make(map[DialogHandle]bool)
	}
	h := DialogHandle(m.handle())
	m.dialogs[h] = true
	return StatusSuccess, h
}

func (m *MockEngine) FreeDialog(h DialogHandle) Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(CallFreeDialog)
	if !m.dialogs[h] {
		return StatusErrorGeneral
	}
	delete(m.dialogs, h)
	return StatusSuccess
}

func (m *MockEngine) ResetDialog(h DialogHandle) Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(CallReset)
	if !m.dialogs[h] {
		return StatusErrorGeneral
	}
	return m.ResetStatus
}

func (m *MockEngine) QueryDialog(h DialogHandle, prompt string, mode SentenceCode, cb QueryCallback) Status {
	m.mu.Lock()
	m.record(CallQuery)
	m.prompts = append(m.prompts, prompt)
	live := m.dialogs[h]
	fn := m.QueryFunc
	var script []Fragment
	if len(m.Responses) > 0 {
		i := m.queries
		if i >= len(m.Responses) {
			i = len(m.Responses) - 1
		}
		script = m.Responses[i]
	}
	m.queries++
	status := m.QueryStatus
	m.mu.Unlock()

	if !live {
		return StatusErrorGeneral
	}

	// fragments are delivered without holding the lock, like the runtime
	// calling back on the caller's stack
	if fn != nil {
		return fn(prompt, cb)
	}
	for _, f := range script {
		cb(f)
	}
	return status
}

// Calls returns the recorded call names in order
func (m *MockEngine) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times the named call was made
func (m *MockEngine) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

// Prompts returns the prompts passed to QueryDialog in order
func (m *MockEngine) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// ConfigJSON returns the JSON texts passed to CreateConfigFromJSON
func (m *MockEngine) ConfigJSON() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.configJSON...)
}

// Live reports the number of configs and dialogs not yet freed
func (m *MockEngine) Live() (configs, dialogs int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.configs), len(m.dialogs)
}
