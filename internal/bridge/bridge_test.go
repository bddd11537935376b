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

package bridge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/loqalabs/loqa-kiosk/internal/command"
	"github.com/loqalabs/loqa-kiosk/internal/dialog"
	"github.com/loqalabs/loqa-kiosk/internal/genie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "genie.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"dialog":{}}`), 0o644))
	return path
}

func TestInitStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		engine *genie.MockEngine
		path   func(t *testing.T) string
		want   int
		state  dialog.State
	}{
		{"success", genie.NewMockEngine("ok"), configFile, InitOK, dialog.StateReady},
		{"missing file", genie.NewMockEngine("ok"), func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "missing.json")
		}, InitConfigFailed, dialog.StateUnconfigured},
		{"config rejected", &genie.MockEngine{ConfigStatus: genie.StatusErrorGeneral}, configFile, InitConfigFailed, dialog.StateUnconfigured},
		{"dialog rejected", &genie.MockEngine{DialogStatus: genie.StatusErrorGeneral}, configFile, InitDialogFailed, dialog.StateConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.engine, Options{})
			assert.Equal(t, tt.want, b.Init(tt.path(t)))
			assert.Equal(t, tt.state, b.State())
		})
	}
}

func TestInitEmptyPathUsesDefault(t *testing.T) {
	engine := genie.NewMockEngine("ok")
	path := configFile(t)

	b := New(engine, Options{ConfigPath: path})
	assert.Equal(t, InitOK, b.Init(""))
	assert.Equal(t, path, b.ConfigPath())
	assert.Equal(t, dialog.StateReady, b.State())
}

func TestNewDefaultsConfigPath(t *testing.T) {
	b := New(genie.NewMockEngine("ok"), Options{})
	assert.Equal(t, dialog.DefaultConfigPath, b.ConfigPath())
}

func TestInitWithoutRuntime(t *testing.T) {
	if genie.Available() {
		t.Skip("native runtime linked")
	}

	b := New(genie.New(), Options{})
	assert.Equal(t, InitOK, b.Init(configFile(t)), "classifier path keeps serving")
	assert.Equal(t, "<jarvis_1>(enable=True)", b.Infer("문 열어줘"))
	assert.Equal(t, dialog.AnswerDialogInitFailed, b.Generate("hello"))

	strict := New(genie.New(), Options{Strict: true})
	assert.Equal(t, InitConfigFailed, strict.Init(configFile(t)))
}

func TestInferMatchesClassifier(t *testing.T) {
	b := New(genie.NewMockEngine("ok"), Options{})
	classifier := command.NewDefaultClassifier()

	utterances := []string{
		"문 열어줘", "불 꺼줘", "에어컨 켜줘", "블라인드 내려줘",
		"새우깡 어디 있어", "B구역 보여줘", "음악 틀어줘", "가습기 꺼줘",
		"오늘 날씨 어때", "",
	}
	for _, u := range utterances {
		assert.Equal(t, classifier.ClassifyString(u), b.Infer(u), u)
	}
	assert.Empty(t, b.Infer("오늘 날씨 어때"))
}

func TestGenerate(t *testing.T) {
	engine := genie.NewMockEngine("안녕하세요")
	b := New(engine, Options{})

	assert.Equal(t, dialog.AnswerDialogInitFailed, b.Generate("hi"), "before init")

	require.Equal(t, InitOK, b.Init(configFile(t)))
	assert.Equal(t, "안녕하세요", b.Generate("hi"))
	assert.Equal(t, "안녕하세요", b.GenerateContext(context.Background(), "again"))
	assert.Equal(t, []string{
		genie.CallCreateConfig, genie.CallCreateDialog,
		genie.CallQuery, genie.CallReset, genie.CallQuery,
	}, engine.Calls())
}

func TestGenerateEmptyResponse(t *testing.T) {
	b := New(genie.NewMockEngine(""), Options{})
	require.Equal(t, InitOK, b.Init(configFile(t)))
	assert.Equal(t, dialog.AnswerEmpty, b.Generate("hi"))
}

func TestGenerateRecoversPanic(t *testing.T) {
	engine := &genie.MockEngine{
		QueryFunc: func(string, genie.QueryCallback) genie.Status {
			panic("runtime exploded")
		},
	}
	b := New(engine, Options{})
	require.Equal(t, InitOK, b.Init(configFile(t)))

	assert.NotPanics(t, func() {
		assert.Equal(t, dialog.AnswerEmpty, b.Generate("hi"))
	})
}

func TestReleaseRepeatable(t *testing.T) {
	engine := genie.NewMockEngine("ok")
	b := New(engine, Options{})
	require.Equal(t, InitOK, b.Init(configFile(t)))

	b.Release()
	b.Release()
	assert.Equal(t, dialog.StateReleased, b.State())
	assert.Equal(t, 1, engine.CallCount(genie.CallFreeDialog))
	assert.Equal(t, 1, engine.CallCount(genie.CallFreeConfig))
}
