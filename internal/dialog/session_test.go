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
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/loqalabs/loqa-kiosk/internal/genie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "genie.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readySession(t *testing.T, engine *genie.MockEngine) *Session {
	t.Helper()
	s := NewSession(engine)
	require.NoError(t, s.Init(writeConfig(t, `{"dialog":{"version":1}}`)))
	require.Equal(t, StateReady, s.State())
	return s
}

func TestSessionLifecycle(t *testing.T) {
	engine := genie.NewMockEngine("ok")
	s := NewSession(engine)
	assert.Equal(t, StateUnconfigured, s.State())

	require.NoError(t, s.InitConfig(writeConfig(t, "{}")))
	assert.Equal(t, StateConfigured, s.State())

	require.NoError(t, s.InitDialog())
	assert.Equal(t, StateReady, s.State())

	s.Release()
	assert.Equal(t, StateReleased, s.State())

	configs, dialogs := engine.Live()
	assert.Zero(t, configs)
	assert.Zero(t, dialogs)
}

func TestInitConfigMissingFile(t *testing.T) {
	engine := genie.NewMockEngine("ok")
	s := NewSession(engine)

	err := s.InitConfig(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigInit))
	assert.Equal(t, StateUnconfigured, s.State())
	assert.Zero(t, engine.CallCount(genie.CallCreateConfig))
}

func TestInitConfigEngineFailure(t *testing.T) {
	tests := []struct {
		name   string
		engine *genie.MockEngine
	}{
		{"non-success status", &genie.MockEngine{ConfigStatus: genie.StatusErrorGeneral}},
		{"null handle", &genie.MockEngine{NullConfig: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(tt.engine)
			err := s.InitConfig(writeConfig(t, "{}"))
			assert.ErrorIs(t, err, ErrConfigInit)
			assert.Equal(t, StateUnconfigured, s.State())
		})
	}
}

func TestInitConfigPreservesEmbeddedNUL(t *testing.T) {
	engine := genie.NewMockEngine("ok")
	content := "{\"a\":1}\x00{\"b\":2}"

	s := NewSession(engine)
	require.NoError(t, s.InitConfig(writeConfig(t, content)))
	assert.Equal(t, []string{content}, engine.ConfigJSON())
}

func TestInitConfigIdempotent(t *testing.T) {
	engine := genie.NewMockEngine("ok")
	s := NewSession(engine)
	path := writeConfig(t, "{}")

	require.NoError(t, s.InitConfig(path))
	require.NoError(t, s.InitConfig(path))
	assert.Equal(t, 1, engine.CallCount(genie.CallCreateConfig))
}

func TestInitDialogFailures(t *testing.T) {
	t.Run("without config", func(t *testing.T) {
		engine := genie.NewMockEngine("ok")
		s := NewSession(engine)
		assert.ErrorIs(t, s.InitDialog(), ErrDialogInit)
		assert.Zero(t, engine.CallCount(genie.CallCreateDialog))
	})

	t.Run("non-success status", func(t *testing.T) {
		s := NewSession(&genie.MockEngine{DialogStatus: genie.StatusErrorGeneral})
		require.NoError(t, s.InitConfig(writeConfig(t, "{}")))
		assert.ErrorIs(t, s.InitDialog(), ErrDialogInit)
		assert.Equal(t, StateConfigured, s.State())
	})

	t.Run("null handle", func(t *testing.T) {
		s := NewSession(&genie.MockEngine{NullDialog: true})
		require.NoError(t, s.InitConfig(writeConfig(t, "{}")))
		assert.ErrorIs(t, s.InitDialog(), ErrDialogInit)
	})

	t.Run("already initialized", func(t *testing.T) {
		engine := genie.NewMockEngine("ok")
		s := readySession(t, engine)
		assert.NoError(t, s.InitDialog())
		assert.Equal(t, 1, engine.CallCount(genie.CallCreateDialog))
	})
}

func TestQueryResetsBeforeSecondQueryOnly(t *testing.T) {
	engine := genie.NewMockEngine("answer")
	s := readySession(t, engine)
	ctx := context.Background()

	assert.False(t, s.NeedsReset())
	text, err := s.Query(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
	assert.True(t, s.NeedsReset())

	_, err = s.Query(ctx, "second")
	require.NoError(t, err)

	assert.Equal(t, []string{
		genie.CallCreateConfig, genie.CallCreateDialog,
		genie.CallQuery, genie.CallReset, genie.CallQuery,
	}, engine.Calls())
}

func TestQueryIgnoresResetStatus(t *testing.T) {
	engine := genie.NewMockEngine("answer")
	engine.ResetStatus = genie.StatusErrorGeneral
	s := readySession(t, engine)

	_, _ = s.Query(context.Background(), "first")
	text, err := s.Query(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
}

func TestQueryAccumulation(t *testing.T) {
	tests := []struct {
		name      string
		fragments []genie.Fragment
		want      string
	}{
		{
			name:      "single complete",
			fragments: []genie.Fragment{genie.Text("<jarvis_1>(enable=True)", genie.SentenceComplete)},
			want:      "<jarvis_1>(enable=True)",
		},
		{
			name: "streamed",
			fragments: []genie.Fragment{
				genie.Text("<jarvis_", genie.SentenceBegin),
				genie.Text("4>", genie.SentenceContinue),
				genie.Text("(product=3)", genie.SentenceContinue),
				genie.Text("ignored", genie.SentenceEnd),
			},
			want: "<jarvis_4>(product=3)",
		},
		{
			name: "begin clears earlier text",
			fragments: []genie.Fragment{
				genie.Text("stale", genie.SentenceContinue),
				genie.Text("fresh", genie.SentenceBegin),
			},
			want: "fresh",
		},
		{
			name: "null fragments and abort ignored",
			fragments: []genie.Fragment{
				genie.Text("a", genie.SentenceBegin),
				genie.NullFragment(genie.SentenceBegin),
				genie.Text("b", genie.SentenceContinue),
				genie.Text("x", genie.SentenceAbort),
			},
			want: "ab",
		},
		{
			name:      "no fragments",
			fragments: nil,
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &genie.MockEngine{Responses: [][]genie.Fragment{tt.fragments}}
			s := readySession(t, engine)

			text, err := s.Query(context.Background(), "prompt")
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestQueryBufferDoesNotLeakAcrossQueries(t *testing.T) {
	engine := &genie.MockEngine{Responses: [][]genie.Fragment{
		{genie.Text("first", genie.SentenceComplete)},
		nil,
	}}
	s := readySession(t, engine)

	text, _ := s.Query(context.Background(), "one")
	assert.Equal(t, "first", text)

	text, _ = s.Query(context.Background(), "two")
	assert.Empty(t, text)
}

func TestQueryEngineFailureKeepsText(t *testing.T) {
	engine := &genie.MockEngine{
		QueryStatus: genie.StatusErrorGeneral,
		Responses:   [][]genie.Fragment{{genie.Text("partial", genie.SentenceBegin)}},
	}
	s := readySession(t, engine)

	text, err := s.Query(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrQueryEngine)
	assert.Equal(t, "partial", text)
	assert.True(t, s.NeedsReset(), "reset flag is set even after a failed query")
}

func TestQueryNotReady(t *testing.T) {
	engine := genie.NewMockEngine("ok")
	s := NewSession(engine)

	text, err := s.Query(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Empty(t, text)
	assert.Zero(t, engine.CallCount(genie.CallQuery))
}

func TestQueryCancelledContext(t *testing.T) {
	engine := genie.NewMockEngine("ok")
	s := readySession(t, engine)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Query(ctx, "prompt")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, engine.CallCount(genie.CallQuery))
	assert.False(t, s.NeedsReset())
}

func TestReleaseTwice(t *testing.T) {
	engine := genie.NewMockEngine("ok")
	s := readySession(t, engine)

	s.Release()
	s.Release()

	assert.Equal(t, 1, engine.CallCount(genie.CallFreeDialog))
	assert.Equal(t, 1, engine.CallCount(genie.CallFreeConfig))
	assert.Equal(t, []string{
		genie.CallCreateConfig, genie.CallCreateDialog,
		genie.CallFreeDialog, genie.CallFreeConfig,
	}, engine.Calls())
}

func TestReleaseUnconfigured(t *testing.T) {
	engine := genie.NewMockEngine("ok")
	s := NewSession(engine)

	s.Release()
	assert.Empty(t, engine.Calls())
	assert.Equal(t, StateReleased, s.State())
}

func TestReinitAfterRelease(t *testing.T) {
	engine := genie.NewMockEngine("ok")
	s := readySession(t, engine)
	_, _ = s.Query(context.Background(), "one")
	s.Release()

	require.NoError(t, s.Init(writeConfig(t, "{}")))
	assert.Equal(t, StateReady, s.State())
	assert.False(t, s.NeedsReset())
}

func TestConcurrentQueriesAreSerialized(t *testing.T) {
	var (
		mu       sync.Mutex
		inFlight int
		maxSeen  int
	)
	engine := &genie.MockEngine{
		QueryFunc: func(prompt string, emit genie.QueryCallback) genie.Status {
			mu.Lock()
			inFlight++
			if inFlight > maxSeen {
				maxSeen = inFlight
			}
			mu.Unlock()

			emit(genie.Text(prompt, genie.SentenceComplete))

			mu.Lock()
			inFlight--
			mu.Unlock()
			return genie.StatusSuccess
		},
	}
	s := readySession(t, engine)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = s.Query(context.Background(), string(rune('a'+i)))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	for i, r := range results {
		assert.Equal(t, string(rune('a'+i)), r)
	}
}
