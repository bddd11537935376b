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

package command

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyString_KioskUtterances(t *testing.T) {
	c := NewDefaultClassifier()

	tests := []struct {
		name      string
		utterance string
		want      string
	}{
		{"door open polite", "문 좀 열어줘", "<jarvis_1>(enable=True)"},
		{"door open plain", "문 열어", "<jarvis_1>(enable=True)"},
		{"door lock", "문 잠궈줘", "<jarvis_1>(enable=False)"},
		{"door close", "문 닫아줘", "<jarvis_1>(enable=False)"},
		{"light on", "불 켜줘", "<jarvis_0>(enable=True)"},
		{"lighting on", "조명 켜 주세요", "<jarvis_0>(enable=True)"},
		{"light off", "불 좀 꺼줘", "<jarvis_0>(enable=False)"},
		{"ac on", "에어컨 좀 켜줘", "<jarvis_2>(enable=True)"},
		{"ac off", "에어컨 꺼줘", "<jarvis_2>(enable=False)"},
		{"blind up", "블라인드 올려줘", "<jarvis_3>(enable=True)"},
		{"blind down", "블라인드 좀 내려줘", "<jarvis_3>(enable=False)"},
		{"product", "새우깡 어디 있어요", "<jarvis_4>(product=2)"},
		{"zone spoken", "에이구역에 뭐 있어", "<jarvis_5>(section=1)"},
		{"zone b", "B구역 알려줘", "<jarvis_5>(section=2)"},
		{"fridge one spaced", "냉장고 1 에는 뭐가 있어", "<jarvis_5>(section=3)"},
		{"fridge two", "냉장고2 상품", "<jarvis_5>(section=4)"},
		{"music on", "노래 좀 틀어줘", "<jarvis_6>(enable=True)"},
		{"music off", "음악 꺼", "<jarvis_6>(enable=False)"},
		{"humidifier on", "가습기 켜줘", "<jarvis_7>(enable=True)"},
		{"humidifier off", "가습기 좀 꺼줘", "<jarvis_7>(enable=False)"},
		{"no match", "오늘 날씨 어때", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ClassifyString(tt.utterance))
		})
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	c := NewDefaultClassifier()

	tests := []struct {
		name      string
		utterance string
		want      string
	}{
		{"door beats light", "불 켜고 문 열어줘", "<jarvis_1>(enable=True)"},
		{"door open beats door close", "문 닫지 말고 문 열어", "<jarvis_1>(enable=True)"},
		{"light beats ac", "에어컨 켜고 불 꺼", "<jarvis_0>(enable=False)"},
		{"product beats zone", "A구역에 콜라 있어?", "<jarvis_4>(product=7)"},
		{"zone beats music", "B구역에서 노래 틀어", "<jarvis_5>(section=2)"},
		{"music beats humidifier", "가습기 켜고 음악 켜", "<jarvis_6>(enable=True)"},
		{"first product literal wins", "초코우유랑 홈런볼", "<jarvis_4>(product=1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ClassifyString(tt.utterance))
		})
	}
}

func TestClassify_AllProducts(t *testing.T) {
	c := NewDefaultClassifier()

	for i, name := range Products {
		utterance := name + " 어디 있어요"
		token, ok := c.Classify(utterance)
		require.True(t, ok, utterance)
		assert.Equal(t, fmt.Sprintf("<jarvis_4>(product=%d)", i+1), token.String())
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewDefaultClassifier()
	utterances := []string{"문 좀 열어줘", "오늘 날씨 어때", "사이다 있어요", "냉장고 2 보여줘"}

	for _, u := range utterances {
		first := c.ClassifyString(u)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, c.ClassifyString(u), u)
		}
	}
}

func TestClassify_CaseSensitive(t *testing.T) {
	c := NewDefaultClassifier()

	// lower-case zone letters only match after Normalize
	assert.Equal(t, "", c.ClassifyString("a구역 보여줘"))
	assert.Equal(t, "<jarvis_5>(section=1)", c.ClassifyString(Normalize("a구역 보여줘")))
}

func TestRules_TableShape(t *testing.T) {
	rules := Rules()
	require.Len(t, rules, 8+len(Products)+len(Zones)+4)

	assert.Equal(t, "door_open", rules[0].Name)
	assert.Equal(t, "door_close", rules[1].Name)
	assert.Equal(t, "humidifier_off", rules[len(rules)-1].Name)

	for _, r := range rules {
		require.NotEmpty(t, r.Triggers, r.Name)
		require.NoError(t, r.Token.Validate(), r.Name)
	}
}

func TestNewClassifier_CustomRules(t *testing.T) {
	c := NewClassifier(
		Rule{Name: "lights", Triggers: []string{"lights on"}, Token: Enable(DeviceLight, true)},
	)

	assert.Equal(t, "<jarvis_0>(enable=True)", c.ClassifyString("please turn the lights on"))
	assert.Equal(t, "", c.ClassifyString("문 열어"))
	assert.Len(t, c.Rules(), 1)
}
