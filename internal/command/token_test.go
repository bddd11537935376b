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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_String(t *testing.T) {
	assert.Equal(t, "<jarvis_1>(enable=True)", Enable(DeviceDoor, true).String())
	assert.Equal(t, "<jarvis_7>(enable=False)", Enable(DeviceHumidifier, false).String())
	assert.Equal(t, "<jarvis_4>(product=10)", Product(10).String())
	assert.Equal(t, "<jarvis_5>(section=3)", Section(3).String())
	assert.Equal(t, "<jarvis_2>", Enable(DeviceAirConditioner, true).Header())
}

func TestToken_Accessors(t *testing.T) {
	on, ok := Enable(DeviceMusic, true).Enabled()
	assert.True(t, ok)
	assert.True(t, on)

	_, ok = Product(3).Enabled()
	assert.False(t, ok)

	n, ok := Section(4).Index()
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	_, ok = Enable(DeviceLight, false).Index()
	assert.False(t, ok)

	assert.Equal(t, map[string]string{"product": "6"}, Product(6).Params())
}

func TestToken_Validate(t *testing.T) {
	tests := []struct {
		name    string
		token   Token
		wantErr bool
	}{
		{"enable on actuator", Enable(DeviceBlind, true), false},
		{"product in range", Product(1), false},
		{"section upper bound", Section(MaxSection), false},
		{"product out of range", Product(11), true},
		{"section zero", Section(0), true},
		{"enable on locator", Token{Device: DeviceProductLocator, Key: KeyEnable, Value: "True"}, true},
		{"lowercase bool", Token{Device: DeviceLight, Key: KeyEnable, Value: "true"}, true},
		{"unknown device", Token{Device: Device(9), Key: KeyEnable, Value: "True"}, true},
		{"unknown key", Token{Device: DeviceLight, Key: "volume", Value: "3"}, true},
		{"product key on zone", Token{Device: DeviceZoneLocator, Key: KeyProduct, Value: "1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.token.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidToken))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Token
		wantErr bool
	}{
		{"bare token", "<jarvis_1>(enable=True)", Enable(DeviceDoor, true), false},
		{"quoted value", `<jarvis_4>(product="3")`, Product(3), false},
		{"surrounding prose", "Response: <jarvis_5>(section=2)<|im_end|>", Section(2), false},
		{"spaces around pair", "<jarvis_0>( enable = False )", Enable(DeviceLight, false), false},
		{"first of several", "<jarvis_6>(enable=True) <jarvis_7>(enable=False)", Enable(DeviceMusic, true), false},
		{"plain text", "오늘 날씨 어때", Token{}, true},
		{"empty params", "<jarvis_1>()", Token{}, true},
		{"empty", "", Token{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseToken(tt.text)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseToken_RoundTrip(t *testing.T) {
	for _, rule := range Rules() {
		got, err := ParseToken(rule.Token.String())
		require.NoError(t, err, rule.Name)
		assert.Equal(t, rule.Token, got, rule.Name)
	}
}

func TestParseTokens_All(t *testing.T) {
	tokens := ParseTokens("<jarvis_2>(enable=True), then <jarvis_3>(enable=False)")
	require.Len(t, tokens, 2)
	assert.Equal(t, DeviceAirConditioner, tokens[0].Device)
	assert.Equal(t, DeviceBlind, tokens[1].Device)
}

func TestParseHeader(t *testing.T) {
	d, err := ParseHeader("<jarvis_5>")
	require.NoError(t, err)
	assert.Equal(t, DeviceZoneLocator, d)

	_, err = ParseHeader("jarvis_5")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDevice_String(t *testing.T) {
	assert.Equal(t, "air_conditioner", DeviceAirConditioner.String())
	assert.Equal(t, "device_12", Device(12).String())
	assert.True(t, DeviceDoor.IsActuator())
	assert.False(t, DeviceZoneLocator.IsActuator())
}
