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
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Device identifies the kiosk entity a command token addresses
type Device int

const (
	DeviceLight Device = iota
	DeviceDoor
	DeviceAirConditioner
	DeviceBlind
	DeviceProductLocator
	DeviceZoneLocator
	DeviceMusic
	DeviceHumidifier
)

var deviceNames = map[Device]string{
	DeviceLight:          "light",
	DeviceDoor:           "door",
	DeviceAirConditioner: "air_conditioner",
	DeviceBlind:          "blind",
	DeviceProductLocator: "product_locator",
	DeviceZoneLocator:    "zone_locator",
	DeviceMusic:          "music",
	DeviceHumidifier:     "humidifier",
}

// String returns the device's subject-safe name
func (d Device) String() string {
	if name, ok := deviceNames[d]; ok {
		return name
	}
	return fmt.Sprintf("device_%d", int(d))
}

// IsActuator reports whether the device takes an enable flag
func (d Device) IsActuator() bool {
	switch d {
	case DeviceLight, DeviceDoor, DeviceAirConditioner, DeviceBlind, DeviceMusic, DeviceHumidifier:
		return true
	}
	return false
}

// ParamKey is the single parameter name carried by a token
type ParamKey string

const (
	KeyEnable  ParamKey = "enable"
	KeyProduct ParamKey = "product"
	KeySection ParamKey = "section"
)

const (
	MaxProduct = 10
	MaxSection = 4
)

var (
	// ErrNoToken is returned when text carries no command token
	ErrNoToken = errors.New("no command token found")

	// ErrInvalidToken is returned when a token's key or value is out of range
	ErrInvalidToken = errors.New("invalid command token")

	tokenPattern  = regexp.MustCompile(`<jarvis_(\d+)>\(([^)]*)\)`)
	headerPattern = regexp.MustCompile(`^<jarvis_(\d+)>$`)
)

// Token is a structured command for the kiosk's command dispatcher.
// Value holds "True"/"False" for enable tokens and a decimal index otherwise.
type Token struct {
	Device Device   `json:"device"`
	Key    ParamKey `json:"key"`
	Value  string   `json:"value"`
}

// Enable builds an actuator token
func Enable(device Device, on bool) Token {
	return Token{Device: device, Key: KeyEnable, Value: formatBool(on)}
}

// Product builds a product-locator token for product index k
func Product(k int) Token {
	return Token{Device: DeviceProductLocator, Key: KeyProduct, Value: strconv.Itoa(k)}
}

// Section builds a zone-locator token for zone index k
func Section(k int) Token {
	return Token{Device: DeviceZoneLocator, Key: KeySection, Value: strconv.Itoa(k)}
}

// Header renders the device part of the token, e.g. <jarvis_1>
func (t Token) Header() string {
	return fmt.Sprintf("<jarvis_%d>", int(t.Device))
}

// String renders the wire form <jarvis_N>(key=value)
func (t Token) String() string {
	return fmt.Sprintf("%s(%s=%s)", t.Header(), t.Key, t.Value)
}

// Params returns the token parameter as a map, the shape used by answer lookups
func (t Token) Params() map[string]string {
	return map[string]string{string(t.Key): t.Value}
}

// Enabled returns the enable flag; ok is false for non-actuator tokens
func (t Token) Enabled() (on bool, ok bool) {
	if t.Key != KeyEnable {
		return false, false
	}
	return t.Value == "True", true
}

// Index returns the product or section index; ok is false for enable tokens
func (t Token) Index() (int, bool) {
	if t.Key != KeyProduct && t.Key != KeySection {
		return 0, false
	}
	n, err := strconv.Atoi(t.Value)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate checks the device/key pairing and value range
func (t Token) Validate() error {
	if _, ok := deviceNames[t.Device]; !ok {
		return fmt.Errorf("%w: unknown device %d", ErrInvalidToken, int(t.Device))
	}

	switch t.Key {
	case KeyEnable:
		if !t.Device.IsActuator() {
			return fmt.Errorf("%w: %s does not take %s", ErrInvalidToken, t.Device, t.Key)
		}
		if t.Value != "True" && t.Value != "False" {
			return fmt.Errorf("%w: enable must be True or False, got %q", ErrInvalidToken, t.Value)
		}
	case KeyProduct:
		if t.Device != DeviceProductLocator {
			return fmt.Errorf("%w: %s does not take %s", ErrInvalidToken, t.Device, t.Key)
		}
		return validateIndex(t.Value, MaxProduct)
	case KeySection:
		if t.Device != DeviceZoneLocator {
			return fmt.Errorf("%w: %s does not take %s", ErrInvalidToken, t.Device, t.Key)
		}
		return validateIndex(t.Value, MaxSection)
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalidToken, t.Key)
	}

	return nil
}

func validateIndex(value string, max int) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: index %q is not a number", ErrInvalidToken, value)
	}
	if n < 1 || n > max {
		return fmt.Errorf("%w: index %d outside 1..%d", ErrInvalidToken, n, max)
	}
	return nil
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// ParseToken extracts the first command token found anywhere in text.
// Engine output may quote values (product="3") and may carry surrounding prose.
func ParseToken(text string) (Token, error) {
	tokens := ParseTokens(text)
	if len(tokens) == 0 {
		return Token{}, ErrNoToken
	}
	return tokens[0], nil
}

// ParseTokens extracts every well-formed token in order of appearance
func ParseTokens(text string) []Token {
	var tokens []Token
	for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		key, value, ok := splitParam(m[2])
		if !ok {
			continue
		}
		tokens = append(tokens, Token{Device: Device(n), Key: ParamKey(key), Value: value})
	}
	return tokens
}

// ParseHeader extracts the device code from a <jarvis_N> header
func ParseHeader(header string) (Device, error) {
	m := headerPattern.FindStringSubmatch(strings.TrimSpace(header))
	if m == nil {
		return 0, fmt.Errorf("%w: malformed header %q", ErrInvalidToken, header)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: malformed header %q", ErrInvalidToken, header)
	}
	return Device(n), nil
}

// splitParam takes the first key=value pair of a parameter list
func splitParam(raw string) (string, string, bool) {
	first := strings.Split(raw, ",")[0]
	key, value, found := strings.Cut(first, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	value = strings.Trim(strings.TrimSpace(value), `"'`)
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}
