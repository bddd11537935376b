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

// Package security holds input checks applied at the HTTP and logging edges.
package security

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxUtteranceLength bounds the text accepted from a kiosk in bytes
const MaxUtteranceLength = 1024

var (
	// ErrInvalidKioskID is returned when a kiosk ID format is invalid
	ErrInvalidKioskID = errors.New("invalid kiosk ID")

	// ErrInvalidUtterance is returned for empty, oversized or non-UTF-8 text
	ErrInvalidUtterance = errors.New("invalid utterance")

	// kioskIDPattern validates kiosk IDs to only allow safe characters
	kioskIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
)

// SanitizeLogInput removes newline characters to prevent log injection attacks
// This function should be used for all user-controlled data before logging
func SanitizeLogInput(input string) string {
	sanitized := strings.ReplaceAll(input, "\n", "")
	sanitized = strings.ReplaceAll(sanitized, "\r", "")
	return sanitized
}

// ValidateKioskID ensures a kiosk ID only contains alphanumeric ASCII
// characters, dashes and underscores, at most 64 of them.
func ValidateKioskID(kioskID string) error {
	if !kioskIDPattern.MatchString(kioskID) {
		return ErrInvalidKioskID
	}
	return nil
}

// ValidateUtterance checks text submitted for classification or dialog
func ValidateUtterance(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrInvalidUtterance
	}
	if len(text) > MaxUtteranceLength || !utf8.ValidString(text) {
		return ErrInvalidUtterance
	}
	return nil
}
