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

package events

import (
	"time"

	"github.com/loqalabs/loqa-kiosk/internal/command"
)

// CommandEvent is published for every dispatched command token
type CommandEvent struct {
	InteractionID string    `json:"interaction_id"`
	KioskID       string    `json:"kiosk_id"`
	Token         string    `json:"token"`
	Device        string    `json:"device"`
	DeviceCode    int       `json:"device_code"`
	Key           string    `json:"key"`
	Value         string    `json:"value"`
	APIMethod     string    `json:"api_method,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewCommandEvent builds the event for tok raised by an interaction
func NewCommandEvent(kioskID, interactionID string, tok command.Token, apiMethod string) *CommandEvent {
	return &CommandEvent{
		InteractionID: interactionID,
		KioskID:       kioskID,
		Token:         tok.String(),
		Device:        tok.Device.String(),
		DeviceCode:    int(tok.Device),
		Key:           string(tok.Key),
		Value:         tok.Value,
		APIMethod:     apiMethod,
		Timestamp:     time.Now(),
	}
}
