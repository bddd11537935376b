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

package messaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/loqalabs/loqa-kiosk/internal/config"
	"github.com/loqalabs/loqa-kiosk/internal/events"
	"github.com/loqalabs/loqa-kiosk/internal/logging"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// ErrNotConnected is returned when publishing or subscribing without a connection
var ErrNotConnected = errors.New("NATS connection not established")

// Publisher is the part of a NATS connection used for outbound events.
// *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Subject suffixes below the configured prefix
const (
	SubjectCommands     = "commands"
	SubjectInteractions = "interactions"
)

// NATSService publishes kiosk command and interaction events
type NATSService struct {
	mu        sync.RWMutex
	conn      *nats.Conn
	publisher Publisher
	cfg       config.NATSConfig
}

// NewNATSService creates a new NATS service instance
func NewNATSService(cfg config.NATSConfig) *NATSService {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "jarvis"
	}
	return &NATSService{cfg: cfg}
}

// NewNATSServiceWithPublisher creates a service that publishes through p
// without dialing a server
func NewNATSServiceWithPublisher(cfg config.NATSConfig, p Publisher) *NATSService {
	ns := NewNATSService(cfg)
	ns.publisher = p
	return ns
}

// Connect establishes connection to NATS server
func (ns *NATSService) Connect() error {
	logging.LogNATSEvent(ns.cfg.URL, "connecting")

	opts := []nats.Option{
		nats.Name("loqa-kiosk"),
		nats.ReconnectWait(ns.cfg.ReconnectWait),
		nats.MaxReconnects(ns.cfg.MaxReconnect),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logging.LogWarn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.LogNATSEvent(nc.ConnectedUrl(), "reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logging.LogNATSEvent(ns.cfg.URL, "closed")
		}),
	}

	conn, err := nats.Connect(ns.cfg.URL, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	ns.mu.Lock()
	ns.conn = conn
	ns.publisher = conn
	ns.mu.Unlock()

	logging.LogNATSEvent(conn.ConnectedUrl(), "connected")
	return nil
}

// CommandSubject returns the subject command events for device are published on
func (ns *NATSService) CommandSubject(device string) string {
	return fmt.Sprintf("%s.%s.%s", ns.cfg.SubjectPrefix, SubjectCommands, device)
}

// InteractionSubject returns the subject interactions are published on
func (ns *NATSService) InteractionSubject() string {
	return fmt.Sprintf("%s.%s", ns.cfg.SubjectPrefix, SubjectInteractions)
}

// PublishCommand publishes a dispatched command token
func (ns *NATSService) PublishCommand(event *events.CommandEvent) error {
	subject := ns.CommandSubject(event.Device)
	if err := ns.publish(subject, event); err != nil {
		return err
	}

	logging.LogNATSEvent(subject, "published",
		zap.String("token", event.Token),
		zap.String("kiosk_id", event.KioskID))
	return nil
}

// PublishInteraction publishes a completed interaction
func (ns *NATSService) PublishInteraction(interaction *events.Interaction) error {
	subject := ns.InteractionSubject()
	if err := ns.publish(subject, interaction); err != nil {
		return err
	}

	logging.LogNATSEvent(subject, "published",
		zap.String("interaction_id", interaction.ID),
		zap.Bool("fallback", interaction.Fallback))
	return nil
}

func (ns *NATSService) publish(subject string, v interface{}) error {
	ns.mu.RLock()
	p := ns.publisher
	ns.mu.RUnlock()

	if p == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event for %s: %w", subject, err)
	}

	if err := p.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// SubscribeCommands subscribes to command events for device; "*" matches every device
func (ns *NATSService) SubscribeCommands(device string, handler func(*events.CommandEvent)) (*nats.Subscription, error) {
	ns.mu.RLock()
	conn := ns.conn
	ns.mu.RUnlock()

	if conn == nil {
		return nil, ErrNotConnected
	}

	return conn.Subscribe(ns.CommandSubject(device), func(msg *nats.Msg) {
		event, err := DecodeCommand(msg.Data)
		if err != nil {
			logging.LogError(err, "Error decoding command event", zap.String("subject", msg.Subject))
			return
		}

		logging.LogNATSEvent(msg.Subject, "received", zap.String("token", event.Token))
		handler(event)
	})
}

// DecodeCommand parses a command event payload
func DecodeCommand(data []byte) (*events.CommandEvent, error) {
	var event events.CommandEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal command event: %w", err)
	}
	return &event, nil
}

// Close closes the NATS connection
func (ns *NATSService) Close() {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if ns.conn != nil {
		ns.conn.Close()
		ns.conn = nil
	}
	ns.publisher = nil
}

// IsConnected returns true if connected to NATS
func (ns *NATSService) IsConnected() bool {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	if ns.conn != nil {
		return ns.conn.IsConnected()
	}
	return ns.publisher != nil
}

// GetStats returns connection statistics
func (ns *NATSService) GetStats() nats.Statistics {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	if ns.conn != nil {
		return ns.conn.Stats()
	}
	return nats.Statistics{}
}
