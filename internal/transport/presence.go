package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/trustedge/trustedge-core/internal/infrastructure/mqtt"
)

// ConnectionSink receives connectivity transitions from the listener.
// Satisfied by command.Dispatcher.
type ConnectionSink interface {
	SetDeviceConnectionStatus(ctx context.Context, deviceID string, online bool)
}

// Subscriber is the slice of the MQTT client the listener subscribes through.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// presencePayload is what agents publish on their presence topic.
// Status follows the broker LWT convention: "online" or "offline".
type presencePayload struct {
	Status string `json:"status"`
}

// PresenceListener subscribes to per-device presence topics and forwards
// transitions to the connection sink.
//
// Agents publish retained "online" payloads on connect and register an
// "offline" LWT, so the broker reports disconnects even when the agent
// never gets a chance to.
type PresenceListener struct {
	subscriber Subscriber
	sink       ConnectionSink
	qos        byte
	logger     Logger
}

// NewPresenceListener creates a listener forwarding to sink.
func NewPresenceListener(subscriber Subscriber, sink ConnectionSink, qos byte) *PresenceListener {
	return &PresenceListener{
		subscriber: subscriber,
		sink:       sink,
		qos:        qos,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the listener.
func (l *PresenceListener) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	l.logger = logger
}

// Start subscribes to the presence wildcard. The subscription survives
// broker reconnects; the mqtt client restores it automatically.
func (l *PresenceListener) Start(ctx context.Context) error {
	topic := mqtt.Topics{}.AllDevicePresence()

	err := l.subscriber.Subscribe(topic, l.qos, func(topic string, payload []byte) error {
		return l.handlePresence(ctx, topic, payload)
	})
	if err != nil {
		return fmt.Errorf("subscribe presence: %w", err)
	}

	l.logger.Info("presence listener started", "topic", topic)
	return nil
}

// handlePresence parses one presence message and forwards the transition.
//
// Malformed payloads are logged and dropped; a confused agent must not
// take the listener down with it.
func (l *PresenceListener) handlePresence(ctx context.Context, topic string, payload []byte) error {
	deviceID := mqtt.PresenceDeviceID(topic)
	if deviceID == "" {
		l.logger.Warn("presence message on unexpected topic", "topic", topic)
		return nil
	}

	var msg presencePayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		l.logger.Warn("malformed presence payload",
			"device_id", deviceID,
			"error", err,
		)
		return nil
	}

	switch strings.ToLower(msg.Status) {
	case "online":
		l.sink.SetDeviceConnectionStatus(ctx, deviceID, true)
	case "offline":
		l.sink.SetDeviceConnectionStatus(ctx, deviceID, false)
	default:
		l.logger.Warn("unknown presence status",
			"device_id", deviceID,
			"status", msg.Status,
		)
	}

	return nil
}
