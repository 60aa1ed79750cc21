package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/trustedge/trustedge-core/internal/infrastructure/mqtt"
)

// AckSink receives device acknowledgements from the listener.
// Satisfied by command.Dispatcher.
type AckSink interface {
	HandleCommandAck(ctx context.Context, deviceID, commandID string, ok bool, at time.Time)
}

// ackPayload is what agents publish on their ack topic after acting on a
// delivered command. CompletedAt is RFC 3339; when absent or unparseable
// the receive time is used instead.
type ackPayload struct {
	CommandID   string `json:"command_id"`
	Status      string `json:"status"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// AckListener subscribes to per-device ack topics and forwards
// device-reported command outcomes to the ack sink.
//
// Acks are informational. The dispatcher's terminal status is set at
// delivery; an ack confirms the agent acted and feeds the audit trail
// and metrics.
type AckListener struct {
	subscriber Subscriber
	sink       AckSink
	qos        byte
	logger     Logger
}

// NewAckListener creates a listener forwarding to sink.
func NewAckListener(subscriber Subscriber, sink AckSink, qos byte) *AckListener {
	return &AckListener{
		subscriber: subscriber,
		sink:       sink,
		qos:        qos,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the listener.
func (l *AckListener) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	l.logger = logger
}

// Start subscribes to the ack wildcard. The subscription survives broker
// reconnects; the mqtt client restores it automatically.
func (l *AckListener) Start(ctx context.Context) error {
	topic := mqtt.Topics{}.AllDeviceAcks()

	err := l.subscriber.Subscribe(topic, l.qos, func(topic string, payload []byte) error {
		return l.handleAck(ctx, topic, payload)
	})
	if err != nil {
		return fmt.Errorf("subscribe acks: %w", err)
	}

	l.logger.Info("ack listener started", "topic", topic)
	return nil
}

// handleAck parses one acknowledgement and forwards it.
//
// Malformed payloads are logged and dropped; a confused agent must not
// take the listener down with it.
func (l *AckListener) handleAck(ctx context.Context, topic string, payload []byte) error {
	deviceID := mqtt.AckDeviceID(topic)
	if deviceID == "" {
		l.logger.Warn("ack message on unexpected topic", "topic", topic)
		return nil
	}

	var msg ackPayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		l.logger.Warn("malformed ack payload",
			"device_id", deviceID,
			"error", err,
		)
		return nil
	}
	if msg.CommandID == "" {
		l.logger.Warn("ack without command id", "device_id", deviceID)
		return nil
	}

	var ok bool
	switch strings.ToLower(msg.Status) {
	case "completed":
		ok = true
	case "failed":
		ok = false
	default:
		l.logger.Warn("unknown ack status",
			"device_id", deviceID,
			"command_id", msg.CommandID,
			"status", msg.Status,
		)
		return nil
	}

	at := time.Now().UTC()
	if msg.CompletedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, msg.CompletedAt); err == nil {
			at = parsed.UTC()
		}
	}

	l.sink.HandleCommandAck(ctx, deviceID, msg.CommandID, ok, at)
	return nil
}
