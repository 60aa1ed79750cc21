package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/trustedge/trustedge-core/internal/command"
	"github.com/trustedge/trustedge-core/internal/infrastructure/mqtt"
)

// Logger is the minimal logging interface the transport needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher is the slice of the MQTT client the transport publishes through.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// commandEnvelope is the wire format delivered to device agents.
// CreatedAt travels as RFC 3339 so agents on any platform can parse it.
// AckTopic tells the agent where to publish its acknowledgement.
type commandEnvelope struct {
	CommandID         string `json:"command_id"`
	Type              string `json:"type"`
	InitiatorDeviceID string `json:"initiator_device_id,omitempty"`
	CreatedAt         string `json:"created_at"`
	AckTopic          string `json:"ack_topic"`
}

// wakeEnvelope is the minimal push-wake payload. It carries no command
// content; the agent reconnects and pending commands drain normally.
type wakeEnvelope struct {
	CommandID string `json:"command_id"`
	Timestamp string `json:"timestamp"`
}

// MQTTTransport delivers remote commands to device agents over MQTT.
//
// Execute publishes the command envelope to the target's command topic
// and PushWake publishes a nudge to its wake topic. Delivery semantics
// beyond broker acknowledgement (agent received, agent acted) are the
// dispatcher's concern, not the transport's.
type MQTTTransport struct {
	publisher Publisher
	qos       byte
	logger    Logger
}

// NewMQTTTransport creates a transport publishing through the given client.
func NewMQTTTransport(publisher Publisher, qos byte) *MQTTTransport {
	return &MQTTTransport{
		publisher: publisher,
		qos:       qos,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the transport.
func (t *MQTTTransport) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	t.logger = logger
}

// Execute publishes cmd to the target device's command topic.
//
// Returns an error when the broker is unreachable or the publish is not
// acknowledged; the dispatcher marks the command failed in that case.
func (t *MQTTTransport) Execute(ctx context.Context, cmd command.RemoteCommand) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("execute command %s: %w", cmd.CommandID, ctx.Err())
	default:
	}

	if !t.publisher.IsConnected() {
		return fmt.Errorf("execute command %s: %w", cmd.CommandID, mqtt.ErrNotConnected)
	}

	envelope := commandEnvelope{
		CommandID:         cmd.CommandID,
		Type:              string(cmd.Type),
		InitiatorDeviceID: cmd.InitiatorDeviceID,
		CreatedAt:         cmd.CreatedAt.UTC().Format(time.RFC3339),
		AckTopic:          mqtt.Topics{}.DeviceAck(cmd.TargetDeviceID),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("execute command %s: marshal envelope: %w", cmd.CommandID, err)
	}

	topic := mqtt.Topics{}.DeviceCommand(cmd.TargetDeviceID)
	if err := t.publisher.Publish(topic, payload, t.qos, false); err != nil {
		return fmt.Errorf("execute command %s: %w", cmd.CommandID, err)
	}

	t.logger.Debug("command published",
		"command_id", cmd.CommandID,
		"type", cmd.Type,
		"device_id", cmd.TargetDeviceID,
	)

	return nil
}

// PushWake publishes a wake nudge to the target device's wake topic.
//
// Best effort: the device is offline, so the nudge rides whatever push
// path the agent's platform provides. Failures are logged, never returned;
// the queued command waits for the next presence transition either way.
func (t *MQTTTransport) PushWake(cmd command.RemoteCommand) {
	envelope := wakeEnvelope{
		CommandID: cmd.CommandID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		t.logger.Error("marshal wake payload", "command_id", cmd.CommandID, "error", err)
		return
	}

	topic := mqtt.Topics{}.DeviceWake(cmd.TargetDeviceID)
	if err := t.publisher.Publish(topic, payload, t.qos, false); err != nil {
		t.logger.Warn("wake publish failed",
			"command_id", cmd.CommandID,
			"device_id", cmd.TargetDeviceID,
			"error", err,
		)
		return
	}

	t.logger.Debug("wake published",
		"command_id", cmd.CommandID,
		"device_id", cmd.TargetDeviceID,
	)
}

// Loopback is a Transport for deployments without a broker. Every
// delivery is accepted immediately and wake nudges are dropped.
//
// With no agent channel there is nothing to deliver to, so "accepted"
// means the command's side effects (lock state, activity) applied on
// the core. Presence must be driven through the API in this mode.
type Loopback struct{}

// Execute implements command.Transport.
func (Loopback) Execute(_ context.Context, _ command.RemoteCommand) error {
	return nil
}

// PushWake implements command.Transport.
func (Loopback) PushWake(_ command.RemoteCommand) {}
