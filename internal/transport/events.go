package transport

import (
	"context"
	"encoding/json"

	"github.com/trustedge/trustedge-core/internal/bus"
	"github.com/trustedge/trustedge-core/internal/infrastructure/mqtt"
)

// EventBridge republishes domain events on per-kind core topics so
// agents and external consumers can follow registry and command
// lifecycle without a core connection of their own.
//
// Publishes are best effort and never retained; like the bus itself,
// the bridge offers no replay.
type EventBridge struct {
	publisher Publisher
	events    *bus.Bus
	qos       byte
	logger    Logger
}

// NewEventBridge creates a bridge publishing through the given client.
func NewEventBridge(publisher Publisher, events *bus.Bus, qos byte) *EventBridge {
	return &EventBridge{
		publisher: publisher,
		events:    events,
		qos:       qos,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the bridge.
func (b *EventBridge) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	b.logger = logger
}

// Start subscribes to the bus and relays events until ctx is cancelled.
func (b *EventBridge) Start(ctx context.Context) {
	sub := b.events.Subscribe()

	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				b.relay(ev)
			}
		}
	}()

	b.logger.Info("event bridge started")
}

func (b *EventBridge) relay(ev bus.Event) {
	if !b.publisher.IsConnected() {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("marshal event payload", "kind", ev.Kind, "error", err)
		return
	}

	topic := mqtt.Topics{}.CoreEvent(string(ev.Kind))
	if err := b.publisher.Publish(topic, payload, b.qos, false); err != nil {
		b.logger.Warn("event publish failed", "kind", ev.Kind, "error", err)
	}
}
