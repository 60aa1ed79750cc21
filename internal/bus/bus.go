package bus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Kind identifies the type of a domain event.
type Kind string

// Event kinds published by the registry and dispatcher.
const (
	KindAdded        Kind = "added"
	KindRemoved      Kind = "removed"
	KindUpdated      Kind = "updated"
	KindLocked       Kind = "locked"
	KindUnlocked     Kind = "unlocked"
	KindPing         Kind = "ping"
	KindRemoteLogout Kind = "remote_logout"
	KindCommandAck   Kind = "command_ack"
)

// Event is a single domain notification.
type Event struct {
	Kind      Kind              `json:"kind"`
	DeviceID  string            `json:"device_id"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Metadata keys used by the registry and dispatcher.
const (
	// MetaInitiator carries the initiating device id.
	MetaInitiator = "initiator"

	// MetaCommandID carries the acknowledged command id.
	MetaCommandID = "command_id"

	// MetaResult carries the device-reported outcome, "completed" or "failed".
	MetaResult = "result"
)

// defaultBuffer is the per-subscriber channel capacity.
// A subscriber that falls this far behind starts losing events.
const defaultBuffer = 64

// Logger is the logging interface used by the Bus.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Bus is a multi-subscriber broadcast channel for domain events.
//
// There is no replay buffer: a subscriber that joins late misses prior
// events. Publish never blocks on a slow subscriber; events that do not
// fit in a subscriber's buffer are dropped and counted.
//
// All methods are safe for concurrent use.
type Bus struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	dropped atomic.Uint64
	logger  Logger
}

// Subscription is a live feed of events from a Bus.
type Subscription struct {
	ch     chan Event
	bus    *Bus
	once   sync.Once
	buffer int
}

// New creates an event bus.
func New() *Bus {
	return &Bus{
		subs:   make(map[*Subscription]struct{}),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the bus.
func (b *Bus) SetLogger(logger Logger) {
	b.mu.Lock()
	b.logger = logger
	b.mu.Unlock()
}

// Subscribe registers a new subscriber and returns its subscription.
// The caller must Close the subscription when done.
func (b *Bus) Subscribe() *Subscription {
	return b.SubscribeBuffered(defaultBuffer)
}

// SubscribeBuffered registers a subscriber with an explicit buffer size.
// Sizes below 1 are clamped to the default.
func (b *Bus) SubscribeBuffered(buffer int) *Subscription {
	if buffer < 1 {
		buffer = defaultBuffer
	}

	sub := &Subscription{
		ch:     make(chan Event, buffer),
		bus:    b,
		buffer: buffer,
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Publish broadcasts an event to all current subscribers.
// Events are delivered best-effort: a full subscriber buffer drops the
// event for that subscriber only.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
			b.logger.Debug("event dropped for slow subscriber",
				"kind", event.Kind,
				"device_id", event.DeviceID,
			)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns the total number of events dropped across all
// subscribers since the bus was created.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Events returns the subscription's receive channel.
// The channel is closed when the subscription is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close removes the subscription from the bus and closes its channel.
// Close is idempotent.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()
		close(s.ch)
	})
}
