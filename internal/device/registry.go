package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trustedge/trustedge-core/internal/bus"
)

// Logger defines the logging interface used by this package.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry owns the trusted-device lifecycle: registration, updates, lock
// state, and removal. It is the only writer of TrustedDevice records.
//
// Every mutation re-reads the full persisted list, applies one change, and
// writes the full list back. The store is the single source of truth; the
// registry holds no cache. A single mutex serializes the read-modify-write
// cycle so two interleaved mutations cannot silently drop one another.
//
// All public methods are thread-safe.
type Registry struct {
	store  Store
	events *bus.Bus
	mu     sync.Mutex
	logger Logger
}

// NewRegistry creates a device registry over the given store.
// Lifecycle events are published on events; it must not be nil.
func NewRegistry(store Store, events *bus.Bus) *Registry {
	return &Registry{
		store:  store,
		events: events,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RegisterDevice creates a new trusted device and persists it.
//
// The device starts unlocked with RegistrationTime == LastUsedTime.
// An "added" event is published on success.
func (r *Registry) RegisterDevice(ctx context.Context, platform, name, location string, metadata map[string]any) (*TrustedDevice, error) {
	if err := validatePlatform(platform); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateLocation(location); err != nil {
		return nil, err
	}
	if err := validateMetadata(metadata); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	devices, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading devices: %w", err)
	}

	now := time.Now().UTC()
	dev := TrustedDevice{
		ID:               uuid.NewString(),
		Platform:         platform,
		Name:             name,
		Location:         location,
		RegistrationTime: now,
		LastUsedTime:     now,
		IsLocked:         false,
		Metadata:         metadata,
	}

	devices = append(devices, dev)
	if err := r.store.SaveAll(ctx, devices); err != nil {
		return nil, fmt.Errorf("saving devices: %w", err)
	}

	r.logger.Info("device registered", "device_id", dev.ID, "platform", platform)
	r.events.Publish(bus.Event{Kind: bus.KindAdded, DeviceID: dev.ID})

	return dev.DeepCopy(), nil
}

// RemoveDevice hard-deletes a device.
//
// It returns whether a removal actually occurred. The list is persisted
// and a "removed" event published only when the device existed.
func (r *Registry) RemoveDevice(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices, err := r.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("loading devices: %w", err)
	}

	idx := indexOf(devices, id)
	if idx < 0 {
		return false, nil
	}

	devices = append(devices[:idx], devices[idx+1:]...)
	if err := r.store.SaveAll(ctx, devices); err != nil {
		return false, fmt.Errorf("saving devices: %w", err)
	}

	r.logger.Info("device removed", "device_id", id)
	r.events.Publish(bus.Event{Kind: bus.KindRemoved, DeviceID: id})

	return true, nil
}

// LockDevice sets or clears a device's lock flag and bumps LastUsedTime.
//
// A "locked" or "unlocked" event is published, carrying initiatorID as
// event metadata when non-empty. Returns ErrDeviceNotFound if the device
// does not exist.
func (r *Registry) LockDevice(ctx context.Context, id string, lock bool, initiatorID string) (*TrustedDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading devices: %w", err)
	}

	idx := indexOf(devices, id)
	if idx < 0 {
		return nil, ErrDeviceNotFound
	}

	devices[idx].IsLocked = lock
	devices[idx].LastUsedTime = time.Now().UTC()

	if err := r.store.SaveAll(ctx, devices); err != nil {
		return nil, fmt.Errorf("saving devices: %w", err)
	}

	kind := bus.KindLocked
	if !lock {
		kind = bus.KindUnlocked
	}

	var meta map[string]string
	if initiatorID != "" {
		meta = map[string]string{bus.MetaInitiator: initiatorID}
	}

	r.logger.Info("device lock state changed", "device_id", id, "locked", lock)
	r.events.Publish(bus.Event{Kind: kind, DeviceID: id, Metadata: meta})

	return devices[idx].DeepCopy(), nil
}

// UpdateDevice applies an Update to a device and bumps LastUsedTime.
//
// Present fields overwrite; metadata patch entries merge into the existing
// map with the patch winning on collision. An "updated" event is published.
// Returns ErrDeviceNotFound if the device does not exist.
func (r *Registry) UpdateDevice(ctx context.Context, id string, update Update) (*TrustedDevice, error) {
	if update.Name != nil {
		if err := validateName(*update.Name); err != nil {
			return nil, err
		}
	}
	if update.Location != nil {
		if err := validateLocation(*update.Location); err != nil {
			return nil, err
		}
	}
	if err := validateMetadata(update.MetadataPatch); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	devices, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading devices: %w", err)
	}

	idx := indexOf(devices, id)
	if idx < 0 {
		return nil, ErrDeviceNotFound
	}

	dev := &devices[idx]
	if update.Name != nil {
		dev.Name = *update.Name
	}
	if update.Location != nil {
		dev.Location = *update.Location
	}
	if len(update.MetadataPatch) > 0 {
		if dev.Metadata == nil {
			dev.Metadata = make(map[string]any, len(update.MetadataPatch))
		}
		for k, v := range update.MetadataPatch {
			dev.Metadata[k] = v
		}
	}
	dev.LastUsedTime = time.Now().UTC()

	if err := r.store.SaveAll(ctx, devices); err != nil {
		return nil, fmt.Errorf("saving devices: %w", err)
	}

	r.logger.Debug("device updated", "device_id", id)
	r.events.Publish(bus.Event{Kind: bus.KindUpdated, DeviceID: id})

	return dev.DeepCopy(), nil
}

// RecordActivity bumps a device's LastUsedTime.
//
// This is a high-frequency, low-signal operation: no event is published.
// Returns ErrDeviceNotFound if the device does not exist.
func (r *Registry) RecordActivity(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	idx := indexOf(devices, id)
	if idx < 0 {
		return ErrDeviceNotFound
	}

	devices[idx].LastUsedTime = time.Now().UTC()

	if err := r.store.SaveAll(ctx, devices); err != nil {
		return fmt.Errorf("saving devices: %w", err)
	}

	return nil
}

// GetDevices returns a read-only snapshot of all registered devices.
func (r *Registry) GetDevices(ctx context.Context) ([]TrustedDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading devices: %w", err)
	}

	snapshot := make([]TrustedDevice, 0, len(devices))
	for i := range devices {
		snapshot = append(snapshot, *devices[i].DeepCopy())
	}
	return snapshot, nil
}

// GetDevice returns a single device by id.
// Returns ErrDeviceNotFound if the device does not exist.
func (r *Registry) GetDevice(ctx context.Context, id string) (*TrustedDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading devices: %w", err)
	}

	idx := indexOf(devices, id)
	if idx < 0 {
		return nil, ErrDeviceNotFound
	}
	return devices[idx].DeepCopy(), nil
}

// HasDevice reports whether a device id is registered.
func (r *Registry) HasDevice(ctx context.Context, id string) (bool, error) {
	_, err := r.GetDevice(ctx, id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrDeviceNotFound) {
		return false, nil
	}
	return false, err
}

// indexOf returns the position of id in devices, or -1.
func indexOf(devices []TrustedDevice, id string) int {
	for i := range devices {
		if devices[i].ID == id {
			return i
		}
	}
	return -1
}
