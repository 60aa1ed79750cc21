package device

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/trustedge/trustedge-core/internal/bus"
)

// MockStore is a test implementation of Store.
type MockStore struct {
	mu      sync.Mutex
	devices []TrustedDevice
	// For testing error paths
	loadErr error
	saveErr error
	// saves counts SaveAll calls for persist-only-on-change assertions.
	saves int
}

func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) Load(_ context.Context) ([]TrustedDevice, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]TrustedDevice, 0, len(m.devices))
	for i := range m.devices {
		out = append(out, *m.devices[i].DeepCopy())
	}
	return out, nil
}

func (m *MockStore) SaveAll(_ context.Context, devices []TrustedDevice) error {
	if m.saveErr != nil {
		return m.saveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.devices = make([]TrustedDevice, 0, len(devices))
	for i := range devices {
		m.devices = append(m.devices, *devices[i].DeepCopy())
	}
	m.saves++
	return nil
}

func (m *MockStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// collectEvents subscribes to the bus and returns a drainer for assertions.
func collectEvents(t *testing.T, b *bus.Bus) func() []bus.Event {
	t.Helper()
	sub := b.Subscribe()
	t.Cleanup(sub.Close)

	return func() []bus.Event {
		var events []bus.Event
		for {
			select {
			case ev := <-sub.Events():
				events = append(events, ev)
			case <-time.After(50 * time.Millisecond):
				return events
			}
		}
	}
}

func newTestRegistry() (*Registry, *MockStore, *bus.Bus) {
	store := NewMockStore()
	events := bus.New()
	return NewRegistry(store, events), store, events
}

func TestRegistry_RegisterDevice(t *testing.T) {
	registry, _, events := newTestRegistry()
	drain := collectEvents(t, events)
	ctx := context.Background()

	dev, err := registry.RegisterDevice(ctx, "iOS", "Anna's phone", "Berlin", map[string]any{"model": "15 Pro"})
	if err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}

	if dev.ID == "" {
		t.Error("RegisterDevice() returned empty id")
	}
	if dev.IsLocked {
		t.Error("new device IsLocked = true, want false")
	}
	if !dev.RegistrationTime.Equal(dev.LastUsedTime) {
		t.Errorf("RegistrationTime %v != LastUsedTime %v", dev.RegistrationTime, dev.LastUsedTime)
	}

	devices, err := registry.GetDevices(ctx)
	if err != nil {
		t.Fatalf("GetDevices() error = %v", err)
	}
	if len(devices) != 1 || devices[0].ID != dev.ID {
		t.Errorf("GetDevices() = %+v, want the registered device", devices)
	}

	got := drain()
	if len(got) != 1 || got[0].Kind != bus.KindAdded || got[0].DeviceID != dev.ID {
		t.Errorf("events = %+v, want one added event", got)
	}
}

func TestRegistry_RegisterDevice_Validation(t *testing.T) {
	registry, _, _ := newTestRegistry()
	ctx := context.Background()

	if _, err := registry.RegisterDevice(ctx, "", "Phone", "", nil); !errors.Is(err, ErrInvalidPlatform) {
		t.Errorf("empty platform error = %v, want ErrInvalidPlatform", err)
	}
	if _, err := registry.RegisterDevice(ctx, "iOS", "", "", nil); !errors.Is(err, ErrInvalidName) {
		t.Errorf("empty name error = %v, want ErrInvalidName", err)
	}
}

func TestRegistry_RegisterDevice_UniqueIDs(t *testing.T) {
	registry, _, _ := newTestRegistry()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		dev, err := registry.RegisterDevice(ctx, "Android", "Phone", "", nil)
		if err != nil {
			t.Fatalf("RegisterDevice() error = %v", err)
		}
		if seen[dev.ID] {
			t.Fatalf("duplicate device id %q", dev.ID)
		}
		seen[dev.ID] = true
	}
}

func TestRegistry_RemoveDevice(t *testing.T) {
	registry, store, events := newTestRegistry()
	ctx := context.Background()

	dev, err := registry.RegisterDevice(ctx, "iOS", "Phone", "", nil)
	if err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}
	drain := collectEvents(t, events)
	savesBefore := store.saveCount()

	removed, err := registry.RemoveDevice(ctx, dev.ID)
	if err != nil {
		t.Fatalf("RemoveDevice() error = %v", err)
	}
	if !removed {
		t.Error("RemoveDevice() = false, want true")
	}

	devices, _ := registry.GetDevices(ctx)
	if len(devices) != 0 {
		t.Errorf("GetDevices() after removal = %+v, want empty", devices)
	}

	got := drain()
	if len(got) != 1 || got[0].Kind != bus.KindRemoved {
		t.Errorf("events = %+v, want one removed event", got)
	}
	if store.saveCount() != savesBefore+1 {
		t.Errorf("saves = %d, want %d", store.saveCount(), savesBefore+1)
	}
}

func TestRegistry_RemoveDevice_NotFound(t *testing.T) {
	registry, store, events := newTestRegistry()
	drain := collectEvents(t, events)
	ctx := context.Background()

	removed, err := registry.RemoveDevice(ctx, "no-such-device")
	if err != nil {
		t.Fatalf("RemoveDevice() error = %v", err)
	}
	if removed {
		t.Error("RemoveDevice(nonexistent) = true, want false")
	}

	// No persist, no event when nothing was removed.
	if got := drain(); len(got) != 0 {
		t.Errorf("events = %+v, want none", got)
	}
	if store.saveCount() != 0 {
		t.Errorf("saves = %d, want 0", store.saveCount())
	}
}

func TestRegistry_LockUnlockCycle(t *testing.T) {
	registry, _, events := newTestRegistry()
	ctx := context.Background()

	dev, err := registry.RegisterDevice(ctx, "iOS", "Phone", "", nil)
	if err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}
	drain := collectEvents(t, events)

	locked, err := registry.LockDevice(ctx, dev.ID, true, "")
	if err != nil {
		t.Fatalf("LockDevice(true) error = %v", err)
	}
	if !locked.IsLocked {
		t.Error("IsLocked = false after lock")
	}
	if locked.LastUsedTime.Before(dev.LastUsedTime) {
		t.Error("lock did not bump LastUsedTime")
	}

	unlocked, err := registry.LockDevice(ctx, dev.ID, false, "dev-b")
	if err != nil {
		t.Fatalf("LockDevice(false) error = %v", err)
	}
	if unlocked.IsLocked {
		t.Error("IsLocked = true after unlock")
	}
	if unlocked.LastUsedTime.Before(locked.LastUsedTime) {
		t.Error("unlock did not bump LastUsedTime monotonically")
	}

	got := drain()
	if len(got) != 2 {
		t.Fatalf("events = %+v, want locked then unlocked", got)
	}
	if got[0].Kind != bus.KindLocked || got[1].Kind != bus.KindUnlocked {
		t.Errorf("event kinds = %v, %v; want locked, unlocked", got[0].Kind, got[1].Kind)
	}
	if got[1].Metadata[bus.MetaInitiator] != "dev-b" {
		t.Errorf("unlock initiator = %q, want dev-b", got[1].Metadata[bus.MetaInitiator])
	}
}

func TestRegistry_LockDevice_NotFound(t *testing.T) {
	registry, _, _ := newTestRegistry()

	_, err := registry.LockDevice(context.Background(), "no-such-device", true, "")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("LockDevice(nonexistent) error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistry_UpdateDevice_MergesMetadata(t *testing.T) {
	registry, _, events := newTestRegistry()
	ctx := context.Background()

	dev, err := registry.RegisterDevice(ctx, "iOS", "Phone", "Berlin", map[string]any{
		"model": "15 Pro",
		"color": "black",
	})
	if err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}
	drain := collectEvents(t, events)

	newName := "Work phone"
	updated, err := registry.UpdateDevice(ctx, dev.ID, Update{
		Name: &newName,
		MetadataPatch: map[string]any{
			"color": "silver",
			"os":    "18.1",
		},
	})
	if err != nil {
		t.Fatalf("UpdateDevice() error = %v", err)
	}

	if updated.Name != "Work phone" {
		t.Errorf("Name = %q, want %q", updated.Name, "Work phone")
	}
	if updated.Location != "Berlin" {
		t.Errorf("Location = %q, want untouched %q", updated.Location, "Berlin")
	}
	// Merge semantics: untouched keys survive, patch wins on collision.
	if updated.Metadata["model"] != "15 Pro" {
		t.Errorf("Metadata[model] = %v, want preserved", updated.Metadata["model"])
	}
	if updated.Metadata["color"] != "silver" {
		t.Errorf("Metadata[color] = %v, want patched", updated.Metadata["color"])
	}
	if updated.Metadata["os"] != "18.1" {
		t.Errorf("Metadata[os] = %v, want added", updated.Metadata["os"])
	}

	got := drain()
	if len(got) != 1 || got[0].Kind != bus.KindUpdated {
		t.Errorf("events = %+v, want one updated event", got)
	}
}

func TestRegistry_RecordActivity(t *testing.T) {
	registry, _, events := newTestRegistry()
	ctx := context.Background()

	dev, err := registry.RegisterDevice(ctx, "iOS", "Phone", "", nil)
	if err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}
	drain := collectEvents(t, events)

	time.Sleep(5 * time.Millisecond)
	if err := registry.RecordActivity(ctx, dev.ID); err != nil {
		t.Fatalf("RecordActivity() error = %v", err)
	}

	after, err := registry.GetDevice(ctx, dev.ID)
	if err != nil {
		t.Fatalf("GetDevice() error = %v", err)
	}
	if !after.LastUsedTime.After(dev.LastUsedTime) {
		t.Error("RecordActivity() did not bump LastUsedTime")
	}
	if after.LastUsedTime.Before(after.RegistrationTime) {
		t.Error("LastUsedTime earlier than RegistrationTime")
	}

	// High-frequency, low-signal: no event.
	if got := drain(); len(got) != 0 {
		t.Errorf("events = %+v, want none", got)
	}
}

func TestRegistry_StoreErrorsPropagate(t *testing.T) {
	store := NewMockStore()
	store.loadErr = errors.New("disk gone")
	registry := NewRegistry(store, bus.New())

	if _, err := registry.RegisterDevice(context.Background(), "iOS", "Phone", "", nil); err == nil {
		t.Error("RegisterDevice() with failing store error = nil, want error")
	}
	if _, err := registry.GetDevices(context.Background()); err == nil {
		t.Error("GetDevices() with failing store error = nil, want error")
	}
}

func TestRegistry_ConcurrentMutationsLoseNothing(t *testing.T) {
	registry, _, _ := newTestRegistry()
	ctx := context.Background()

	const workers = 8
	const perWorker = 5

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if _, err := registry.RegisterDevice(ctx, "Android", "Phone", "", nil); err != nil {
					t.Errorf("RegisterDevice() error = %v", err)
				}
			}
		}()
	}
	wg.Wait()

	devices, err := registry.GetDevices(ctx)
	if err != nil {
		t.Fatalf("GetDevices() error = %v", err)
	}
	if len(devices) != workers*perWorker {
		t.Errorf("GetDevices() = %d devices, want %d (lost update)", len(devices), workers*perWorker)
	}
}

func TestRegistry_SnapshotIsIsolated(t *testing.T) {
	registry, _, _ := newTestRegistry()
	ctx := context.Background()

	dev, err := registry.RegisterDevice(ctx, "iOS", "Phone", "", map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}

	devices, _ := registry.GetDevices(ctx)
	devices[0].Name = "mutated"
	devices[0].Metadata["k"] = "mutated"

	fresh, _ := registry.GetDevice(ctx, dev.ID)
	if fresh.Name == "mutated" || fresh.Metadata["k"] == "mutated" {
		t.Error("mutating a snapshot leaked into the registry")
	}
}
