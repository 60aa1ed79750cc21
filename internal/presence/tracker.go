package presence

import "sync"

// Tracker holds a per-device "reachable now" flag.
//
// The flag is set by an external transport collaborator (MQTT presence
// topics, a connectivity callback) and read by the command dispatcher to
// decide between immediate execution and queuing. Devices the tracker has
// never heard about are considered offline.
//
// All methods are safe for concurrent use.
type Tracker struct {
	mu     sync.RWMutex
	online map[string]bool
}

// NewTracker creates an empty connectivity tracker.
func NewTracker() *Tracker {
	return &Tracker{online: make(map[string]bool)}
}

// Set records a device's connectivity and reports whether this call was an
// offline-to-online transition. The dispatcher uses that signal to drain
// the device's queued commands exactly once per reconnect.
func (t *Tracker) Set(deviceID string, online bool) (cameOnline bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	was := t.online[deviceID]
	t.online[deviceID] = online
	return online && !was
}

// IsOnline reports whether a device is currently reachable.
func (t *Tracker) IsOnline(deviceID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.online[deviceID]
}

// Forget drops a device from the tracker, typically after removal from
// the registry.
func (t *Tracker) Forget(deviceID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.online, deviceID)
}

// OnlineCount returns the number of devices currently marked online.
func (t *Tracker) OnlineCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, on := range t.online {
		if on {
			n++
		}
	}
	return n
}
