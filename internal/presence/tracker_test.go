package presence

import (
	"sync"
	"testing"
)

func TestTracker_UnknownDeviceIsOffline(t *testing.T) {
	tracker := NewTracker()

	if tracker.IsOnline("dev-1") {
		t.Error("IsOnline(unknown) = true, want false")
	}
}

func TestTracker_SetReportsTransition(t *testing.T) {
	tracker := NewTracker()

	if !tracker.Set("dev-1", true) {
		t.Error("Set(offline→online) = false, want true")
	}
	if tracker.Set("dev-1", true) {
		t.Error("Set(online→online) = true, want false")
	}
	if tracker.Set("dev-1", false) {
		t.Error("Set(online→offline) = true, want false")
	}
	if !tracker.Set("dev-1", true) {
		t.Error("Set(offline→online) after drop = false, want true")
	}
}

func TestTracker_Forget(t *testing.T) {
	tracker := NewTracker()
	tracker.Set("dev-1", true)

	tracker.Forget("dev-1")

	if tracker.IsOnline("dev-1") {
		t.Error("IsOnline() = true after Forget()")
	}
	if tracker.OnlineCount() != 0 {
		t.Errorf("OnlineCount() = %d, want 0", tracker.OnlineCount())
	}
}

func TestTracker_OnlineCount(t *testing.T) {
	tracker := NewTracker()
	tracker.Set("dev-1", true)
	tracker.Set("dev-2", true)
	tracker.Set("dev-3", false)

	if got := tracker.OnlineCount(); got != 2 {
		t.Errorf("OnlineCount() = %d, want 2", got)
	}
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tracker := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tracker.Set("dev-1", j%2 == 0)
				tracker.IsOnline("dev-1")
			}
		}()
	}
	wg.Wait()
}
