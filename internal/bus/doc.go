// Package bus provides the broadcast event channel for Trustedge Core.
//
// Every state change in the device registry and command dispatcher is
// announced here as a tagged Event (added, removed, updated, locked,
// unlocked, ping, remote_logout). UI and audit collaborators subscribe;
// the registry and dispatcher only publish.
//
// # Delivery Contract
//
//   - Fire-and-forget: Publish never blocks on subscriber processing.
//   - No replay: a subscriber that joins late misses prior events.
//     Durability, where needed, is the audit package's job.
//   - Per-subscriber buffering: a slow subscriber loses events rather
//     than stalling registry or dispatch operations.
//
// # Usage
//
//	b := bus.New()
//	sub := b.Subscribe()
//	defer sub.Close()
//
//	go func() {
//	    for ev := range sub.Events() {
//	        fmt.Println(ev.Kind, ev.DeviceID)
//	    }
//	}()
//
//	b.Publish(bus.Event{Kind: bus.KindAdded, DeviceID: "dev-1"})
package bus
