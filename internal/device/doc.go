// Package device provides the trusted-device registry for Trustedge Core.
//
// The registry is the catalogue of devices a security principal has
// explicitly trusted. It owns the full device lifecycle (register, update,
// lock/unlock, remove) and announces every change on the event bus.
//
// # Architecture
//
//	┌────────────────────────────────────────────────────────────┐
//	│                     Device Registry                         │
//	│                                                             │
//	│  ┌──────────────────┐          ┌──────────────────┐        │
//	│  │     Registry     │          │    VaultStore    │        │
//	│  │  (registry.go)   │─────────▶│    (store.go)    │        │
//	│  │                  │          │                  │        │
//	│  │ • Lifecycle ops  │          │ • JSON marshal   │        │
//	│  │ • One mutex per  │          │ • AES-GCM seal   │        │
//	│  │   read-mod-write │          │ • Single blob    │        │
//	│  └──────────────────┘          └──────────────────┘        │
//	│           │                            │                    │
//	└───────────│────────────────────────────│────────────────────┘
//	            ▼                            ▼
//	    ┌──────────────┐          ┌──────────────────────┐
//	    │  Event Bus   │          │  SQLite vault_blobs  │
//	    └──────────────┘          └──────────────────────┘
//
// # Persistence model
//
// The store is deliberately coarse: the whole device list is one sealed
// blob, loaded and rewritten in full on every mutation. The registry's
// mutex makes that read-modify-write cycle atomic with respect to other
// registry calls, which is what prevents lost updates between concurrent
// UI actions and background reconnection handling.
//
// # Usage
//
//	store := device.NewVaultStore(db.DB, sealer)
//	registry := device.NewRegistry(store, events)
//	registry.SetLogger(log)
//
//	dev, err := registry.RegisterDevice(ctx, "iOS", "Anna's phone", "Berlin", nil)
//	if err != nil {
//	    return err
//	}
//
//	registry.LockDevice(ctx, dev.ID, true, "")
//
// # Thread Safety
//
// All Registry and VaultStore methods are safe for concurrent use.
package device
