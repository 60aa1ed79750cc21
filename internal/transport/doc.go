// Package transport bridges the command dispatcher to MQTT.
//
// Two pieces live here:
//
//   - MQTTTransport implements the dispatcher's Transport interface.
//     Execute publishes command envelopes to trustedge/command/{device_id};
//     PushWake publishes best-effort nudges to trustedge/wake/{device_id}.
//
//   - PresenceListener subscribes to trustedge/presence/+ and forwards
//     online/offline transitions to the dispatcher, which drains any
//     queued commands when a device comes back.
//
// The transport is deliberately thin. It serialises, publishes, and
// reports broker-level failures; routing, queueing, and retry policy
// stay in the command package.
package transport
