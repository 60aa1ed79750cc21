// Package command provides the remote-command dispatcher for Trustedge Core.
//
// The dispatcher accepts typed commands (lock, unlock, ping, logout, wipe,
// alert) addressed to trusted devices and delivers them regardless of the
// target's momentary connectivity:
//
//	sendCommand ──▶ target online?  ──yes──▶ execute via Transport ──▶ terminal status
//	                     │
//	                     no
//	                     ▼
//	            per-device FIFO queue + push wake-up (best effort)
//	                     │
//	     SetDeviceConnectionStatus(id, online=true)
//	                     ▼
//	            drain queue in enqueue order ──▶ execute each
//
// # State machine
//
// Per command: pending → {success, failed}, terminal, written exactly once
// by the execute step. Per device (tracked by the presence package):
// online/offline, flipped by the transport collaborator.
//
// # Failure semantics
//
// A transport failure is a normal terminal outcome, not an error. Errors
// are reserved for calls that could not even be constructed: an unknown
// command type or an unregistered target/initiator fails fast with no
// side effects. The dispatcher never retries; callers retry by issuing a
// new command id. Every command ever dispatched stays in an append-only
// history until ClearHistory.
package command
