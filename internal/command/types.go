package command

import "time"

// Type identifies what a remote command asks the target device to do.
type Type string

// The closed set of remote command types.
const (
	TypeLock   Type = "lock"
	TypeUnlock Type = "unlock"
	TypePing   Type = "ping"
	TypeLogout Type = "logout"
	TypeWipe   Type = "wipe"
	TypeAlert  Type = "alert"
)

// ValidType reports whether t is a known command type.
func ValidType(t Type) bool {
	switch t {
	case TypeLock, TypeUnlock, TypePing, TypeLogout, TypeWipe, TypeAlert:
		return true
	}
	return false
}

// Status is a remote command's delivery state.
//
// A command transitions at most once, from pending to a terminal state:
//
//	pending → success
//	pending → failed
type Status string

// Command delivery states.
const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// RemoteCommand is a unit of work addressed to a trusted device.
//
// A transport failure is a normal terminal outcome (failed), not an error;
// callers wanting a retry issue a new command with a fresh id. Once a
// command reaches a terminal status it is never mutated again.
type RemoteCommand struct {
	// CommandID is caller-supplied or generated; it is the handle for
	// idempotent status lookups.
	CommandID string `json:"command_id"`
	Type      Type   `json:"type"`

	TargetDeviceID string `json:"target_device_id"`

	// InitiatorDeviceID optionally names the device that requested the
	// action; carried through to events for audit.
	InitiatorDeviceID string `json:"initiator_device_id,omitempty"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
