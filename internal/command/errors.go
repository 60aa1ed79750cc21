package command

import "errors"

// Domain errors for the command package.
//
// These mark calls that failed before any side effect took place; a
// delivered-but-failed command is expressed through StatusFailed instead.
var (
	// ErrInvalidType is returned when a command type is not in the
	// closed set of known types.
	ErrInvalidType = errors.New("command: invalid type")

	// ErrTargetNotFound is returned when the target device is not
	// registered. Dispatch fails fast; nothing is queued or recorded.
	ErrTargetNotFound = errors.New("command: target device not found")

	// ErrInitiatorNotFound is returned when a named initiator device is
	// not registered.
	ErrInitiatorNotFound = errors.New("command: initiator device not found")
)
