package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	// Callers are expected to check and branch; it is an absent result,
	// not a failure of the registry itself.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrInvalidName is returned when a device name is empty or too long.
	ErrInvalidName = errors.New("device: invalid name")

	// ErrInvalidPlatform is returned when a platform tag is empty or too long.
	ErrInvalidPlatform = errors.New("device: invalid platform")

	// ErrInvalidLocation is returned when a location label is too long.
	ErrInvalidLocation = errors.New("device: invalid location")

	// ErrInvalidMetadata is returned when a metadata map breaches size
	// limits or carries non-scalar values.
	ErrInvalidMetadata = errors.New("device: invalid metadata")
)
