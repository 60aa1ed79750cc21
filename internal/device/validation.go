package device

import (
	"fmt"
	"unicode/utf8"
)

// Validation constants.
const (
	maxNameLength     = 100
	maxPlatformLength = 50
	maxLocationLength = 100

	// Size limits for the metadata map to prevent DoS via memory
	// exhaustion. Generous for device-agent use: model, OS version,
	// push token and the like.
	maxMetadataKeys   = 50
	maxMetadataKeyLen = 64
	maxStringValueLen = 1024
)

// validateName checks a device display name.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// validatePlatform checks a platform tag (e.g. "iOS", "Android", "macOS").
// The set is open: new agent platforms must not require a core release.
func validatePlatform(platform string) error {
	if platform == "" {
		return fmt.Errorf("%w: platform cannot be empty", ErrInvalidPlatform)
	}
	if utf8.RuneCountInString(platform) > maxPlatformLength {
		return fmt.Errorf("%w: platform exceeds %d characters", ErrInvalidPlatform, maxPlatformLength)
	}
	return nil
}

// validateLocation checks an optional location label.
func validateLocation(location string) error {
	if utf8.RuneCountInString(location) > maxLocationLength {
		return fmt.Errorf("%w: location exceeds %d characters", ErrInvalidLocation, maxLocationLength)
	}
	return nil
}

// validateMetadata checks the free-form metadata map attached to a device.
// Values are limited in string length; nested maps and slices are rejected
// because the vault stores records as flat JSON documents.
func validateMetadata(metadata map[string]any) error {
	if len(metadata) > maxMetadataKeys {
		return fmt.Errorf("%w: metadata exceeds %d keys", ErrInvalidMetadata, maxMetadataKeys)
	}
	for k, v := range metadata {
		if k == "" {
			return fmt.Errorf("%w: metadata key cannot be empty", ErrInvalidMetadata)
		}
		if len(k) > maxMetadataKeyLen {
			return fmt.Errorf("%w: metadata key %q exceeds %d characters", ErrInvalidMetadata, k, maxMetadataKeyLen)
		}
		switch val := v.(type) {
		case string:
			if len(val) > maxStringValueLen {
				return fmt.Errorf("%w: metadata value for %q exceeds %d bytes", ErrInvalidMetadata, k, maxStringValueLen)
			}
		case bool, float64, int, int64, nil:
			// Scalar JSON values are fine.
		default:
			return fmt.Errorf("%w: metadata value for %q must be a scalar", ErrInvalidMetadata, k)
		}
	}
	return nil
}
