package secrets

import "errors"

// Domain errors for the secrets package.
var (
	// ErrInvalidKey is returned when a key is not the required length.
	ErrInvalidKey = errors.New("secrets: invalid key")

	// ErrSealBroken is returned when a blob fails authentication or is
	// structurally invalid. Callers should treat the payload as foreign.
	ErrSealBroken = errors.New("secrets: seal broken")
)
