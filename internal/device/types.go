package device

import "time"

// TrustedDevice represents a device explicitly registered with the core and
// therefore eligible to receive remote commands.
//
// The JSON tags define the persisted shape: records are marshalled as an
// array, sealed through the secrets package, and stored as a single blob.
// Timestamps serialize as RFC 3339 (ISO-8601).
type TrustedDevice struct {
	// Identity. ID is generated at registration and never changes.
	ID       string `json:"id"`
	Platform string `json:"platform"`

	// User-assigned display label, mutable.
	Name string `json:"name"`

	// Last-known coarse location, mutable.
	Location string `json:"location"`

	// RegistrationTime is set once at creation.
	// LastUsedTime is bumped on every activity record, lock state change,
	// or command delivery and is never earlier than RegistrationTime.
	RegistrationTime time.Time `json:"registrationTime"`
	LastUsedTime     time.Time `json:"lastUsedTime"`

	// IsLocked means the device must not accept sensitive operations
	// until unlocked.
	IsLocked bool `json:"isLocked"`

	// Metadata is an open mapping for extensibility. Updates merge into
	// the existing map rather than replacing it.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DeepCopy creates a complete independent copy of the TrustedDevice.
// The metadata map is cloned so modifications to the copy do not affect
// the original.
func (d *TrustedDevice) DeepCopy() *TrustedDevice {
	if d == nil {
		return nil
	}

	cpy := *d

	if d.Metadata != nil {
		cpy.Metadata = make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			cpy.Metadata[k] = v
		}
	}

	return &cpy
}

// Update describes an updateDevice mutation. Nil fields are left untouched;
// MetadataPatch entries are merged into the existing metadata, with the
// patch winning on key collision.
type Update struct {
	Name          *string
	Location      *string
	MetadataPatch map[string]any
}
