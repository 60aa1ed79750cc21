package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// blobKey is the well-known vault key the device list is stored under.
const blobKey = "trusted_devices"

// Store defines the interface for device record persistence.
//
// The contract is deliberately coarse: callers always load the full list
// and save the full list. Concurrent-mutation safety is the Registry's
// job; the Store has no partial-write state.
type Store interface {
	// Load retrieves all persisted device records.
	// A missing, corrupt, or undecryptable blob yields an empty list,
	// never an error: such a blob indicates migrated or foreign data
	// rather than a caller mistake. Only genuine storage failures
	// (e.g. the database is unreachable) are returned as errors.
	Load(ctx context.Context) ([]TrustedDevice, error)

	// SaveAll atomically replaces the persisted device list.
	SaveAll(ctx context.Context, devices []TrustedDevice) error
}

// Sealer is the authenticated-encryption collaborator used by VaultStore.
// Implemented by secrets.Sealer.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// VaultStore implements Store on top of a SQLite key-value table.
//
// The full device list is serialized to JSON, sealed, and written as one
// blob under a well-known key. Records are therefore encrypted at rest
// and tamper-evident.
type VaultStore struct {
	db     *sql.DB
	sealer Sealer
	logger Logger
}

// NewVaultStore creates a sealed device record store.
func NewVaultStore(db *sql.DB, sealer Sealer) *VaultStore {
	return &VaultStore{
		db:     db,
		sealer: sealer,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the store.
func (s *VaultStore) SetLogger(logger Logger) {
	s.logger = logger
}

// Load retrieves all persisted device records.
func (s *VaultStore) Load(ctx context.Context) ([]TrustedDevice, error) {
	var sealed []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT blob FROM vault_blobs WHERE key = ?", blobKey,
	).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return []TrustedDevice{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying device blob: %w", err)
	}

	plaintext, err := s.sealer.Open(sealed)
	if err != nil {
		// Undecryptable blob: foreign key or tampering, not a caller
		// error. Fall back to an empty list so the registry keeps
		// working; the old records are unrecoverable either way.
		s.logger.Warn("device blob failed authentication, starting empty", "error", err)
		return []TrustedDevice{}, nil
	}

	var devices []TrustedDevice
	if err := json.Unmarshal(plaintext, &devices); err != nil {
		s.logger.Warn("device blob failed to parse, starting empty", "error", err)
		return []TrustedDevice{}, nil
	}

	return devices, nil
}

// SaveAll atomically replaces the persisted device list.
func (s *VaultStore) SaveAll(ctx context.Context, devices []TrustedDevice) error {
	if devices == nil {
		devices = []TrustedDevice{}
	}

	plaintext, err := json.Marshal(devices)
	if err != nil {
		return fmt.Errorf("marshalling devices: %w", err)
	}

	sealed, err := s.sealer.Seal(plaintext)
	if err != nil {
		return fmt.Errorf("sealing devices: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vault_blobs (key, blob, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		blobKey, sealed, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing device blob: %w", err)
	}

	return nil
}
