// Package secrets provides the authenticated-encryption collaborator used
// by the device vault.
//
// The contract is deliberately small: Seal a serialized blob before it is
// persisted, Open it on load. AES-256-GCM gives confidentiality and
// integrity in one primitive, so a corrupted or foreign blob is detected
// at Open time rather than producing garbage device records.
//
// Key management is the caller's concern; the key arrives via
// config.VaultKey (TRUSTEDGE_VAULT_KEY in production).
package secrets
