// Package auth provides operator-account authentication for TrustEdge Core.
//
// It implements a 3-tier role model (viewer → operator → admin) with:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - SQLite-backed user accounts
//   - First-boot admin seeding (TRUSTEDGE_ADMIN_PASSWORD or generated)
//
// Accounts here are humans driving the management API. Device agents never
// appear in this package: they authenticate to the MQTT broker and are
// represented by device records, not user accounts.
package auth
