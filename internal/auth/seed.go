package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

// Logger defines the logging interface used by the auth package.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// seedPasswordBytes is the number of random bytes for a generated seed password.
const seedPasswordBytes = 16

// SeedAdmin creates the initial admin account on first boot if no users exist.
//
// The password comes from TRUSTEDGE_ADMIN_PASSWORD when set; otherwise a
// random one is generated and logged once - it must be changed immediately.
// Returns the password used (empty string if seeding was skipped).
func SeedAdmin(ctx context.Context, userRepo UserRepository, logger Logger) (string, error) {
	count, err := userRepo.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("checking user count: %w", err)
	}

	if count > 0 {
		logger.Info("users exist, skipping admin seed")
		return "", nil
	}

	password := os.Getenv("TRUSTEDGE_ADMIN_PASSWORD")
	generated := password == ""
	if generated {
		passwordBytes := make([]byte, seedPasswordBytes)
		if _, randErr := rand.Read(passwordBytes); randErr != nil {
			return "", fmt.Errorf("generating seed password: %w", randErr)
		}
		password = hex.EncodeToString(passwordBytes)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing seed password: %w", err)
	}

	admin := &User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: hash,
		Role:         RoleAdmin,
		IsActive:     true,
	}

	if err := userRepo.Create(ctx, admin); err != nil {
		return "", fmt.Errorf("creating seed admin: %w", err)
	}

	if generated {
		logger.Warn("seed admin account created with generated password",
			"username", "admin",
			"password", password,
			"action_required", "change this password immediately",
		)
	} else {
		logger.Info("seed admin account created", "username", "admin")
	}

	return password, nil
}
