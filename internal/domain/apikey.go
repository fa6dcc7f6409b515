package domain

import (
	"time"

	"github.com/google/uuid"
)

// APIKeyPrefix starts every plaintext key handed to a client.
const APIKeyPrefix = "fk_"

// APIKey is a long-lived credential a user creates for programmatic access.
// Only a bcrypt hash of the secret part is stored; Prefix identifies the
// row during lookup.
type APIKey struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Name       string
	Prefix     string
	HashedKey  string
	Scopes     []string
	ExpiresAt  *time.Time
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// Expired reports whether the key is past its expiry at now.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && !now.Before(*k.ExpiresAt)
}

// HasScope reports whether the key grants scope. The "*" scope grants all.
func (k *APIKey) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope || s == "*" {
			return true
		}
	}
	return false
}
