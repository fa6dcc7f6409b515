package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
)

// APIKeyStore persists API keys.
type APIKeyStore interface {
	Create(ctx context.Context, key *domain.APIKey) error
	// GetByPrefix returns ErrAPIKeyNotFound when no key has prefix.
	GetByPrefix(ctx context.Context, prefix string) (*domain.APIKey, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.APIKey, error)
	// Delete removes the key only when it belongs to userID.
	Delete(ctx context.Context, userID, id uuid.UUID) error
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

// WebhookStore persists webhook subscriptions.
type WebhookStore interface {
	Create(ctx context.Context, hook *domain.Webhook) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Webhook, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Webhook, error)
	// ListActiveForEvent returns every active webhook subscribed to event.
	ListActiveForEvent(ctx context.Context, event string) ([]*domain.Webhook, error)
	// Delete removes the webhook only when it belongs to userID.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
