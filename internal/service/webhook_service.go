package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/store"
)

// WebhookInput describes a new webhook subscription.
type WebhookInput struct {
	URL    string
	Events []string
	// Secret signs deliveries when set.
	Secret string
	Active bool
}

// WebhookService manages a user's webhook subscriptions. Deliveries are
// produced by task.WebhookEventHandler from emitted events.
type WebhookService interface {
	Create(ctx context.Context, userID uuid.UUID, in WebhookInput) (*domain.Webhook, error)
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Webhook, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type webhookService struct {
	hooks  store.WebhookStore
	logger *slog.Logger
}

// NewWebhookService creates a WebhookService.
func NewWebhookService(hooks store.WebhookStore, logger *slog.Logger) WebhookService {
	return &webhookService{hooks: hooks, logger: logger.With("component", "webhook_service")}
}

func (s *webhookService) Create(ctx context.Context, userID uuid.UUID, in WebhookInput) (*domain.Webhook, error) {
	hook, err := domain.NewWebhook(userID, in.URL, in.Events, in.Secret, in.Active)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	if err := s.hooks.Create(ctx, hook); err != nil {
		return nil, fmt.Errorf("failed to create webhook: %w", err)
	}
	s.logger.Info("webhook created", "user_id", userID, "webhook_id", hook.ID, "events", hook.Events)
	return hook, nil
}

func (s *webhookService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Webhook, error) {
	hooks, err := s.hooks.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	return hooks, nil
}

func (s *webhookService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.hooks.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	s.logger.Info("webhook deleted", "user_id", userID, "webhook_id", id)
	return nil
}
