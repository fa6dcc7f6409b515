package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/events"
	"github.com/phrazzld/folio-api/internal/redact"
)

// Submitter queues tasks for execution.
type Submitter interface {
	Submit(ctx context.Context, task Task) error
}

// SubscriberLister finds the webhooks interested in an event.
type SubscriberLister interface {
	ListActiveForEvent(ctx context.Context, event string) ([]*domain.Webhook, error)
}

// WebhookEventHandler fans a domain event out into one delivery task per
// active subscriber.
type WebhookEventHandler struct {
	hooks   SubscriberLister
	factory *WebhookDeliveryTaskFactory
	runner  Submitter
	logger  *slog.Logger
}

// NewWebhookEventHandler creates the handler.
func NewWebhookEventHandler(
	hooks SubscriberLister,
	factory *WebhookDeliveryTaskFactory,
	runner Submitter,
	logger *slog.Logger,
) *WebhookEventHandler {
	return &WebhookEventHandler{
		hooks:   hooks,
		factory: factory,
		runner:  runner,
		logger:  logger.With("component", "webhook_event_handler"),
	}
}

// HandleEvent submits a delivery for every subscriber. Events nobody can
// subscribe to are ignored. Submission failures for one subscriber do not
// stop the others; they are joined into the returned error.
func (h *WebhookEventHandler) HandleEvent(ctx context.Context, event *events.DomainEvent) error {
	if !domain.IsWebhookEvent(event.Type) {
		h.logger.Debug("ignoring event with no webhook subscribers", "event_type", event.Type, "event_id", event.ID)
		return nil
	}

	hooks, err := h.hooks.ListActiveForEvent(ctx, event.Type)
	if err != nil {
		return fmt.Errorf("list webhooks for %s: %w", event.Type, err)
	}

	var errs []error
	for _, hook := range hooks {
		t, err := h.factory.CreateTask(hook.ID, event)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := h.runner.Submit(ctx, t); err != nil {
			h.logger.Error("failed to submit webhook delivery",
				"webhook_id", hook.ID,
				"event_id", event.ID,
				redact.Attr(err))
			errs = append(errs, fmt.Errorf("webhook %s: %w", hook.ID, err))
		}
	}

	h.logger.Debug("webhook deliveries submitted",
		"event_type", event.Type,
		"event_id", event.ID,
		"subscribers", len(hooks),
		"failed", len(errs))
	return errors.Join(errs...)
}

var _ events.EventHandler = (*WebhookEventHandler)(nil)
