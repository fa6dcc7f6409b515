package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/events"
	"github.com/phrazzld/folio-api/internal/platform/webhook"
	"github.com/phrazzld/folio-api/internal/store"
)

// Deliverer sends one signed request to a webhook endpoint.
type Deliverer interface {
	Deliver(ctx context.Context, d webhook.Delivery) error
}

// WebhookLookup loads a subscription at delivery time.
type WebhookLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Webhook, error)
}

type webhookDeliveryPayload struct {
	WebhookID uuid.UUID           `json:"webhook_id"`
	Event     *events.DomainEvent `json:"event"`
}

// WebhookDeliveryTask posts a single event to a single subscriber. The
// subscription is re-read on execution so deleted or deactivated hooks are
// skipped rather than failed.
type WebhookDeliveryTask struct {
	id        uuid.UUID
	webhookID uuid.UUID
	event     *events.DomainEvent
	payload   []byte
	status    TaskStatus

	hooks     WebhookLookup
	deliverer Deliverer
	logger    *slog.Logger
}

func (t *WebhookDeliveryTask) ID() uuid.UUID      { return t.id }
func (t *WebhookDeliveryTask) Type() string       { return TaskTypeWebhookDelivery }
func (t *WebhookDeliveryTask) Payload() []byte    { return t.payload }
func (t *WebhookDeliveryTask) Status() TaskStatus { return t.status }

// WebhookID returns the target subscription.
func (t *WebhookDeliveryTask) WebhookID() uuid.UUID { return t.webhookID }

// Execute delivers the event.
func (t *WebhookDeliveryTask) Execute(ctx context.Context) error {
	log := t.logger.With("task_id", t.id, "webhook_id", t.webhookID, "event_type", t.event.Type)

	hook, err := t.hooks.GetByID(ctx, t.webhookID)
	if errors.Is(err, store.ErrWebhookNotFound) {
		log.Info("webhook no longer exists, skipping delivery")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load webhook: %w", err)
	}
	if !hook.Subscribes(t.event.Type) {
		log.Info("webhook inactive or unsubscribed, skipping delivery")
		return nil
	}

	body, err := json.Marshal(t.event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if err := t.deliverer.Deliver(ctx, webhook.Delivery{
		URL:        hook.URL,
		Secret:     hook.Secret,
		EventType:  t.event.Type,
		DeliveryID: t.id.String(),
		Body:       body,
	}); err != nil {
		return fmt.Errorf("deliver %s to webhook %s: %w", t.event.Type, t.webhookID, err)
	}

	log.Debug("webhook delivered")
	return nil
}

// WebhookDeliveryTaskFactory builds delivery tasks, either fresh for a new
// event or from a persisted record during recovery.
type WebhookDeliveryTaskFactory struct {
	hooks     WebhookLookup
	deliverer Deliverer
	logger    *slog.Logger
}

// NewWebhookDeliveryTaskFactory creates a factory.
func NewWebhookDeliveryTaskFactory(hooks WebhookLookup, deliverer Deliverer, logger *slog.Logger) *WebhookDeliveryTaskFactory {
	return &WebhookDeliveryTaskFactory{
		hooks:     hooks,
		deliverer: deliverer,
		logger:    logger.With("component", "webhook_delivery"),
	}
}

// CreateTask builds a pending task delivering event to webhookID.
func (f *WebhookDeliveryTaskFactory) CreateTask(webhookID uuid.UUID, event *events.DomainEvent) (*WebhookDeliveryTask, error) {
	if event == nil {
		return nil, errors.New("event is required")
	}
	payload, err := json.Marshal(webhookDeliveryPayload{WebhookID: webhookID, Event: event})
	if err != nil {
		return nil, fmt.Errorf("encode delivery payload: %w", err)
	}
	return f.build(uuid.New(), webhookID, event, payload, TaskStatusPending), nil
}

// FromRecord implements Factory.
func (f *WebhookDeliveryTaskFactory) FromRecord(rec Record) (Task, error) {
	var p webhookDeliveryPayload
	if err := json.Unmarshal(rec.Payload, &p); err != nil {
		return nil, fmt.Errorf("decode delivery payload: %w", err)
	}
	if p.Event == nil || p.WebhookID == uuid.Nil {
		return nil, errors.New("delivery payload missing webhook_id or event")
	}
	return f.build(rec.ID, p.WebhookID, p.Event, rec.Payload, rec.Status), nil
}

// Register installs the factory in registry.
func (f *WebhookDeliveryTaskFactory) Register(registry *Registry) {
	registry.Register(TaskTypeWebhookDelivery, f.FromRecord)
}

func (f *WebhookDeliveryTaskFactory) build(id, webhookID uuid.UUID, event *events.DomainEvent, payload []byte, status TaskStatus) *WebhookDeliveryTask {
	return &WebhookDeliveryTask{
		id:        id,
		webhookID: webhookID,
		event:     event,
		payload:   payload,
		status:    status,
		hooks:     f.hooks,
		deliverer: f.deliverer,
		logger:    f.logger,
	}
}
