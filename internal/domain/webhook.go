package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types a webhook may subscribe to.
const (
	EventUserRegistered   = "user.registered"
	EventPostPublished    = "post.published"
	EventPostDeleted      = "post.deleted"
	EventCommentCreated   = "comment.created"
	EventContentModerated = "content.moderated"
)

// WebhookEvents lists every subscribable event type.
var WebhookEvents = []string{
	EventUserRegistered,
	EventPostPublished,
	EventPostDeleted,
	EventCommentCreated,
	EventContentModerated,
}

// IsWebhookEvent reports whether name is a subscribable event type.
func IsWebhookEvent(name string) bool {
	for _, e := range WebhookEvents {
		if e == name {
			return true
		}
	}
	return false
}

// Webhook is an outbound HTTP subscription owned by a user.
type Webhook struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	URL       string
	Events    []string
	Secret    string
	Active    bool
	CreatedAt time.Time
}

// NewWebhook validates the subscribed events and builds a webhook.
func NewWebhook(userID uuid.UUID, url string, events []string, secret string, active bool) (*Webhook, error) {
	for _, e := range events {
		if !IsWebhookEvent(e) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWebhookEvent, e)
		}
	}
	return &Webhook{
		ID:        uuid.New(),
		UserID:    userID,
		URL:       url,
		Events:    events,
		Secret:    secret,
		Active:    active,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Subscribes reports whether the webhook is active and listens for event.
func (w *Webhook) Subscribes(event string) bool {
	if !w.Active {
		return false
	}
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}
