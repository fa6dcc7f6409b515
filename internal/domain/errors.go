package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidRole is returned for a role outside user, moderator and admin.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidPostStatus is returned for a status outside draft, published and archived.
	ErrInvalidPostStatus = errors.New("invalid post status")

	// ErrInvalidModerationAction is returned for an unknown moderation action.
	ErrInvalidModerationAction = errors.New("invalid moderation action")

	// ErrInvalidWebhookEvent is returned when a webhook subscribes to an unknown event type.
	ErrInvalidWebhookEvent = errors.New("invalid webhook event")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)
