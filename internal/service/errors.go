package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is(); the API layer maps each one to an
// HTTP status code.
var (
	// ErrForbidden indicates the actor may not perform the operation.
	// API layer should map this to HTTP 403 Forbidden.
	ErrForbidden = errors.New("forbidden")

	// ErrAdminRequired is returned when an admin-only operation is attempted by anyone else.
	ErrAdminRequired = fmt.Errorf("%w: admin access required", ErrForbidden)

	// ErrModeratorRequired is returned when a moderator or admin is required.
	ErrModeratorRequired = fmt.Errorf("%w: insufficient permissions", ErrForbidden)

	// ErrProfileNotOwned is returned when a user edits someone else's profile.
	ErrProfileNotOwned = fmt.Errorf("%w: you can only update your own profile", ErrForbidden)

	// ErrAvatarNotOwned is returned when a user uploads someone else's avatar.
	ErrAvatarNotOwned = fmt.Errorf("%w: you can only update your own avatar", ErrForbidden)

	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	ErrNotOwned = fmt.Errorf("%w: resource is owned by another user", ErrForbidden)

	// ErrSelfAction is returned when an admin tries to ban, demote or
	// deactivate their own account.
	ErrSelfAction = fmt.Errorf("%w: cannot perform this action on your own account", ErrForbidden)

	// ErrAccountInactive is returned when a deactivated account signs in.
	ErrAccountInactive = fmt.Errorf("%w: account is inactive", ErrForbidden)

	// ErrAccountBanned is returned when a banned account signs in.
	ErrAccountBanned = fmt.Errorf("%w: account is banned", ErrForbidden)

	// ErrInvalidCredentials is returned for an unknown email or wrong password.
	// The two cases are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrWrongPassword is returned when the current password supplied to a
	// password change does not match.
	ErrWrongPassword = errors.New("current password is incorrect")

	// ErrSamePassword is returned when the new password equals the current one.
	ErrSamePassword = errors.New("new password must be different from current password")

	// ErrInvalidResetToken covers expired, malformed and already used reset tokens.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")

	// ErrInvalidVerificationToken covers expired and malformed verification tokens.
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")

	// ErrBatchTooLarge is returned when a batch exceeds MaxBatchSize.
	ErrBatchTooLarge = fmt.Errorf("maximum %d users per batch", MaxBatchSize)

	// ErrInvalidFileType is returned for avatar uploads that are not JPEG, PNG or WebP.
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrFileTooLarge is returned for avatar uploads above MaxAvatarSize.
	ErrFileTooLarge = errors.New("file size exceeds limit")

	// ErrInvalidReference is returned when an input points at a related
	// entity that does not exist or does not fit, such as a parent comment
	// on a different post.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrInvalidBan is returned for a ban that is neither permanent nor has
	// a future expiry.
	ErrInvalidBan = errors.New("ban needs a future expiry or must be permanent")

	// ErrInvalidExpiry is returned for an API key expiry in the past.
	ErrInvalidExpiry = errors.New("expiry must be in the future")

	// ErrInvalidAPIKey covers unknown, malformed and revoked API keys.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrAPIKeyExpired is returned for a key past its expiry.
	ErrAPIKeyExpired = errors.New("API key has expired")
)
