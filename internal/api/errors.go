package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/phrazzld/folio-api/internal/api/shared"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/service"
	"github.com/phrazzld/folio-api/internal/service/auth"
	"github.com/phrazzld/folio-api/internal/store"
	"github.com/phrazzld/folio-api/internal/validation"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var verrs validation.Errors
	switch {
	case err == nil:
		return http.StatusOK

	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidAPIKey),
		errors.Is(err, service.ErrAPIKeyExpired),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.As(err, &verrs),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, service.ErrWrongPassword),
		errors.Is(err, service.ErrSamePassword),
		errors.Is(err, service.ErrInvalidResetToken),
		errors.Is(err, service.ErrInvalidVerificationToken),
		errors.Is(err, service.ErrBatchTooLarge),
		errors.Is(err, service.ErrInvalidFileType),
		errors.Is(err, service.ErrFileTooLarge),
		errors.Is(err, service.ErrInvalidReference),
		errors.Is(err, service.ErrInvalidBan),
		errors.Is(err, service.ErrInvalidExpiry):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verrs validation.Errors
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid or expired token"

	case errors.Is(err, auth.ErrMissingToken):
		return "Authentication required"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken):
		return "Invalid refresh token"

	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid email or password"

	case errors.Is(err, service.ErrInvalidAPIKey):
		return "Invalid API key"

	case errors.Is(err, service.ErrAPIKeyExpired):
		return "API key has expired"

	// Authorization errors
	case errors.Is(err, service.ErrAdminRequired):
		return "Admin access required"

	case errors.Is(err, service.ErrModeratorRequired):
		return "Insufficient permissions"

	case errors.Is(err, service.ErrProfileNotOwned):
		return "You can only update your own profile"

	case errors.Is(err, service.ErrAvatarNotOwned):
		return "You can only update your own avatar"

	case errors.Is(err, service.ErrSelfAction):
		return "You cannot perform this action on your own account"

	case errors.Is(err, service.ErrAccountInactive):
		return "Account is inactive"

	case errors.Is(err, service.ErrAccountBanned):
		return "Account is banned"

	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, service.ErrForbidden):
		return "You do not have permission to perform this action"

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrPostNotFound):
		return "Post not found"

	case errors.Is(err, store.ErrCommentNotFound):
		return "Comment not found"

	case errors.Is(err, store.ErrCategoryNotFound):
		return "Category not found"

	case errors.Is(err, store.ErrAPIKeyNotFound):
		return "API key not found"

	case errors.Is(err, store.ErrWebhookNotFound):
		return "Webhook not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return "Email already registered"

	case errors.Is(err, store.ErrUsernameExists):
		return "Username already taken"

	case errors.Is(err, store.ErrSlugExists):
		return "Slug already in use"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	// Bad request errors
	case errors.Is(err, service.ErrWrongPassword):
		return "Current password is incorrect"

	case errors.Is(err, service.ErrSamePassword):
		return "New password must be different from current password"

	case errors.Is(err, service.ErrInvalidResetToken):
		return "Invalid or expired reset token"

	case errors.Is(err, service.ErrInvalidVerificationToken):
		return "Invalid or expired verification token"

	case errors.Is(err, service.ErrBatchTooLarge):
		return fmt.Sprintf("Maximum %d users per batch", service.MaxBatchSize)

	case errors.Is(err, service.ErrInvalidFileType):
		return "Invalid file type. Allowed: image/jpeg, image/png, image/webp"

	case errors.Is(err, service.ErrFileTooLarge):
		return "File size exceeds 5MB limit"

	case errors.Is(err, service.ErrInvalidReference):
		return "Referenced resource does not exist"

	case errors.Is(err, service.ErrInvalidBan):
		return "A ban needs a future expires_at or permanent set"

	case errors.Is(err, service.ErrInvalidExpiry):
		return "Expiry must be in the future"

	case errors.As(err, &verrs),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return "Validation failed"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status and safe message for err. A non-empty
// fallback replaces the generic message of unclassified 500 errors.
// Validation errors carry their field details.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		shared.RespondWithValidationError(w, r, verrs)
		return
	}

	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
