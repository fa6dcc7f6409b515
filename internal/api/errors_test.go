package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/folio-api/internal/api/shared"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/service"
	"github.com/phrazzld/folio-api/internal/service/auth"
	"github.com/phrazzld/folio-api/internal/store"
	"github.com/phrazzld/folio-api/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"nil", nil, http.StatusOK, "An unexpected error occurred"},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized, "Invalid or expired token"},
		{"bad refresh", auth.ErrInvalidRefreshToken, http.StatusUnauthorized, "Invalid refresh token"},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
		{"admin required", service.ErrAdminRequired, http.StatusForbidden, "Admin access required"},
		{"moderator required", service.ErrModeratorRequired, http.StatusForbidden, "Insufficient permissions"},
		{"profile not owned", service.ErrProfileNotOwned, http.StatusForbidden, "You can only update your own profile"},
		{"banned", service.ErrAccountBanned, http.StatusForbidden, "Account is banned"},
		{"wrapped user not found", fmt.Errorf("lookup: %w", store.ErrUserNotFound), http.StatusNotFound, "User not found"},
		{"post not found", store.ErrPostNotFound, http.StatusNotFound, "Post not found"},
		{"email exists", store.ErrEmailExists, http.StatusConflict, "Email already registered"},
		{"username exists", store.ErrUsernameExists, http.StatusConflict, "Username already taken"},
		{"slug exists", store.ErrSlugExists, http.StatusConflict, "Slug already in use"},
		{"batch too large", service.ErrBatchTooLarge, http.StatusBadRequest, "Maximum 100 users per batch"},
		{"file type", service.ErrInvalidFileType, http.StatusBadRequest, "Invalid file type. Allowed: image/jpeg, image/png, image/webp"},
		{"file size", service.ErrFileTooLarge, http.StatusBadRequest, "File size exceeds 5MB limit"},
		{"domain validation", fmt.Errorf("%w: title empty", domain.ErrValidation), http.StatusBadRequest, "Validation failed"},
		{"field errors", validation.Errors{validation.ValueError("x", "bad")}, http.StatusBadRequest, "Validation failed"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.status, MapErrorToStatusCode(tt.err))
			assert.Equal(t, tt.message, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestHandleAPIError(t *testing.T) {
	t.Parallel()

	t.Run("fallback replaces generic 500", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		HandleAPIError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: connection refused"), "Failed to list posts")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := errorOf(t, rec)
		assert.Equal(t, "Failed to list posts", resp.Error)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})

	t.Run("fallback ignored for classified errors", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		HandleAPIError(rec, httptest.NewRequest(http.MethodGet, "/", nil), store.ErrCommentNotFound, "Failed to delete comment")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Comment not found", errorOf(t, rec).Error)
	})

	t.Run("validation details", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(shared.WithTraceID(req.Context(), "trace-123"))
		HandleAPIError(rec, req, fmt.Errorf("wrapped: %w", validation.Errors{
			validation.ValueError("tags[0]", "too long"),
		}), "")

		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := errorOf(t, rec)
		assert.Equal(t, "Validation failed", resp.Error)
		assert.Equal(t, "trace-123", resp.TraceID)
		require.Len(t, resp.Details, 1)
		assert.Equal(t, "tags[0]", resp.Details[0].Field)
	})
}
