package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrationHandler_APIKeys(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	owner := a.addUser(t, "keyholder", domain.RoleUser)
	other := a.addUser(t, "nosy", domain.RoleUser)
	a.addPost(t, owner, "Readable", domain.PostStatusPublished)

	rec := a.do(t, http.MethodPost, "/api/me/api-keys", owner, map[string]any{
		"name": "ci", "scopes": []string{"posts:read"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[CreatedAPIKeyResponse](t, rec)
	assert.True(t, strings.HasPrefix(created.Key, "fk_"+created.Prefix+"_"), created.Key)

	withKey := func(method, path string) int {
		req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
		req.Header.Set("X-API-Key", created.Key)
		rec := httptest.NewRecorder()
		a.router.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, withKey(http.MethodGet, "/api/posts"))
	assert.Equal(t, http.StatusForbidden, withKey(http.MethodPost, "/api/posts"))

	rec = a.do(t, http.MethodGet, "/api/me/api-keys", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	keys := decode[[]APIKeyResponse](t, rec)
	require.Len(t, keys, 1)
	assert.Equal(t, created.ID, keys[0].ID)
	assert.NotContains(t, rec.Body.String(), created.Key)

	rec = a.do(t, http.MethodGet, "/api/me/api-keys", other, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]APIKeyResponse](t, rec))

	rec = a.do(t, http.MethodDelete, pathf("/api/me/api-keys", created.ID), other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodDelete, pathf("/api/me/api-keys", created.ID), owner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, withKey(http.MethodGet, "/api/posts"))

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name  string
			body  map[string]any
			field string
		}{
			{"missing scopes", map[string]any{"name": "x"}, "scopes"},
			{"empty name", map[string]any{"name": "", "scopes": []string{"a"}}, "name"},
			{"past expiry", map[string]any{
				"name": "x", "scopes": []string{"a"},
				"expires_at": time.Now().Add(-time.Minute).Format(time.RFC3339),
			}, "expires_at"},
		}
		for _, tt := range tests {
			rec := a.do(t, http.MethodPost, "/api/me/api-keys", owner, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, tt.name)
			assert.Equal(t, tt.field, errorOf(t, rec).Details[0].Field, tt.name)
		}
	})
}

func TestIntegrationHandler_Webhooks(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	owner := a.addUser(t, "hooker", domain.RoleUser)

	rec := a.do(t, http.MethodPost, "/api/me/webhooks", owner, map[string]any{
		"url":    "https://hooks.example.com/folio",
		"events": []string{domain.EventPostPublished},
		"secret": "0123456789abcdef",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	hook := decode[WebhookResponse](t, rec)
	assert.True(t, hook.Active)
	assert.True(t, hook.HasSecret)
	assert.NotContains(t, rec.Body.String(), "0123456789abcdef")

	rec = a.do(t, http.MethodPost, "/api/me/webhooks", owner, map[string]any{
		"url":    "https://hooks.example.com/paused",
		"events": []string{domain.EventPostPublished},
		"active": false,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.False(t, decode[WebhookResponse](t, rec).Active)

	rec = a.do(t, http.MethodGet, "/api/me/webhooks", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]WebhookResponse](t, rec), 2)

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"bad url", map[string]any{"url": "gopher://x", "events": []string{domain.EventPostPublished}}, "url"},
		{"no events", map[string]any{"url": "https://x.example.com", "events": []string{}}, "events"},
		{"unknown event", map[string]any{"url": "https://x.example.com", "events": []string{"post.exploded"}}, "events[0]"},
		{"short secret", map[string]any{"url": "https://x.example.com", "events": []string{domain.EventPostPublished}, "secret": "short"}, "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, "/api/me/webhooks", owner, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.field, errorOf(t, rec).Details[0].Field)
		})
	}

	rec = a.do(t, http.MethodDelete, pathf("/api/me/webhooks", hook.ID), owner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(t, http.MethodDelete, pathf("/api/me/webhooks", uuid.New()), owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminHandler(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	admin := a.addUser(t, "root", domain.RoleAdmin)
	mod := a.addUser(t, "mod", domain.RoleModerator)
	author := a.addUser(t, "author", domain.RoleUser)
	reader := a.addUser(t, "reader", domain.RoleUser)

	t.Run("role by body", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/admin/roles", admin, map[string]any{
			"user_id": reader.ID, "role": "moderator",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "moderator", decode[UserResponse](t, rec).Role)

		rec = a.do(t, http.MethodPost, "/api/admin/roles", admin, map[string]any{"role": "user"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = a.do(t, http.MethodPost, "/api/admin/roles", mod, map[string]any{
			"user_id": reader.ID, "role": "admin",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Admin access required", errorOf(t, rec).Error)
	})

	t.Run("ban and unban by body", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/admin/bans", admin, map[string]any{
			"user_id":    author.ID,
			"reason":     "cooling off",
			"expires_at": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.NotNil(t, decode[UserResponse](t, rec).BannedUntil)

		rec = a.do(t, http.MethodPost, "/api/auth/login", nil, map[string]any{
			"email": author.Email, "password": testPassword,
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Account is banned", errorOf(t, rec).Error)

		rec = a.do(t, http.MethodDelete, pathf("/api/admin/bans", author.ID), admin, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Nil(t, decode[UserResponse](t, rec).BannedUntil)

		rec = a.do(t, http.MethodPost, "/api/admin/bans", admin, map[string]any{
			"user_id": admin.ID, "reason": "oops", "permanent": true,
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("moderation", func(t *testing.T) {
		post := a.addPost(t, author, "Questionable", domain.PostStatusPublished)

		rec := a.do(t, http.MethodPost, "/api/admin/moderation", author, map[string]any{
			"content_id": post.ID, "action": "flag",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Insufficient permissions", errorOf(t, rec).Error)

		rec = a.do(t, http.MethodPost, "/api/admin/moderation", mod, map[string]any{
			"content_id": post.ID, "action": "explode",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		before := len(a.mailer.Messages())
		rec = a.do(t, http.MethodPost, "/api/admin/moderation", mod, map[string]any{
			"content_id": post.ID, "content_type": "post", "action": "flag", "reason": "needs review",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		result := decode[service.ModerationResult](t, rec)
		assert.Equal(t, author.ID, result.AuthorID)
		assert.True(t, result.AuthorNotified)
		assert.Len(t, a.mailer.Messages(), before+1)

		other := a.addUser(t, "bystander", domain.RoleUser)
		rec = a.do(t, http.MethodGet, pathf("/api/posts", post.ID), other, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	for _, path := range []string{"/health", "/api/health"} {
		rec := a.do(t, http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		resp := decode[HealthResponse](t, rec)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "test", resp.Version)
		assert.GreaterOrEqual(t, resp.UptimeSeconds, int64(0))
	}
}
