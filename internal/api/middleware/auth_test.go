package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/api/shared"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/mocks"
	"github.com/phrazzld/folio-api/internal/service"
	"github.com/phrazzld/folio-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeys struct {
	fn func(ctx context.Context, raw string) (*domain.User, *domain.APIKey, error)
}

func (f fakeKeys) Authenticate(ctx context.Context, raw string) (*domain.User, *domain.APIKey, error) {
	return f.fn(ctx, raw)
}

// principalEcho writes the principal it sees so tests can inspect it.
func principalEcho(t *testing.T, seen **shared.Principal) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := shared.GetPrincipal(r.Context())
		*seen = p
		w.WriteHeader(http.StatusOK)
	})
}

// newAccounts returns an account service over a store seeded with users.
func newAccounts(t *testing.T, users ...*domain.User) service.AccountService {
	t.Helper()
	store := mocks.NewMockUserStore()
	store.Add(users...)
	accounts, err := service.NewAccountService(store, mocks.PlainHasher{}, &mocks.MockJWTService{},
		&mocks.MockMailSender{}, nil, service.AccountConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return accounts
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	keyID := uuid.New()
	bannedID := uuid.New()
	inactiveID := uuid.New()
	accounts := newAccounts(t,
		&domain.User{ID: userID, Role: domain.RoleModerator, IsActive: true},
		&domain.User{ID: bannedID, Role: domain.RoleUser, IsActive: true, BanPermanent: true},
		&domain.User{ID: inactiveID, Role: domain.RoleAdmin, IsActive: false},
	)
	keys := fakeKeys{fn: func(_ context.Context, raw string) (*domain.User, *domain.APIKey, error) {
		switch raw {
		case "fk_good":
			return &domain.User{ID: userID, Role: domain.RoleUser},
				&domain.APIKey{ID: keyID, UserID: userID, Scopes: []string{"posts:read"}}, nil
		case "fk_expired":
			return nil, nil, service.ErrAPIKeyExpired
		case "fk_broken":
			return nil, nil, errors.New("database unavailable")
		default:
			return nil, nil, service.ErrInvalidAPIKey
		}
	}}
	m := NewAuthMiddleware(&mocks.MockJWTService{}, accounts, keys, nil)

	tests := []struct {
		name        string
		method      string
		path        string
		headers     map[string]string
		wantStatus  int
		wantMessage string
		wantMethod  shared.AuthMethod
		wantRole    domain.Role
	}{
		{
			name:       "valid bearer token",
			path:       "/api/posts",
			headers:    map[string]string{"Authorization": "Bearer access:" + userID.String() + ":moderator"},
			wantStatus: http.StatusOK,
			wantMethod: shared.AuthMethodJWT,
			wantRole:   domain.RoleModerator,
		},
		{
			name:       "lowercase bearer scheme",
			path:       "/api/posts",
			headers:    map[string]string{"Authorization": "bearer access:" + userID.String() + ":moderator"},
			wantStatus: http.StatusOK,
			wantMethod: shared.AuthMethodJWT,
			wantRole:   domain.RoleModerator,
		},
		{
			name:       "stale role claim uses stored role",
			path:       "/api/posts",
			headers:    map[string]string{"Authorization": "Bearer access:" + userID.String() + ":admin"},
			wantStatus: http.StatusOK,
			wantMethod: shared.AuthMethodJWT,
			wantRole:   domain.RoleModerator,
		},
		{
			name:        "banned user token",
			path:        "/api/me",
			headers:     map[string]string{"Authorization": "Bearer access:" + bannedID.String() + ":user"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired token",
		},
		{
			name:        "inactive user token",
			path:        "/api/me",
			headers:     map[string]string{"Authorization": "Bearer access:" + inactiveID.String() + ":admin"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired token",
		},
		{
			name:        "deleted user token",
			path:        "/api/me",
			headers:     map[string]string{"Authorization": "Bearer access:" + uuid.NewString() + ":user"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired token",
		},
		{
			name:        "missing credentials",
			path:        "/api/posts",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Authentication required",
		},
		{
			name:        "malformed authorization header",
			path:        "/api/posts",
			headers:     map[string]string{"Authorization": "Token abc"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Authentication required",
		},
		{
			name:        "invalid token",
			path:        "/api/posts",
			headers:     map[string]string{"Authorization": "Bearer garbage"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired token",
		},
		{
			name:        "refresh token used as access token",
			path:        "/api/posts",
			headers:     map[string]string{"Authorization": "Bearer refresh:" + userID.String() + ":"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired token",
		},
		{
			name:       "valid api key with scope",
			method:     http.MethodGet,
			path:       "/api/posts/" + uuid.NewString(),
			headers:    map[string]string{APIKeyHeader: "fk_good"},
			wantStatus: http.StatusOK,
			wantMethod: shared.AuthMethodAPIKey,
			wantRole:   domain.RoleUser,
		},
		{
			name:        "api key without write scope",
			method:      http.MethodPost,
			path:        "/api/posts",
			headers:     map[string]string{APIKeyHeader: "fk_good"},
			wantStatus:  http.StatusForbidden,
			wantMessage: "Insufficient permissions",
		},
		{
			name:        "expired api key",
			path:        "/api/posts",
			headers:     map[string]string{APIKeyHeader: "fk_expired"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired token",
		},
		{
			name:        "unknown api key",
			path:        "/api/posts",
			headers:     map[string]string{APIKeyHeader: "fk_nope"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired token",
		},
		{
			name:        "api key backend failure",
			path:        "/api/posts",
			headers:     map[string]string{APIKeyHeader: "fk_broken"},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Authentication error",
		},
		{
			name:       "public health path",
			path:       "/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "public auth path",
			method:     http.MethodPost,
			path:       "/api/auth/login",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req := httptest.NewRequest(method, tt.path, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			var seen *shared.Principal
			m.Authenticate(principalEcho(t, &seen)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			}
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, decodeError(t, rec).Error)
				assert.Nil(t, seen)
			}
			if tt.wantMethod != "" {
				require.NotNil(t, seen)
				assert.Equal(t, userID, seen.UserID)
				assert.Equal(t, tt.wantMethod, seen.Method)
				assert.Equal(t, tt.wantRole, seen.Role)
			}
			if tt.wantMethod == shared.AuthMethodAPIKey {
				assert.Equal(t, keyID, seen.APIKeyID)
			}
		})
	}
}

func TestAuthMiddleware_NoAPIKeyAuthenticator(t *testing.T) {
	t.Parallel()

	m := NewAuthMiddleware(&mocks.MockJWTService{}, newAccounts(t), nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set(APIKeyHeader, "fk_anything")
	rec := httptest.NewRecorder()

	var seen *shared.Principal
	m.Authenticate(principalEcho(t, &seen)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, seen)
}

func TestAuthMiddleware_ValidatorError(t *testing.T) {
	t.Parallel()

	jwt := &mocks.MockJWTService{
		ValidateTokenFn: func(context.Context, string) (*auth.Claims, error) {
			return nil, auth.ErrExpiredToken
		},
	}
	m := NewAuthMiddleware(jwt, newAccounts(t), nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer old")
	rec := httptest.NewRecorder()

	var seen *shared.Principal
	m.Authenticate(principalEcho(t, &seen)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", decodeError(t, rec).Error)
}

func TestRequiredScope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/api/posts", "posts:read"},
		{http.MethodGet, "/api/posts/123/comments", "posts:read"},
		{http.MethodPost, "/api/comments", "comments:write"},
		{http.MethodDelete, "/api/me/api-keys/1", "me:write"},
		{http.MethodHead, "/api/users", "users:read"},
		{http.MethodGet, "/api/", "api:read"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RequiredScope(tt.method, tt.path), "%s %s", tt.method, tt.path)
	}
}

func TestIsPublicPath(t *testing.T) {
	t.Parallel()

	assert.True(t, IsPublicPath("/health"))
	assert.True(t, IsPublicPath("/api/health"))
	assert.True(t, IsPublicPath("/api/auth/register"))
	assert.True(t, IsPublicPath("/openapi.json"))
	assert.False(t, IsPublicPath("/api/authors"))
	assert.False(t, IsPublicPath("/api/users"))
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		roles       []domain.Role
		principal   *shared.Principal
		wantStatus  int
		wantMessage string
	}{
		{
			name:       "admin allowed",
			roles:      []domain.Role{domain.RoleAdmin},
			principal:  &shared.Principal{UserID: uuid.New(), Role: domain.RoleAdmin},
			wantStatus: http.StatusOK,
		},
		{
			name:        "user rejected from admin route",
			roles:       []domain.Role{domain.RoleAdmin},
			principal:   &shared.Principal{UserID: uuid.New(), Role: domain.RoleUser},
			wantStatus:  http.StatusForbidden,
			wantMessage: "Admin access required",
		},
		{
			name:       "moderator allowed on staff route",
			roles:      []domain.Role{domain.RoleModerator, domain.RoleAdmin},
			principal:  &shared.Principal{UserID: uuid.New(), Role: domain.RoleModerator},
			wantStatus: http.StatusOK,
		},
		{
			name:        "user rejected from staff route",
			roles:       []domain.Role{domain.RoleModerator, domain.RoleAdmin},
			principal:   &shared.Principal{UserID: uuid.New(), Role: domain.RoleUser},
			wantStatus:  http.StatusForbidden,
			wantMessage: "Insufficient permissions",
		},
		{
			name:        "no principal",
			roles:       []domain.Role{domain.RoleAdmin},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Authentication required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/api/users/stats", nil)
			if tt.principal != nil {
				req = req.WithContext(shared.WithPrincipal(req.Context(), tt.principal))
			}
			rec := httptest.NewRecorder()
			RequireRole(tt.roles...)(ok).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, decodeError(t, rec).Error)
			}
		})
	}
}
