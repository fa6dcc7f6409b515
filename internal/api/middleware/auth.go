package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/api/shared"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/platform/logger"
	"github.com/phrazzld/folio-api/internal/service"
	"github.com/phrazzld/folio-api/internal/service/auth"
	"github.com/phrazzld/folio-api/internal/store"
)

// APIKeyHeader carries a raw API key as an alternative to a bearer token.
const APIKeyHeader = "X-API-Key"

// PublicPathPrefixes are served without authentication.
var PublicPathPrefixes = []string{
	"/health",
	"/api/health",
	"/api/auth/",
	"/docs",
	"/redoc",
	"/openapi.json",
}

// APIKeyAuthenticator resolves a raw API key to its owner.
type APIKeyAuthenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*domain.User, *domain.APIKey, error)
}

// ActiveUserLoader reloads the account behind a token. It fails with
// service.ErrAccountInactive or service.ErrAccountBanned when the account
// can no longer sign in.
type ActiveUserLoader interface {
	GetActiveUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// AuthMiddleware authenticates requests with a bearer JWT or an API key and
// stores the resulting shared.Principal in the request context.
type AuthMiddleware struct {
	jwtService auth.JWTService
	users      ActiveUserLoader
	apiKeys    APIKeyAuthenticator
	logger     *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware. apiKeys may be nil, in
// which case X-API-Key is ignored.
func NewAuthMiddleware(
	jwtService auth.JWTService,
	users ActiveUserLoader,
	apiKeys APIKeyAuthenticator,
	logger *slog.Logger,
) *AuthMiddleware {
	if users == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("users cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{
		jwtService: jwtService,
		users:      users,
		apiKeys:    apiKeys,
		logger:     logger.With(slog.String("component", "auth_middleware")),
	}
}

// IsPublicPath reports whether path skips authentication.
func IsPublicPath(path string) bool {
	for _, prefix := range PublicPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Authenticate rejects unauthenticated requests to non-public paths.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		var (
			principal *shared.Principal
			err       error
		)
		switch {
		case r.Header.Get("Authorization") != "":
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, r, "Authentication required", nil)
				return
			}
			principal, err = m.fromJWT(r.Context(), token)
		case r.Header.Get(APIKeyHeader) != "" && m.apiKeys != nil:
			principal, err = m.fromAPIKey(r.Context(), r.Header.Get(APIKeyHeader), r.Method, r.URL.Path)
		default:
			unauthorized(w, r, "Authentication required", nil)
			return
		}

		if err != nil {
			if isAuthFailure(err) {
				unauthorized(w, r, "Invalid or expired token", err)
				return
			}
			if errors.Is(err, service.ErrForbidden) {
				shared.RespondWithErrorAndLog(w, r, http.StatusForbidden,
					"Insufficient permissions", err, shared.WithElevatedLogLevel())
				return
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"Authentication error", err)
			return
		}

		ctx := shared.WithPrincipal(r.Context(), principal)
		log := logger.FromContextOrDefault(ctx, m.logger).With(
			slog.String("user_id", principal.UserID.String()),
			slog.String("auth_method", string(principal.Method)))
		ctx = logger.WithLogger(ctx, log)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) fromJWT(ctx context.Context, token string) (*shared.Principal, error) {
	claims, err := m.jwtService.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	// The role claim may be stale; the stored role wins.
	user, err := m.users.GetActiveUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return &shared.Principal{
		UserID: user.ID,
		Role:   user.Role,
		Method: shared.AuthMethodJWT,
	}, nil
}

func (m *AuthMiddleware) fromAPIKey(ctx context.Context, raw, method, path string) (*shared.Principal, error) {
	user, key, err := m.apiKeys.Authenticate(ctx, raw)
	if err != nil {
		return nil, err
	}
	if scope := RequiredScope(method, path); !key.HasScope(scope) {
		return nil, fmt.Errorf("%w: API key lacks scope %s", service.ErrForbidden, scope)
	}
	return &shared.Principal{
		UserID:   user.ID,
		Role:     user.Role,
		Method:   shared.AuthMethodAPIKey,
		APIKeyID: key.ID,
		Scopes:   key.Scopes,
	}, nil
}

// RequiredScope names the API key scope a request needs: the first path
// segment under /api joined with "read" for safe methods or "write"
// otherwise, e.g. "posts:read".
func RequiredScope(method, path string) string {
	resource := strings.TrimPrefix(path, "/api/")
	resource, _, _ = strings.Cut(resource, "/")
	if resource == "" {
		resource = "api"
	}
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return resource + ":read"
	default:
		return resource + ":write"
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func isAuthFailure(err error) bool {
	return errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, auth.ErrExpiredToken) ||
		errors.Is(err, auth.ErrWrongTokenType) ||
		errors.Is(err, service.ErrInvalidAPIKey) ||
		errors.Is(err, service.ErrAPIKeyExpired) ||
		errors.Is(err, service.ErrAccountInactive) ||
		errors.Is(err, service.ErrAccountBanned) ||
		errors.Is(err, store.ErrUserNotFound)
}

func unauthorized(w http.ResponseWriter, r *http.Request, message string, err error) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, message, err,
		shared.WithElevatedLogLevel())
}

// RequireRole admits only principals holding one of roles. It must run
// after Authenticate.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	message := "Insufficient permissions"
	if len(roles) == 1 && roles[0] == domain.RoleAdmin {
		message = "Admin access required"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := shared.GetPrincipal(r.Context())
			if !ok {
				unauthorized(w, r, "Authentication required", nil)
				return
			}
			for _, role := range roles {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusForbidden, message, nil,
				shared.WithElevatedLogLevel())
		})
	}
}
