package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess        = "access"
	TokenTypeRefresh       = "refresh"
	TokenTypePasswordReset = "password_reset"
	TokenTypeEmailVerify   = "email_verify"
)

// JWTService issues and validates the signed tokens used by the API.
type JWTService interface {
	// GenerateToken creates an access token for userID carrying role.
	GenerateToken(ctx context.Context, userID uuid.UUID, role domain.Role) (token string, expiresAt time.Time, err error)

	// ValidateToken returns ErrExpiredToken, ErrWrongTokenType or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// GenerateRefreshToken creates a refresh token. rememberMe selects the
	// longer remember-me lifetime.
	GenerateRefreshToken(ctx context.Context, userID uuid.UUID, rememberMe bool) (string, error)

	// ValidateRefreshToken returns ErrExpiredRefreshToken, ErrWrongTokenType
	// or ErrInvalidRefreshToken on failure.
	ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error)

	// GeneratePurposeToken creates a short-lived single-purpose token such
	// as a password reset link.
	GeneratePurposeToken(ctx context.Context, userID uuid.UUID, tokenType string, ttl time.Duration) (string, error)

	// ValidatePurposeToken checks signature, expiry and that the token was
	// issued for tokenType.
	ValidatePurposeToken(ctx context.Context, tokenString, tokenType string) (*Claims, error)
}

// Claims represents the custom claims structure for the JWT tokens.
type Claims struct {
	UserID    uuid.UUID
	Role      domain.Role
	TokenType string
	// RememberMe is set on refresh tokens issued with the longer lifetime so
	// rotation keeps it.
	RememberMe bool
	Subject    string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	ID         string
}
