package mocks

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/service/auth"
)

// MockJWTService implements auth.JWTService for testing. Without function
// fields set it issues tokens of the form "<type>:<user id>:<role>" and
// validates them back.
type MockJWTService struct {
	GenerateTokenFn        func(ctx context.Context, userID uuid.UUID, role domain.Role) (string, time.Time, error)
	ValidateTokenFn        func(ctx context.Context, token string) (*auth.Claims, error)
	GenerateRefreshTokenFn func(ctx context.Context, userID uuid.UUID, rememberMe bool) (string, error)
	ValidateRefreshTokenFn func(ctx context.Context, token string) (*auth.Claims, error)
	ValidatePurposeTokenFn func(ctx context.Context, token, tokenType string) (*auth.Claims, error)

	// ExpiresAt is returned by the default GenerateToken.
	ExpiresAt time.Time
	// Err, when set, fails every default generate call.
	Err error
}

var _ auth.JWTService = (*MockJWTService)(nil)

func (m *MockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID, role domain.Role) (string, time.Time, error) {
	if m.GenerateTokenFn != nil {
		return m.GenerateTokenFn(ctx, userID, role)
	}
	if m.Err != nil {
		return "", time.Time{}, m.Err
	}
	return auth.TokenTypeAccess + ":" + userID.String() + ":" + string(role), m.ExpiresAt, nil
}

func (m *MockJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, token)
	}
	return parseFakeToken(token, auth.TokenTypeAccess, auth.ErrInvalidToken)
}

func (m *MockJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID, rememberMe bool) (string, error) {
	if m.GenerateRefreshTokenFn != nil {
		return m.GenerateRefreshTokenFn(ctx, userID, rememberMe)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return auth.TokenTypeRefresh + ":" + userID.String() + ":", nil
}

func (m *MockJWTService) ValidateRefreshToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.ValidateRefreshTokenFn != nil {
		return m.ValidateRefreshTokenFn(ctx, token)
	}
	return parseFakeToken(token, auth.TokenTypeRefresh, auth.ErrInvalidRefreshToken)
}

func (m *MockJWTService) GeneratePurposeToken(ctx context.Context, userID uuid.UUID, tokenType string, ttl time.Duration) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return tokenType + ":" + userID.String() + ":", nil
}

func (m *MockJWTService) ValidatePurposeToken(ctx context.Context, token, tokenType string) (*auth.Claims, error) {
	if m.ValidatePurposeTokenFn != nil {
		return m.ValidatePurposeTokenFn(ctx, token, tokenType)
	}
	return parseFakeToken(token, tokenType, auth.ErrInvalidToken)
}

func parseFakeToken(token, wantType string, invalid error) (*auth.Claims, error) {
	parts := strings.SplitN(token, ":", 3)
	if len(parts) != 3 {
		return nil, invalid
	}
	if parts[0] != wantType {
		return nil, auth.ErrWrongTokenType
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, invalid
	}
	return &auth.Claims{
		UserID:    id,
		Role:      domain.Role(parts[2]),
		TokenType: wantType,
		Subject:   id.String(),
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}
