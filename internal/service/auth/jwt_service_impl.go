package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/config"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/platform/logger"
)

// hmacJWTService is an implementation of JWTService using HMAC-SHA signing.
type hmacJWTService struct {
	signingKey         []byte
	accessLifetime     time.Duration
	refreshLifetime    time.Duration
	rememberMeLifetime time.Duration
	timeFunc           func() time.Time
	clockSkew          time.Duration
}

type jwtCustomClaims struct {
	UserID     uuid.UUID `json:"uid"`
	Role       string    `json:"role,omitempty"`
	TokenType  string    `json:"type"`
	RememberMe bool      `json:"rem,omitempty"`
	jwt.RegisteredClaims
}

var _ JWTService = (*hmacJWTService)(nil)

// NewJWTService creates a new JWT service using HMAC-SHA256 signing.
func NewJWTService(cfg config.AuthConfig) (JWTService, error) {
	return newHMACJWTService(cfg, time.Now)
}

func newHMACJWTService(cfg config.AuthConfig, now func() time.Time) (*hmacJWTService, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}
	if cfg.TokenLifetimeMinutes <= 0 || cfg.RefreshTokenLifetimeMinutes <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive")
	}
	remember := cfg.RememberMeLifetimeMinutes
	if remember < cfg.RefreshTokenLifetimeMinutes {
		remember = cfg.RefreshTokenLifetimeMinutes
	}
	return &hmacJWTService{
		signingKey:         []byte(cfg.JWTSecret),
		accessLifetime:     time.Duration(cfg.TokenLifetimeMinutes) * time.Minute,
		refreshLifetime:    time.Duration(cfg.RefreshTokenLifetimeMinutes) * time.Minute,
		rememberMeLifetime: time.Duration(remember) * time.Minute,
		timeFunc:           now,
		clockSkew:          2 * time.Minute,
	}, nil
}

func (s *hmacJWTService) sign(ctx context.Context, claims jwtCustomClaims, ttl time.Duration) (string, time.Time, error) {
	now := s.timeFunc()
	expiresAt := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.New().String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		logger.FromContext(ctx).Error("failed to sign JWT",
			"error", err,
			"user_id", claims.UserID,
			"token_type", claims.TokenType)
		return "", time.Time{}, fmt.Errorf("failed to sign %s token with HMAC-SHA256: %w", claims.TokenType, err)
	}
	return signed, expiresAt, nil
}

// parse verifies tokenString and that its type is wantType. Parser errors
// are folded into invalid or expired, which callers translate.
func (s *hmacJWTService) parse(ctx context.Context, tokenString, wantType string) (*Claims, error) {
	log := logger.FromContext(ctx).With("token_type", wantType)
	now := s.timeFunc()

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwtCustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("token validation failed: expired")
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			log.Debug("token validation failed: not yet valid")
			return nil, ErrTokenNotYetValid
		default:
			log.Debug("token validation failed", "error", err, "error_type", fmt.Sprintf("%T", err))
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		log.Debug("token validation failed: wrong token type", "actual", claims.TokenType)
		return nil, ErrWrongTokenType
	}

	return &Claims{
		UserID:     claims.UserID,
		Role:       domain.Role(claims.Role),
		TokenType:  claims.TokenType,
		RememberMe: claims.RememberMe,
		Subject:    claims.Subject,
		IssuedAt:   claims.IssuedAt.Time,
		ExpiresAt:  claims.ExpiresAt.Time,
		ID:         claims.ID,
	}, nil
}

// GenerateToken creates a signed JWT access token with user claims.
func (s *hmacJWTService) GenerateToken(ctx context.Context, userID uuid.UUID, role domain.Role) (string, time.Time, error) {
	return s.sign(ctx, jwtCustomClaims{UserID: userID, Role: string(role), TokenType: TokenTypeAccess}, s.accessLifetime)
}

// ValidateToken validates a JWT access token and returns the claims if valid.
func (s *hmacJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	return s.parse(ctx, tokenString, TokenTypeAccess)
}

// GenerateRefreshToken creates a signed JWT refresh token.
func (s *hmacJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID, rememberMe bool) (string, error) {
	ttl := s.refreshLifetime
	if rememberMe {
		ttl = s.rememberMeLifetime
	}
	token, _, err := s.sign(ctx, jwtCustomClaims{UserID: userID, TokenType: TokenTypeRefresh, RememberMe: rememberMe}, ttl)
	return token, err
}

// ValidateRefreshToken validates a JWT refresh token and returns the claims if valid.
func (s *hmacJWTService) ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.parse(ctx, tokenString, TokenTypeRefresh)
	switch {
	case errors.Is(err, ErrExpiredToken):
		return nil, ErrExpiredRefreshToken
	case errors.Is(err, ErrWrongTokenType):
		return nil, ErrWrongTokenType
	case err != nil:
		return nil, ErrInvalidRefreshToken
	}
	return claims, nil
}

func (s *hmacJWTService) GeneratePurposeToken(ctx context.Context, userID uuid.UUID, tokenType string, ttl time.Duration) (string, error) {
	if tokenType == TokenTypeAccess || tokenType == TokenTypeRefresh {
		return "", fmt.Errorf("%s is not a purpose token type", tokenType)
	}
	token, _, err := s.sign(ctx, jwtCustomClaims{UserID: userID, TokenType: tokenType}, ttl)
	return token, err
}

func (s *hmacJWTService) ValidatePurposeToken(ctx context.Context, tokenString, tokenType string) (*Claims, error) {
	return s.parse(ctx, tokenString, tokenType)
}
