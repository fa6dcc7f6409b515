package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/folio-api/internal/api/shared"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/platform/logger"
	"github.com/phrazzld/folio-api/internal/redact"
	"github.com/phrazzld/folio-api/internal/service"
	"github.com/phrazzld/folio-api/internal/service/auth"
	"github.com/phrazzld/folio-api/internal/validation"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	accounts   service.AccountService
	jwtService auth.JWTService
	logger     *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(accounts service.AccountService, jwtService auth.JWTService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AuthHandler")
	}
	return &AuthHandler{
		accounts:   accounts,
		jwtService: jwtService,
		logger:     logger.With(slog.String("component", "auth_handler")),
	}
}

type tokenPair struct {
	access    string
	refresh   string
	expiresAt time.Time
}

func (h *AuthHandler) issueTokens(ctx context.Context, user *domain.User, rememberMe bool) (*tokenPair, error) {
	access, expiresAt, err := h.jwtService.GenerateToken(ctx, user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := h.jwtService.GenerateRefreshToken(ctx, user.ID, rememberMe)
	if err != nil {
		return nil, err
	}
	return &tokenPair{access: access, refresh: refresh, expiresAt: expiresAt}, nil
}

func (h *AuthHandler) respondWithSession(w http.ResponseWriter, r *http.Request, status int, user *domain.User, rememberMe bool) {
	tokens, err := h.issueTokens(r.Context(), user, rememberMe)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to generate authentication token", err)
		return
	}
	shared.RespondWithJSON(w, r, status, AuthResponse{
		User:         userToResponse(user),
		AccessToken:  tokens.access,
		RefreshToken: tokens.refresh,
		ExpiresAt:    tokens.expiresAt.Format(time.RFC3339),
	})
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.accounts.Register(r.Context(), req.Input())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("user registered", "user_id", user.ID)
	h.respondWithSession(w, r, http.StatusCreated, user, false)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), validation.NormalizeEmail(req.Email), req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}
	h.respondWithSession(w, r, http.StatusOK, user, req.RememberMe)
}

// RefreshToken handles POST /api/auth/refresh. The refresh token is rotated
// and keeps its remember-me lifetime. The account is rechecked so a banned
// or deactivated user cannot keep refreshing.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RefreshTokenRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		log.Debug("refresh token rejected", redact.Attr(err))
		shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid refresh token", err,
			shared.WithElevatedLogLevel())
		return
	}

	user, err := h.accounts.GetActiveUser(r.Context(), claims.UserID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to refresh token")
		return
	}

	tokens, err := h.issueTokens(r.Context(), user, claims.RememberMe)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to generate authentication token", err)
		return
	}

	log.Debug("token pair refreshed", "user_id", user.ID)
	shared.RespondWithJSON(w, r, http.StatusOK, RefreshTokenResponse{
		AccessToken:  tokens.access,
		RefreshToken: tokens.refresh,
		ExpiresAt:    tokens.expiresAt.Format(time.RFC3339),
	})
}

// ForgotPassword handles POST /api/auth/password/forgot. It answers 202
// whether or not the email is registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}

	if err := h.accounts.RequestPasswordReset(r.Context(), validation.NormalizeEmail(req.Email)); err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).Error("password reset request failed", redact.Attr(err))
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, MessageResponse{
		Message: "If the email is registered, a reset link has been sent",
	})
}

// ResetPassword handles POST /api/auth/password/reset.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		HandleAPIError(w, r, err, "Failed to reset password")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Password has been reset"})
}

// VerifyEmail handles POST /api/auth/verify-email.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if !shared.DecodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.accounts.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to verify email")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}
