package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/events"
	"github.com/phrazzld/folio-api/internal/platform/mail"
	"github.com/phrazzld/folio-api/internal/redact"
	"github.com/phrazzld/folio-api/internal/service/auth"
	"github.com/phrazzld/folio-api/internal/store"
)

// Default lifetimes of the single-purpose tokens mailed to users.
const (
	DefaultResetTokenTTL  = time.Hour
	DefaultVerifyTokenTTL = 48 * time.Hour
)

// NewUserInput carries the fields needed to create an account. Password is
// plaintext and is hashed before it reaches the store.
type NewUserInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
	BirthDate *time.Time
}

// AccountConfig configures AccountService.
type AccountConfig struct {
	// PublicBaseURL prefixes links in outgoing mail, e.g. https://folio.example.
	PublicBaseURL  string
	ResetTokenTTL  time.Duration
	VerifyTokenTTL time.Duration
}

// AccountService handles self-service account flows: registration, sign in,
// password changes and the mailed reset and verification links.
type AccountService interface {
	// Register creates an account, emits user.registered and mails a
	// verification link. Mail failures are logged, not returned.
	Register(ctx context.Context, in NewUserInput) (*domain.User, error)

	// Authenticate returns ErrInvalidCredentials, ErrAccountInactive or ErrAccountBanned on failure.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// GetActiveUser loads a user and fails like Authenticate when the
	// account can no longer sign in. Token refresh uses it.
	GetActiveUser(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// ChangePassword returns ErrWrongPassword or ErrSamePassword.
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error

	// RequestPasswordReset mails a reset link when email belongs to an
	// account. It succeeds either way so callers cannot discover which accounts exist.
	RequestPasswordReset(ctx context.Context, email string) error

	// ResetPassword returns ErrInvalidResetToken for a bad, expired or used token.
	ResetPassword(ctx context.Context, token, password string) error

	// RequestEmailVerification mails a verification link unless the
	// address is already verified.
	RequestEmailVerification(ctx context.Context, userID uuid.UUID) error

	// VerifyEmail returns ErrInvalidVerificationToken on failure.
	VerifyEmail(ctx context.Context, token string) (*domain.User, error)
}

type accountService struct {
	users   store.UserStore
	hasher  auth.PasswordHasher
	tokens  auth.JWTService
	mailer  mail.Sender
	emitter events.EventEmitter
	cfg     AccountConfig
	now     func() time.Time
	logger  *slog.Logger
}

// NewAccountService creates an AccountService. emitter may be nil.
func NewAccountService(
	users store.UserStore,
	hasher auth.PasswordHasher,
	tokens auth.JWTService,
	mailer mail.Sender,
	emitter events.EventEmitter,
	cfg AccountConfig,
	logger *slog.Logger,
) (AccountService, error) {
	if users == nil || hasher == nil || tokens == nil || mailer == nil {
		return nil, errors.New("account service: users, hasher, tokens and mailer are required")
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = DefaultResetTokenTTL
	}
	if cfg.VerifyTokenTTL <= 0 {
		cfg.VerifyTokenTTL = DefaultVerifyTokenTTL
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &accountService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		mailer:  mailer,
		emitter: emitter,
		cfg:     cfg,
		now:     time.Now,
		logger:  logger.With("component", "account_service"),
	}, nil
}

// buildUser hashes the password and builds a validated user.
func buildUser(hasher auth.PasswordHasher, in NewUserInput) (*domain.User, error) {
	hashed, err := hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user, err := domain.NewUser(in.Email, in.Username, in.FirstName, in.LastName, hashed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	user.BirthDate = in.BirthDate
	return user, nil
}

func (s *accountService) Register(ctx context.Context, in NewUserInput) (*domain.User, error) {
	user, err := buildUser(s.hasher, in)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if store.IsDuplicateError(err) {
			s.logger.Debug("registration conflict", "error", err)
		} else {
			s.logger.Error("failed to save registered user", redact.Attr(err))
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)

	if err := events.Emit(ctx, s.emitter, domain.EventUserRegistered, map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
	}); err != nil {
		s.logger.Warn("failed to emit user.registered", "user_id", user.ID, redact.Attr(err))
	}

	if err := s.sendVerification(ctx, user); err != nil {
		s.logger.Warn("failed to send verification email", "user_id", user.ID, redact.Attr(err))
	}

	return user, nil
}

// checkCanSignIn returns ErrAccountInactive or ErrAccountBanned.
func (s *accountService) checkCanSignIn(user *domain.User) error {
	if !user.IsActive {
		return ErrAccountInactive
	}
	if user.IsBanned(s.now()) {
		return ErrAccountBanned
	}
	return nil
}

func (s *accountService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("login for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("password comparison failed", "user_id", user.ID, redact.Attr(err))
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.checkCanSignIn(user); err != nil {
		s.logger.Info("sign in refused", "user_id", user.ID, "reason", err.Error())
		return nil, err
	}
	return user, nil
}

func (s *accountService) GetActiveUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	if err := s.checkCanSignIn(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *accountService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to retrieve user for password change: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, current); err != nil {
		return ErrWrongPassword
	}
	if current == next {
		return ErrSamePassword
	}

	return s.setPassword(ctx, user, next)
}

func (s *accountService) setPassword(ctx context.Context, user *domain.User, password string) error {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hashed
	user.UpdatedAt = s.now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error("failed to store new password", "user_id", user.ID, redact.Attr(err))
		return fmt.Errorf("failed to update password: %w", err)
	}
	s.logger.Info("password updated", "user_id", user.ID)
	return nil
}

func (s *accountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("password reset for unknown email")
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := s.tokens.GeneratePurposeToken(ctx, user.ID, auth.TokenTypePasswordReset, s.cfg.ResetTokenTTL)
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	msg := mail.Message{
		To:      user.Email,
		Subject: "Reset your Folio password",
		TextBody: fmt.Sprintf(
			"Hi %s,\n\nUse the link below to choose a new password. It expires in %s.\n\n%s\n\nIf you did not ask for this, ignore this email.\n",
			user.Username, s.cfg.ResetTokenTTL, s.link("/reset-password", token)),
		Tag: "password-reset",
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send password reset email", "user_id", user.ID, redact.Attr(err))
	}
	return nil
}

func (s *accountService) ResetPassword(ctx context.Context, token, password string) error {
	claims, err := s.tokens.ValidatePurposeToken(ctx, token, auth.TokenTypePasswordReset)
	if err != nil {
		s.logger.Debug("reset token rejected", "error", err)
		return ErrInvalidResetToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to retrieve user for password reset: %w", err)
	}

	// A token issued before the last account change is spent.
	if claims.IssuedAt.Before(user.UpdatedAt.Truncate(time.Second)) {
		s.logger.Debug("reset token predates account change", "user_id", user.ID)
		return ErrInvalidResetToken
	}

	return s.setPassword(ctx, user, password)
}

func (s *accountService) RequestEmailVerification(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to retrieve user: %w", err)
	}
	if user.EmailVerified {
		return nil
	}
	return s.sendVerification(ctx, user)
}

func (s *accountService) sendVerification(ctx context.Context, user *domain.User) error {
	token, err := s.tokens.GeneratePurposeToken(ctx, user.ID, auth.TokenTypeEmailVerify, s.cfg.VerifyTokenTTL)
	if err != nil {
		return fmt.Errorf("failed to create verification token: %w", err)
	}
	return s.mailer.Send(ctx, mail.Message{
		To:      user.Email,
		Subject: "Confirm your email address",
		TextBody: fmt.Sprintf("Hi %s,\n\nConfirm your email address for Folio:\n\n%s\n",
			user.Username, s.link("/verify-email", token)),
		Tag: "email-verification",
	})
}

func (s *accountService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.ValidatePurposeToken(ctx, token, auth.TokenTypeEmailVerify)
	if err != nil {
		s.logger.Debug("verification token rejected", "error", err)
		return nil, ErrInvalidVerificationToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidVerificationToken
		}
		return nil, fmt.Errorf("failed to retrieve user for verification: %w", err)
	}
	if user.EmailVerified {
		return user, nil
	}

	user.EmailVerified = true
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to mark email verified: %w", err)
	}
	s.logger.Info("email verified", "user_id", user.ID)
	return user, nil
}

func (s *accountService) link(path, token string) string {
	return s.cfg.PublicBaseURL + path + "?token=" + url.QueryEscape(token)
}
