package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/mocks"
	"github.com/phrazzld/folio-api/internal/service/auth"
	"github.com/phrazzld/folio-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accountFixture struct {
	svc     *accountService
	users   *mocks.MockUserStore
	tokens  *mocks.MockJWTService
	mailer  *mocks.MockMailSender
	emitter *mocks.RecordingEmitter
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	f := &accountFixture{
		users:   mocks.NewMockUserStore(),
		tokens:  &mocks.MockJWTService{},
		mailer:  &mocks.MockMailSender{},
		emitter: &mocks.RecordingEmitter{},
	}
	svc, err := NewAccountService(f.users, mocks.PlainHasher{}, f.tokens, f.mailer, f.emitter,
		AccountConfig{PublicBaseURL: "https://folio.test/"}, discardLogger())
	require.NoError(t, err)
	f.svc = svc.(*accountService)
	return f
}

func TestNewAccountService_RequiresDependencies(t *testing.T) {
	_, err := NewAccountService(nil, mocks.PlainHasher{}, &mocks.MockJWTService{}, &mocks.MockMailSender{}, nil, AccountConfig{}, discardLogger())
	assert.Error(t, err)
}

func TestAccountService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user, emits event and mails verification", func(t *testing.T) {
		f := newAccountFixture(t)
		birth := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)

		user, err := f.svc.Register(ctx, NewUserInput{
			Email:     "  Ada@Example.com ",
			Username:  "Ada_L",
			Password:  testPassword,
			FirstName: "Ada",
			LastName:  "Lovelace",
			BirthDate: &birth,
		})
		require.NoError(t, err)

		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, "ada_l", user.Username)
		assert.Equal(t, "hashed:"+testPassword, user.HashedPassword)
		assert.Equal(t, &birth, user.BirthDate)
		assert.Equal(t, domain.RoleUser, user.Role)
		assert.NotNil(t, f.users.Get(user.ID))

		assert.Equal(t, []string{domain.EventUserRegistered}, f.emitter.Types())

		sent := f.mailer.Messages()
		require.Len(t, sent, 1)
		assert.Equal(t, "ada@example.com", sent[0].To)
		assert.Contains(t, sent[0].TextBody, "https://folio.test/verify-email?token=")
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newAccountFixture(t)
		f.users.Add(newTestUser(t, "ada"))

		_, err := f.svc.Register(ctx, NewUserInput{
			Email: "ada@example.com", Username: "other", Password: testPassword, FirstName: "A", LastName: "B",
		})
		assert.ErrorIs(t, err, store.ErrEmailExists)
		assert.Empty(t, f.emitter.Types())
	})

	t.Run("invalid email is a validation error", func(t *testing.T) {
		f := newAccountFixture(t)
		_, err := f.svc.Register(ctx, NewUserInput{
			Email: "not-an-email", Username: "ada", Password: testPassword, FirstName: "A", LastName: "B",
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
	})

	t.Run("mail failure does not fail registration", func(t *testing.T) {
		f := newAccountFixture(t)
		f.mailer.Err = errors.New("smtp down")
		_, err := f.svc.Register(ctx, NewUserInput{
			Email: "ada@example.com", Username: "ada", Password: testPassword, FirstName: "A", LastName: "B",
		})
		assert.NoError(t, err)
	})
}

func TestAccountService_Authenticate(t *testing.T) {
	ctx := context.Background()
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name     string
		setup    func(u *domain.User)
		email    string
		password string
		wantErr  error
	}{
		{name: "success", email: "ada@example.com", password: testPassword},
		{name: "email is case insensitive", email: " ADA@example.com", password: testPassword},
		{name: "unknown email", email: "nobody@example.com", password: testPassword, wantErr: ErrInvalidCredentials},
		{name: "wrong password", email: "ada@example.com", password: "nope", wantErr: ErrInvalidCredentials},
		{
			name:     "inactive account",
			setup:    func(u *domain.User) { u.IsActive = false },
			email:    "ada@example.com",
			password: testPassword,
			wantErr:  ErrAccountInactive,
		},
		{
			name:     "temporarily banned",
			setup:    func(u *domain.User) { u.Ban("spam", &future) },
			email:    "ada@example.com",
			password: testPassword,
			wantErr:  ErrAccountBanned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAccountFixture(t)
			u := newTestUser(t, "ada")
			if tt.setup != nil {
				tt.setup(u)
			}
			f.users.Add(u)

			got, err := f.svc.Authenticate(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, u.ID, got.ID)
		})
	}
}

func TestAccountService_ForbiddenErrorsWrapForbidden(t *testing.T) {
	assert.ErrorIs(t, ErrAccountBanned, ErrForbidden)
	assert.ErrorIs(t, ErrAccountInactive, ErrForbidden)
	assert.NotErrorIs(t, ErrInvalidCredentials, ErrForbidden)
}

func TestAccountService_GetActiveUser(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	u := newTestUser(t, "ada")
	f.users.Add(u)

	got, err := f.svc.GetActiveUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	u.Ban("abuse", nil)
	_, err = f.svc.GetActiveUser(ctx, u.ID)
	assert.ErrorIs(t, err, ErrAccountBanned)

	_, err = f.svc.GetActiveUser(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestAccountService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong current password", func(t *testing.T) {
		f := newAccountFixture(t)
		u := newTestUser(t, "ada")
		f.users.Add(u)
		assert.ErrorIs(t, f.svc.ChangePassword(ctx, u.ID, "wrong", "N3w!Passw0rd"), ErrWrongPassword)
	})

	t.Run("same password", func(t *testing.T) {
		f := newAccountFixture(t)
		u := newTestUser(t, "ada")
		f.users.Add(u)
		assert.ErrorIs(t, f.svc.ChangePassword(ctx, u.ID, testPassword, testPassword), ErrSamePassword)
	})

	t.Run("success", func(t *testing.T) {
		f := newAccountFixture(t)
		u := newTestUser(t, "ada")
		f.users.Add(u)
		require.NoError(t, f.svc.ChangePassword(ctx, u.ID, testPassword, "N3w!Passw0rd"))
		assert.Equal(t, "hashed:N3w!Passw0rd", f.users.Get(u.ID).HashedPassword)
	})
}

func TestAccountService_PasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email succeeds silently", func(t *testing.T) {
		f := newAccountFixture(t)
		require.NoError(t, f.svc.RequestPasswordReset(ctx, "ghost@example.com"))
		assert.Empty(t, f.mailer.Messages())
	})

	t.Run("request then reset", func(t *testing.T) {
		f := newAccountFixture(t)
		u := newTestUser(t, "ada")
		u.UpdatedAt = time.Now().Add(-time.Hour)
		f.users.Add(u)

		require.NoError(t, f.svc.RequestPasswordReset(ctx, "ada@example.com"))
		sent := f.mailer.Messages()
		require.Len(t, sent, 1)
		assert.Equal(t, "password-reset", sent[0].Tag)

		_, query, found := strings.Cut(sent[0].TextBody, "reset-password?token=")
		require.True(t, found)
		token := strings.Fields(query)[0]
		assert.Equal(t, auth.TokenTypePasswordReset+"%3A"+u.ID.String()+"%3A", token)

		raw := auth.TokenTypePasswordReset + ":" + u.ID.String() + ":"
		require.NoError(t, f.svc.ResetPassword(ctx, raw, "N3w!Passw0rd"))
		assert.Equal(t, "hashed:N3w!Passw0rd", f.users.Get(u.ID).HashedPassword)
	})

	t.Run("wrong token type", func(t *testing.T) {
		f := newAccountFixture(t)
		u := newTestUser(t, "ada")
		f.users.Add(u)
		err := f.svc.ResetPassword(ctx, auth.TokenTypeEmailVerify+":"+u.ID.String()+":", "N3w!Passw0rd")
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("token issued before last change is spent", func(t *testing.T) {
		f := newAccountFixture(t)
		u := newTestUser(t, "ada")
		f.users.Add(u)
		f.tokens.ValidatePurposeTokenFn = func(ctx context.Context, token, tokenType string) (*auth.Claims, error) {
			return &auth.Claims{UserID: u.ID, TokenType: tokenType, IssuedAt: u.UpdatedAt.Add(-time.Minute)}, nil
		}
		assert.ErrorIs(t, f.svc.ResetPassword(ctx, "anything", "N3w!Passw0rd"), ErrInvalidResetToken)
		assert.Equal(t, "hashed:"+testPassword, f.users.Get(u.ID).HashedPassword)
	})

	t.Run("token for deleted user", func(t *testing.T) {
		f := newAccountFixture(t)
		err := f.svc.ResetPassword(ctx, auth.TokenTypePasswordReset+":"+uuid.NewString()+":", "N3w!Passw0rd")
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	})
}

func TestAccountService_EmailVerification(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	u := newTestUser(t, "ada")
	f.users.Add(u)

	require.NoError(t, f.svc.RequestEmailVerification(ctx, u.ID))
	require.Len(t, f.mailer.Messages(), 1)

	got, err := f.svc.VerifyEmail(ctx, auth.TokenTypeEmailVerify+":"+u.ID.String()+":")
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
	assert.True(t, f.users.Get(u.ID).EmailVerified)

	require.NoError(t, f.svc.RequestEmailVerification(ctx, u.ID))
	assert.Len(t, f.mailer.Messages(), 1, "verified users get no further mail")

	_, err = f.svc.VerifyEmail(ctx, auth.TokenTypePasswordReset+":"+u.ID.String()+":")
	assert.ErrorIs(t, err, ErrInvalidVerificationToken)
}
