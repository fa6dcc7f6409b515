package api

import (
	"net/http"
	"testing"

	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() map[string]any {
	return map[string]any{
		"email":            "Ada@Example.com",
		"username":         "Ada_L",
		"password":         testPassword,
		"confirm_password": testPassword,
		"first_name":       "Ada",
		"last_name":        "Lovelace",
		"birth_date":       "1990-05-01",
		"accept_terms":     true,
	}
}

func TestAuthHandler_Register(t *testing.T) {
	t.Parallel()

	t.Run("creates account and returns session", func(t *testing.T) {
		t.Parallel()
		a := newTestAPI(t)

		rec := a.do(t, http.MethodPost, "/api/auth/register", nil, validRegistration())
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		resp := decode[AuthResponse](t, rec)
		assert.Equal(t, "ada@example.com", resp.User.Email)
		assert.Equal(t, "ada_l", resp.User.Username)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Len(t, a.mailer.Messages(), 1)
	})

	tests := []struct {
		name      string
		mutate    func(map[string]any)
		wantField string
	}{
		{
			name:      "password mismatch",
			mutate:    func(m map[string]any) { m["confirm_password"] = "Other!Pass1" },
			wantField: "confirm_password",
		},
		{
			name:      "weak password",
			mutate:    func(m map[string]any) { m["password"], m["confirm_password"] = "weak", "weak" },
			wantField: "password",
		},
		{
			name:      "terms not accepted",
			mutate:    func(m map[string]any) { m["accept_terms"] = false },
			wantField: "accept_terms",
		},
		{
			name:      "bad username",
			mutate:    func(m map[string]any) { m["username"] = "no spaces allowed" },
			wantField: "username",
		},
		{
			name:      "bad birth date",
			mutate:    func(m map[string]any) { m["birth_date"] = "01/05/1990" },
			wantField: "birth_date",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := newTestAPI(t)

			body := validRegistration()
			tt.mutate(body)
			rec := a.do(t, http.MethodPost, "/api/auth/register", nil, body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := errorOf(t, rec)
			assert.Equal(t, "Validation failed", resp.Error)
			require.NotEmpty(t, resp.Details)
			assert.Equal(t, tt.wantField, resp.Details[0].Field)
		})
	}

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()
		a := newTestAPI(t)
		a.addUser(t, "ada_l", domain.RoleUser)

		body := validRegistration()
		body["email"] = "ada_l@example.com"
		body["username"] = "someone"
		rec := a.do(t, http.MethodPost, "/api/auth/register", nil, body)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Email already registered", errorOf(t, rec).Error)
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()
		a := newTestAPI(t)

		rec := a.do(t, http.MethodPost, "/api/auth/register", nil, "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request format", errorOf(t, rec).Error)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	user := a.addUser(t, "grace", domain.RoleUser)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantError  string
	}{
		{
			name:       "valid credentials",
			body:       map[string]any{"email": "GRACE@example.com", "password": testPassword},
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong password",
			body:       map[string]any{"email": "grace@example.com", "password": "nope"},
			wantStatus: http.StatusUnauthorized,
			wantError:  "Invalid email or password",
		},
		{
			name:       "unknown email",
			body:       map[string]any{"email": "nobody@example.com", "password": testPassword},
			wantStatus: http.StatusUnauthorized,
			wantError:  "Invalid email or password",
		},
		{
			name:       "missing password",
			body:       map[string]any{"email": "grace@example.com"},
			wantStatus: http.StatusBadRequest,
			wantError:  "Validation failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, "/api/auth/login", nil, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, errorOf(t, rec).Error)
				return
			}
			resp := decode[AuthResponse](t, rec)
			assert.Equal(t, user.ID, resp.User.ID)
			assert.Equal(t, token(user), resp.AccessToken)
		})
	}
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	user := a.addUser(t, "linus", domain.RoleUser)
	refresh := "refresh:" + user.ID.String() + ":"

	rec := a.do(t, http.MethodPost, "/api/auth/refresh", nil, map[string]any{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[RefreshTokenResponse](t, rec)
	assert.Equal(t, token(user), resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	rec = a.do(t, http.MethodPost, "/api/auth/refresh", nil, map[string]any{"refresh_token": "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid refresh token", errorOf(t, rec).Error)

	// An access token is not a refresh token.
	rec = a.do(t, http.MethodPost, "/api/auth/refresh", nil, map[string]any{"refresh_token": token(user)})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	a.users.Get(user.ID).IsActive = false
	rec = a.do(t, http.MethodPost, "/api/auth/refresh", nil, map[string]any{"refresh_token": refresh})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	a.addUser(t, "known", domain.RoleUser)

	for _, email := range []string{"known@example.com", "unknown@example.com"} {
		rec := a.do(t, http.MethodPost, "/api/auth/password/forgot", nil, map[string]any{"email": email})
		assert.Equal(t, http.StatusAccepted, rec.Code, email)
	}
	assert.Len(t, a.mailer.Messages(), 1)
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	user := a.addUser(t, "resetme", domain.RoleUser)
	resetToken := "password_reset:" + user.ID.String() + ":"

	rec := a.do(t, http.MethodPost, "/api/auth/password/reset", nil, map[string]any{
		"token":            resetToken,
		"password":         "N3w!Password",
		"confirm_password": "N3w!Password",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "hashed:N3w!Password", a.users.Get(user.ID).HashedPassword)

	rec = a.do(t, http.MethodPost, "/api/auth/password/reset", nil, map[string]any{
		"token":            "bogus",
		"password":         "N3w!Password",
		"confirm_password": "N3w!Password",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_VerifyEmail(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	user := a.addUser(t, "verifyme", domain.RoleUser)

	rec := a.do(t, http.MethodPost, "/api/auth/verify-email", nil, map[string]any{
		"token": "email_verify:" + user.ID.String() + ":",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, a.users.Get(user.ID).EmailVerified)
}
