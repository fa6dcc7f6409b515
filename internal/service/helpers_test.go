package service

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/stretchr/testify/require"
)

const testPassword = "Str0ng!Pass"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestUser builds a stored-ready user whose password is testPassword
// under mocks.PlainHasher.
func newTestUser(t *testing.T, username string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(username+"@example.com", username, "Test", "User", "hashed:"+testPassword)
	require.NoError(t, err)
	return u
}

func userActor(u *domain.User) Actor { return Actor{ID: u.ID, Role: u.Role} }

func adminActor() Actor { return Actor{ID: uuid.New(), Role: domain.RoleAdmin} }

func moderatorActor() Actor { return Actor{ID: uuid.New(), Role: domain.RoleModerator} }
