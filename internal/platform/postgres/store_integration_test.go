//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/platform/postgres"
	"github.com/phrazzld/folio-api/internal/store"
	"github.com/phrazzld/folio-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredUser(t *testing.T, users store.UserStore, username string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(username+"@folio.test", username, "Test", "User", "$2a$10$integrationhashintegrationhashintegrationhashinte")
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestUserStore_Integration(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		users := postgres.NewPostgresUserStore(tx)
		suffix := uuid.NewString()[:8]
		u := newStoredUser(t, users, "ada"+suffix)

		got, err := users.GetByEmail(ctx, "ada"+suffix+"@folio.test")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, domain.RoleUser, got.Role)

		dup, err := domain.NewUser("ada"+suffix+"@folio.test", "other"+suffix, "A", "B", u.HashedPassword)
		require.NoError(t, err)
		assert.ErrorIs(t, users.Create(ctx, dup), store.ErrEmailExists)

		_, err = users.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestPostStore_Integration(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		author := newStoredUser(t, postgres.NewPostgresUserStore(tx), "writer"+uuid.NewString()[:8])
		posts := postgres.NewPostgresPostStore(tx)

		slug := "integration-" + uuid.NewString()[:8]
		p, err := domain.NewPost(author.ID, "Integration", slug, "Body text", []string{"go", "sql"}, domain.PostStatusPublished)
		require.NoError(t, err)
		require.NoError(t, posts.Create(ctx, p))

		got, err := posts.GetBySlug(ctx, slug)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
		assert.ElementsMatch(t, []string{"go", "sql"}, got.Tags)

		exists, err := posts.SlugExists(ctx, slug)
		require.NoError(t, err)
		assert.True(t, exists)

		again, err := domain.NewPost(author.ID, "Again", slug, "Body", nil, "")
		require.NoError(t, err)
		assert.ErrorIs(t, posts.Create(ctx, again), store.ErrSlugExists)

		list, total, err := posts.List(ctx, store.PostFilter{AuthorID: &author.ID}, store.NewPage(1, 10, "", true))
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, list, 1)

		require.NoError(t, posts.Delete(ctx, p.ID))
		_, err = posts.GetByID(ctx, p.ID)
		assert.ErrorIs(t, err, store.ErrPostNotFound)
	})
}
