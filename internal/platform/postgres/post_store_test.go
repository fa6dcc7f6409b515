package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postRow(id, author uuid.UUID, category any, published any) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(postColumns).AddRow(
		id.String(), author.String(), "Hello Go", "hello-go", "body", "excerpt", "",
		`["go","web"]`, category, "published", false, published, now, now,
	)
}

func TestPostgresPostStore_Create(t *testing.T) {
	db, mock := newMock(t)
	post, err := domain.NewPost(uuid.New(), "Hello Go", "hello-go", "body", []string{"go"}, domain.PostStatusDraft)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO posts").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "posts_slug_key"})

	assert.ErrorIs(t, NewPostgresPostStore(db).Create(context.Background(), post), store.ErrSlugExists)
}

func TestPostgresPostStore_GetBySlug(t *testing.T) {
	t.Run("decodes tags and nullable columns", func(t *testing.T) {
		db, mock := newMock(t)
		id, author, category := uuid.New(), uuid.New(), uuid.New()
		publishedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

		mock.ExpectQuery("SELECT (.+) FROM posts WHERE slug = \\$1").
			WithArgs("hello-go").
			WillReturnRows(postRow(id, author, category.String(), publishedAt))

		p, err := NewPostgresPostStore(db).GetBySlug(context.Background(), "hello-go")
		require.NoError(t, err)
		assert.Equal(t, id, p.ID)
		assert.Equal(t, []string{"go", "web"}, p.Tags)
		require.NotNil(t, p.CategoryID)
		assert.Equal(t, category, *p.CategoryID)
		require.NotNil(t, p.PublishedAt)
		assert.True(t, publishedAt.Equal(*p.PublishedAt))
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery("SELECT (.+) FROM posts").WillReturnError(sql.ErrNoRows)

		_, err := NewPostgresPostStore(db).GetBySlug(context.Background(), "missing")
		assert.ErrorIs(t, err, store.ErrPostNotFound)
	})
}

func TestPostgresPostStore_List(t *testing.T) {
	db, mock := newMock(t)
	author := uuid.New()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM posts WHERE \\(\\(title ILIKE \\$1 OR content ILIKE \\$2\\) AND tags @> \\$3::jsonb AND status = \\$4 AND flagged = \\$5\\)").
		WithArgs("%go%", "%go%", `["go"]`, "published", false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM posts WHERE (.+) ORDER BY published_at DESC, id LIMIT 10 OFFSET 0").
		WillReturnRows(postRow(uuid.New(), author, nil, nil))

	posts, total, err := NewPostgresPostStore(db).List(context.Background(),
		store.PostFilter{Query: "go", Tags: []string{"go"}, Status: domain.PostStatusPublished},
		store.NewPage(1, 10, "published_at", true))

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, posts, 1)
	assert.Nil(t, posts[0].CategoryID)
	assert.Nil(t, posts[0].PublishedAt)
}

func TestPostgresPostStore_SlugExists(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT EXISTS").WithArgs("hello-go").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := NewPostgresPostStore(db).SlugExists(context.Background(), "hello-go")
	require.NoError(t, err)
	assert.True(t, ok)
}
