package postgres

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/store"
)

var postColumns = []string{
	"id", "author_id", "title", "slug", "content", "excerpt", "cover_image", "tags",
	"category_id", "status", "flagged", "published_at", "created_at", "updated_at",
}

var postSortColumns = map[string]string{
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"published_at": "published_at",
	"title":        "title",
}

// PostgresPostStore implements store.PostStore using PostgreSQL.
type PostgresPostStore struct {
	db store.DBTX
}

// NewPostgresPostStore creates a new PostgresPostStore.
func NewPostgresPostStore(db store.DBTX) *PostgresPostStore {
	return &PostgresPostStore{db: db}
}

var _ store.PostStore = (*PostgresPostStore)(nil)

// WithTx returns a store that runs its queries inside tx.
func (s *PostgresPostStore) WithTx(tx *sql.Tx) store.PostStore {
	return &PostgresPostStore{db: tx}
}

// Create inserts post. A taken slug yields store.ErrSlugExists.
func (s *PostgresPostStore) Create(ctx context.Context, post *domain.Post) error {
	tags, err := jsonText(post.Tags)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert("posts").
		Columns(postColumns...).
		Values(
			post.ID, post.AuthorID, post.Title, post.Slug, post.Content, post.Excerpt,
			post.CoverImage, tags, nullUUID(post.CategoryID), string(post.Status),
			post.Flagged, nullTime(post.PublishedAt), post.CreatedAt, post.UpdatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("build post insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return MapError(err)
	}
	return nil
}

// GetByID returns store.ErrPostNotFound when no row matches.
func (s *PostgresPostStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return s.getOne(ctx, sq.Eq{"id": id})
}

// GetBySlug returns store.ErrPostNotFound when no row matches.
func (s *PostgresPostStore) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	return s.getOne(ctx, sq.Eq{"slug": slug})
}

func (s *PostgresPostStore) getOne(ctx context.Context, where sq.Eq) (*domain.Post, error) {
	query, args, err := psql.Select(postColumns...).From("posts").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build post select: %w", err)
	}
	post, err := scanPost(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapNotFound(err, store.ErrPostNotFound)
	}
	return post, nil
}

// SlugExists reports whether a post already uses slug.
func (s *PostgresPostStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

func postWhere(filter store.PostFilter) (sq.And, error) {
	where := sq.And{}
	if filter.Query != "" {
		pattern := likePattern(filter.Query)
		where = append(where, sq.Or{sq.ILike{"title": pattern}, sq.ILike{"content": pattern}})
	}
	if len(filter.Tags) > 0 {
		tags, err := jsonText(filter.Tags)
		if err != nil {
			return nil, err
		}
		where = append(where, sq.Expr("tags @> ?::jsonb", tags))
	}
	if filter.CategoryID != nil {
		where = append(where, sq.Eq{"category_id": *filter.CategoryID})
	}
	if filter.Status != "" {
		where = append(where, sq.Eq{"status": string(filter.Status)})
	}
	if filter.AuthorID != nil {
		where = append(where, sq.Eq{"author_id": *filter.AuthorID})
	}
	if filter.DateFrom != nil {
		where = append(where, sq.GtOrEq{"created_at": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		where = append(where, sq.LtOrEq{"created_at": *filter.DateTo})
	}
	if !filter.IncludeFlagged {
		where = append(where, sq.Eq{"flagged": false})
	}
	return where, nil
}

// List returns a page of posts and the total number of matches.
func (s *PostgresPostStore) List(
	ctx context.Context,
	filter store.PostFilter,
	page store.Page,
) ([]*domain.Post, int, error) {
	where, err := postWhere(filter)
	if err != nil {
		return nil, 0, err
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("posts").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build post count: %w", err)
	}
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, MapError(err)
	}

	query, args, err := psql.Select(postColumns...).From("posts").Where(where).
		OrderBy(orderBy(page.SortBy, page.Desc, postSortColumns, "created_at"), "id").
		Offset(uint64(page.Offset)).
		Limit(uint64(page.Limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build post list: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	posts := make([]*domain.Post, 0, page.Limit)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, MapError(err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, MapError(err)
	}
	return posts, total, nil
}

// Update writes every mutable column.
func (s *PostgresPostStore) Update(ctx context.Context, post *domain.Post) error {
	tags, err := jsonText(post.Tags)
	if err != nil {
		return err
	}
	query, args, err := psql.Update("posts").SetMap(map[string]any{
		"title":        post.Title,
		"slug":         post.Slug,
		"content":      post.Content,
		"excerpt":      post.Excerpt,
		"cover_image":  post.CoverImage,
		"tags":         tags,
		"category_id":  nullUUID(post.CategoryID),
		"status":       string(post.Status),
		"flagged":      post.Flagged,
		"published_at": nullTime(post.PublishedAt),
		"updated_at":   post.UpdatedAt,
	}).Where(sq.Eq{"id": post.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("build post update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrPostNotFound)
}

// Delete removes a post and, by cascade, its comments.
func (s *PostgresPostStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrPostNotFound)
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var (
		p           domain.Post
		tags        []byte
		categoryID  uuid.NullUUID
		status      string
		publishedAt sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.AuthorID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.CoverImage,
		&tags, &categoryID, &status, &p.Flagged, &publishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(tags, &p.Tags); err != nil {
		return nil, err
	}
	p.CategoryID = uuidPtr(categoryID)
	p.Status = domain.PostStatus(status)
	p.PublishedAt = timePtr(publishedAt)
	return &p, nil
}
