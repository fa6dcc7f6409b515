package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/store"
)

var commentColumns = []string{"id", "post_id", "author_id", "parent_id", "content", "hidden", "created_at"}

// PostgresCommentStore implements store.CommentStore using PostgreSQL.
type PostgresCommentStore struct {
	db store.DBTX
}

// NewPostgresCommentStore creates a new PostgresCommentStore.
func NewPostgresCommentStore(db store.DBTX) *PostgresCommentStore {
	return &PostgresCommentStore{db: db}
}

var _ store.CommentStore = (*PostgresCommentStore)(nil)

func (s *PostgresCommentStore) Create(ctx context.Context, c *domain.Comment) error {
	query, args, err := psql.Insert("comments").Columns(commentColumns...).
		Values(c.ID, c.PostID, c.AuthorID, nullUUID(c.ParentID), c.Content, c.Hidden, c.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build comment insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return MapError(err)
	}
	return nil
}

func (s *PostgresCommentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	query, args, err := psql.Select(commentColumns...).From("comments").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build comment select: %w", err)
	}
	c, err := scanComment(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapNotFound(err, store.ErrCommentNotFound)
	}
	return c, nil
}

func (s *PostgresCommentStore) ListByPost(
	ctx context.Context,
	postID uuid.UUID,
	includeHidden bool,
	page store.Page,
) ([]*domain.Comment, int, error) {
	where := sq.And{sq.Eq{"post_id": postID}}
	if !includeHidden {
		where = append(where, sq.Eq{"hidden": false})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("comments").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build comment count: %w", err)
	}
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, MapError(err)
	}

	dir := "ASC"
	if page.Desc {
		dir = "DESC"
	}
	query, args, err := psql.Select(commentColumns...).From("comments").Where(where).
		OrderBy("created_at "+dir, "id").
		Offset(uint64(page.Offset)).
		Limit(uint64(page.Limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build comment list: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	comments := make([]*domain.Comment, 0, page.Limit)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, MapError(err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, MapError(err)
	}
	return comments, total, nil
}

func (s *PostgresCommentStore) SetHidden(ctx context.Context, id uuid.UUID, hidden bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE comments SET hidden = $1 WHERE id = $2`, hidden, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrCommentNotFound)
}

func (s *PostgresCommentStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrCommentNotFound)
}

func scanComment(row rowScanner) (*domain.Comment, error) {
	var (
		c        domain.Comment
		parentID uuid.NullUUID
	)
	if err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &parentID, &c.Content, &c.Hidden, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.ParentID = uuidPtr(parentID)
	return &c, nil
}
