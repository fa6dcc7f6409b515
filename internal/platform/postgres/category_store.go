package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/store"
)

var categoryColumns = []string{"id", "name", "slug", "description", "parent_id", "created_at"}

// PostgresCategoryStore implements store.CategoryStore using PostgreSQL.
type PostgresCategoryStore struct {
	db store.DBTX
}

// NewPostgresCategoryStore creates a new PostgresCategoryStore.
func NewPostgresCategoryStore(db store.DBTX) *PostgresCategoryStore {
	return &PostgresCategoryStore{db: db}
}

var _ store.CategoryStore = (*PostgresCategoryStore)(nil)

func (s *PostgresCategoryStore) Create(ctx context.Context, c *domain.Category) error {
	query, args, err := psql.Insert("categories").Columns(categoryColumns...).
		Values(c.ID, c.Name, c.Slug, c.Description, nullUUID(c.ParentID), c.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build category insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return MapError(err)
	}
	return nil
}

func (s *PostgresCategoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query, args, err := psql.Select(categoryColumns...).From("categories").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category select: %w", err)
	}
	c, err := scanCategory(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapNotFound(err, store.ErrCategoryNotFound)
	}
	return c, nil
}

func (s *PostgresCategoryStore) List(ctx context.Context) ([]*domain.Category, error) {
	query, args, err := psql.Select(categoryColumns...).From("categories").OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category list: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, MapError(err)
		}
		out = append(out, c)
	}
	return out, MapError(rows.Err())
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var (
		c        domain.Category
		parentID uuid.NullUUID
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &parentID, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.ParentID = uuidPtr(parentID)
	return &c, nil
}
