package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
)

// PostStore persists posts.
type PostStore interface {
	// Create returns ErrSlugExists when the slug is taken.
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Post, error)
	// SlugExists reports whether any post uses slug.
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter PostFilter, page Page) ([]*domain.Post, int, error)
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	WithTx(tx *sql.Tx) PostStore
}

// CommentStore persists comments.
type CommentStore interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	// ListByPost returns visible comments oldest first unless includeHidden is set.
	ListByPost(ctx context.Context, postID uuid.UUID, includeHidden bool, page Page) ([]*domain.Comment, int, error)
	SetHidden(ctx context.Context, id uuid.UUID, hidden bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryStore persists categories.
type CategoryStore interface {
	// Create returns ErrSlugExists when the slug is taken.
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
}
