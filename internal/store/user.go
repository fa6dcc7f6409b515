package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user.
	// Returns ErrEmailExists or ErrUsernameExists on a uniqueness conflict.
	Create(ctx context.Context, user *domain.User) error

	// GetByID returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail returns ErrUserNotFound if no user has the (lower-cased) email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns one page of users matching filter and the total match count.
	List(ctx context.Context, filter UserFilter, page Page) ([]*domain.User, int, error)

	// Update writes every mutable column of user.
	// Returns ErrUserNotFound, ErrEmailExists or ErrUsernameExists.
	Update(ctx context.Context, user *domain.User) error

	// Delete returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Stats counts users; RecentSignups counts accounts created after since.
	Stats(ctx context.Context, since time.Time) (*UserStats, error)

	// WithTx returns a UserStore bound to tx.
	WithTx(tx *sql.Tx) UserStore
}
