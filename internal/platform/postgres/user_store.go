package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/platform/logger"
	"github.com/phrazzld/folio-api/internal/redact"
	"github.com/phrazzld/folio-api/internal/store"
)

var userColumns = []string{
	"id", "email", "username", "first_name", "last_name", "bio", "website", "location",
	"avatar_url", "phone", "birth_date", "role", "is_active", "email_verified",
	"banned_until", "ban_permanent", "ban_reason", "hashed_password", "settings",
	"created_at", "updated_at",
}

var userSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"username":   "username",
	"email":      "email",
	"first_name": "first_name",
	"last_name":  "last_name",
}

// PostgresUserStore implements store.UserStore using PostgreSQL.
type PostgresUserStore struct {
	db store.DBTX
}

// NewPostgresUserStore creates a new PostgresUserStore.
func NewPostgresUserStore(db store.DBTX) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

var _ store.UserStore = (*PostgresUserStore)(nil)

// WithTx returns a store that runs its queries inside tx.
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{db: tx}
}

// Create inserts user.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContext(ctx)

	settings, err := jsonText(user.Settings)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert("users").
		Columns(userColumns...).
		Values(
			user.ID, user.Email, user.Username, user.FirstName, user.LastName, user.Bio,
			user.Website, user.Location, user.AvatarURL, user.Phone, nullTime(user.BirthDate),
			string(user.Role), user.IsActive, user.EmailVerified, nullTime(user.BannedUntil),
			user.BanPermanent, user.BanReason, user.HashedPassword, settings,
			user.CreatedAt, user.UpdatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("build user insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		mapped := MapError(err)
		log.Debug("failed to insert user", "user_id", user.ID, redact.Attr(mapped))
		return mapped
	}
	return nil
}

// GetByID returns store.ErrUserNotFound when no row matches.
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getOne(ctx, sq.Eq{"id": id})
}

// GetByEmail returns store.ErrUserNotFound when no row matches.
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getOne(ctx, sq.Eq{"email": email})
}

func (s *PostgresUserStore) getOne(ctx context.Context, where sq.Eq) (*domain.User, error) {
	query, args, err := psql.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user select: %w", err)
	}

	user, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapNotFound(err, store.ErrUserNotFound)
	}
	return user, nil
}

func userWhere(filter store.UserFilter) sq.And {
	where := sq.And{}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		where = append(where, sq.Or{
			sq.ILike{"first_name": pattern},
			sq.ILike{"last_name": pattern},
			sq.ILike{"username": pattern},
		})
	}
	if filter.Role != "" {
		where = append(where, sq.Eq{"role": string(filter.Role)})
	}
	if filter.Active != nil {
		where = append(where, sq.Eq{"is_active": *filter.Active})
	}
	return where
}

// List returns a page of users and the total number of matches.
func (s *PostgresUserStore) List(
	ctx context.Context,
	filter store.UserFilter,
	page store.Page,
) ([]*domain.User, int, error) {
	where := userWhere(filter)

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("users").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build user count: %w", err)
	}
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, MapError(err)
	}

	query, args, err := psql.Select(userColumns...).From("users").Where(where).
		OrderBy(orderBy(page.SortBy, page.Desc, userSortColumns, "created_at"), "id").
		Offset(uint64(page.Offset)).
		Limit(uint64(page.Limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build user list: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	users := make([]*domain.User, 0, page.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, MapError(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, MapError(err)
	}
	return users, total, nil
}

// Update writes every mutable column.
func (s *PostgresUserStore) Update(ctx context.Context, user *domain.User) error {
	settings, err := jsonText(user.Settings)
	if err != nil {
		return err
	}

	query, args, err := psql.Update("users").SetMap(map[string]any{
		"email":           user.Email,
		"username":        user.Username,
		"first_name":      user.FirstName,
		"last_name":       user.LastName,
		"bio":             user.Bio,
		"website":         user.Website,
		"location":        user.Location,
		"avatar_url":      user.AvatarURL,
		"phone":           user.Phone,
		"birth_date":      nullTime(user.BirthDate),
		"role":            string(user.Role),
		"is_active":       user.IsActive,
		"email_verified":  user.EmailVerified,
		"banned_until":    nullTime(user.BannedUntil),
		"ban_permanent":   user.BanPermanent,
		"ban_reason":      user.BanReason,
		"hashed_password": user.HashedPassword,
		"settings":        settings,
		"updated_at":      user.UpdatedAt,
	}).Where(sq.Eq{"id": user.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("build user update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// Delete removes the user row; owned content cascades.
func (s *PostgresUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Delete("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build user delete: %w", err)
	}
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// Stats aggregates account counts; RecentSignups counts users created at or after since.
func (s *PostgresUserStore) Stats(ctx context.Context, since time.Time) (*store.UserStats, error) {
	stats := &store.UserStats{ByRole: make(map[domain.Role]int, len(domain.Roles))}
	for _, r := range domain.Roles {
		stats.ByRole[r] = 0
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE created_at >= $1)
		FROM users`, since).Scan(&stats.Total, &stats.Active, &stats.RecentSignups)
	if err != nil {
		return nil, MapError(err)
	}
	stats.Inactive = stats.Total - stats.Active

	rows, err := s.db.QueryContext(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, MapError(err)
		}
		stats.ByRole[domain.Role(role)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return stats, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u           domain.User
		role        string
		birthDate   sql.NullTime
		bannedUntil sql.NullTime
		settings    []byte
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName, &u.Bio, &u.Website,
		&u.Location, &u.AvatarURL, &u.Phone, &birthDate, &role, &u.IsActive,
		&u.EmailVerified, &bannedUntil, &u.BanPermanent, &u.BanReason,
		&u.HashedPassword, &settings, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Role = domain.Role(role)
	u.BirthDate = timePtr(birthDate)
	u.BannedUntil = timePtr(bannedUntil)
	u.Settings = domain.DefaultUserSettings()
	if err := decodeJSON(settings, &u.Settings); err != nil {
		return nil, err
	}
	return &u, nil
}
