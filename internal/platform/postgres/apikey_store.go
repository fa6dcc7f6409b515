package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/store"
)

var apiKeyColumns = []string{
	"id", "user_id", "name", "prefix", "hashed_key", "scopes", "expires_at", "last_used_at", "created_at",
}

// PostgresAPIKeyStore implements store.APIKeyStore using PostgreSQL.
type PostgresAPIKeyStore struct {
	db store.DBTX
}

// NewPostgresAPIKeyStore creates a new PostgresAPIKeyStore.
func NewPostgresAPIKeyStore(db store.DBTX) *PostgresAPIKeyStore {
	return &PostgresAPIKeyStore{db: db}
}

var _ store.APIKeyStore = (*PostgresAPIKeyStore)(nil)

func (s *PostgresAPIKeyStore) Create(ctx context.Context, k *domain.APIKey) error {
	scopes, err := jsonText(k.Scopes)
	if err != nil {
		return err
	}
	query, args, err := psql.Insert("api_keys").Columns(apiKeyColumns...).
		Values(k.ID, k.UserID, k.Name, k.Prefix, k.HashedKey, scopes,
			nullTime(k.ExpiresAt), nullTime(k.LastUsedAt), k.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build api key insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return MapError(err)
	}
	return nil
}

func (s *PostgresAPIKeyStore) GetByPrefix(ctx context.Context, prefix string) (*domain.APIKey, error) {
	query, args, err := psql.Select(apiKeyColumns...).From("api_keys").Where(sq.Eq{"prefix": prefix}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build api key select: %w", err)
	}
	k, err := scanAPIKey(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapNotFound(err, store.ErrAPIKeyNotFound)
	}
	return k, nil
}

func (s *PostgresAPIKeyStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.APIKey, error) {
	query, args, err := psql.Select(apiKeyColumns...).From("api_keys").
		Where(sq.Eq{"user_id": userID}).OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build api key list: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var keys []*domain.APIKey
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, MapError(err)
		}
		keys = append(keys, k)
	}
	return keys, MapError(rows.Err())
}

func (s *PostgresAPIKeyStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrAPIKeyNotFound)
}

func (s *PostgresAPIKeyStore) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = $1 WHERE id = $2`, at, id)
	return MapError(err)
}

func scanAPIKey(row rowScanner) (*domain.APIKey, error) {
	var (
		k          domain.APIKey
		scopes     []byte
		expiresAt  sql.NullTime
		lastUsedAt sql.NullTime
	)
	err := row.Scan(&k.ID, &k.UserID, &k.Name, &k.Prefix, &k.HashedKey, &scopes, &expiresAt, &lastUsedAt, &k.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(scopes, &k.Scopes); err != nil {
		return nil, err
	}
	k.ExpiresAt = timePtr(expiresAt)
	k.LastUsedAt = timePtr(lastUsedAt)
	return &k, nil
}
