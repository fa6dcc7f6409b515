package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/store"
)

var webhookColumns = []string{"id", "user_id", "url", "events", "secret", "active", "created_at"}

// PostgresWebhookStore implements store.WebhookStore using PostgreSQL.
type PostgresWebhookStore struct {
	db store.DBTX
}

// NewPostgresWebhookStore creates a new PostgresWebhookStore.
func NewPostgresWebhookStore(db store.DBTX) *PostgresWebhookStore {
	return &PostgresWebhookStore{db: db}
}

var _ store.WebhookStore = (*PostgresWebhookStore)(nil)

func (s *PostgresWebhookStore) Create(ctx context.Context, w *domain.Webhook) error {
	events, err := jsonText(w.Events)
	if err != nil {
		return err
	}
	query, args, err := psql.Insert("webhooks").Columns(webhookColumns...).
		Values(w.ID, w.UserID, w.URL, events, w.Secret, w.Active, w.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build webhook insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return MapError(err)
	}
	return nil
}

func (s *PostgresWebhookStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Webhook, error) {
	query, args, err := psql.Select(webhookColumns...).From("webhooks").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build webhook select: %w", err)
	}
	w, err := scanWebhook(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapNotFound(err, store.ErrWebhookNotFound)
	}
	return w, nil
}

func (s *PostgresWebhookStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Webhook, error) {
	return s.list(ctx, sq.Eq{"user_id": userID})
}

func (s *PostgresWebhookStore) ListActiveForEvent(ctx context.Context, event string) ([]*domain.Webhook, error) {
	events, err := jsonText([]string{event})
	if err != nil {
		return nil, err
	}
	return s.list(ctx, sq.And{sq.Eq{"active": true}, sq.Expr("events @> ?::jsonb", events)})
}

func (s *PostgresWebhookStore) list(ctx context.Context, where sq.Sqlizer) ([]*domain.Webhook, error) {
	query, args, err := psql.Select(webhookColumns...).From("webhooks").Where(where).
		OrderBy("created_at ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build webhook list: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var hooks []*domain.Webhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, MapError(err)
		}
		hooks = append(hooks, w)
	}
	return hooks, MapError(rows.Err())
}

func (s *PostgresWebhookStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrWebhookNotFound)
}

func scanWebhook(row rowScanner) (*domain.Webhook, error) {
	var (
		w      domain.Webhook
		events []byte
	)
	if err := row.Scan(&w.ID, &w.UserID, &w.URL, &events, &w.Secret, &w.Active, &w.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSON(events, &w.Events); err != nil {
		return nil, err
	}
	return &w, nil
}
