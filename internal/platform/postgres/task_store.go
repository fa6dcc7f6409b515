package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/platform/logger"
	"github.com/phrazzld/folio-api/internal/redact"
	"github.com/phrazzld/folio-api/internal/store"
	"github.com/phrazzld/folio-api/internal/task"
)

var taskColumns = []string{"id", "type", "payload", "status", "attempts", "error_message", "created_at", "updated_at"}

// PostgresTaskStore implements the task.TaskStore interface using PostgreSQL
type PostgresTaskStore struct {
	db  store.DBTX
	now func() time.Time
}

// NewPostgresTaskStore creates a new PostgresTaskStore
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

var _ task.TaskStore = (*PostgresTaskStore)(nil)

// SaveTask persists a task to the database
func (s *PostgresTaskStore) SaveTask(ctx context.Context, t task.Task) error {
	now := s.now()
	query, args, err := psql.Insert("tasks").
		Columns("id", "type", "payload", "status", "created_at", "updated_at").
		Values(t.ID(), t.Type(), string(t.Payload()), string(t.Status()), now, now).
		ToSql()
	if err != nil {
		return fmt.Errorf("build task insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Error("failed to save task",
			"task_id", t.ID(),
			"task_type", t.Type(),
			redact.Attr(err))
		return fmt.Errorf("failed to save task to database: %w", MapError(err))
	}
	return nil
}

// UpdateTaskStatus updates the status of a task. Unknown IDs are a no-op.
func (s *PostgresTaskStore) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status task.TaskStatus, errorMsg string) error {
	b := psql.Update("tasks").
		Set("status", string(status)).
		Set("error_message", errorMsg).
		Set("updated_at", s.now()).
		Where(sq.Eq{"id": taskID})
	if status == task.TaskStatusProcessing {
		b = b.Set("attempts", sq.Expr("attempts + 1"))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build task update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", MapError(err))
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		logger.FromContext(ctx).Warn("no task found to update", "task_id", taskID, "status", status)
	}
	return nil
}

// GetPendingTasks retrieves all tasks with "pending" status
func (s *PostgresTaskStore) GetPendingTasks(ctx context.Context) ([]task.Record, error) {
	return s.byStatus(ctx, task.TaskStatusPending, 0)
}

// GetProcessingTasks retrieves tasks with "processing" status
func (s *PostgresTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]task.Record, error) {
	return s.byStatus(ctx, task.TaskStatusProcessing, olderThan)
}

func (s *PostgresTaskStore) byStatus(ctx context.Context, status task.TaskStatus, olderThan time.Duration) ([]task.Record, error) {
	where := sq.And{sq.Eq{"status": string(status)}}
	if olderThan > 0 {
		where = append(where, sq.Lt{"updated_at": s.now().Add(-olderThan)})
	}
	query, args, err := psql.Select(taskColumns...).From("tasks").Where(where).OrderBy("created_at ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build task select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks by status: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var records []task.Record
	for rows.Next() {
		var (
			rec       task.Record
			recStatus string
		)
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.Payload, &recStatus, &rec.Attempts,
			&rec.ErrorMessage, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		rec.Status = task.TaskStatus(recStatus)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return records, nil
}
