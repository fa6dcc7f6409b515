package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTask struct{ id uuid.UUID }

func (s stubTask) ID() uuid.UUID                     { return s.id }
func (s stubTask) Type() string                      { return task.TaskTypeWebhookDelivery }
func (s stubTask) Payload() []byte                   { return []byte(`{"webhook_id":"x"}`) }
func (s stubTask) Status() task.TaskStatus           { return task.TaskStatusPending }
func (s stubTask) Execute(ctx context.Context) error { return nil }

func fixedStore(db *PostgresTaskStore, now time.Time) *PostgresTaskStore {
	db.now = func() time.Time { return now }
	return db
}

func TestPostgresTaskStore_SaveTask(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	id := uuid.New()

	mock.ExpectExec("INSERT INTO tasks \\(id,type,payload,status,created_at,updated_at\\)").
		WithArgs(id.String(), task.TaskTypeWebhookDelivery, `{"webhook_id":"x"}`, "pending", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := fixedStore(NewPostgresTaskStore(db), now)
	require.NoError(t, s.SaveTask(context.Background(), stubTask{id: id}))
}

func TestPostgresTaskStore_UpdateTaskStatus(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("processing bumps attempts", func(t *testing.T) {
		db, mock := newMock(t)
		id := uuid.New()
		mock.ExpectExec("UPDATE tasks SET status = \\$1, error_message = \\$2, updated_at = \\$3, attempts = attempts \\+ 1 WHERE id = \\$4").
			WithArgs("processing", "", now, id.String()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		s := fixedStore(NewPostgresTaskStore(db), now)
		require.NoError(t, s.UpdateTaskStatus(context.Background(), id, task.TaskStatusProcessing, ""))
	})

	t.Run("failed keeps attempts", func(t *testing.T) {
		db, mock := newMock(t)
		id := uuid.New()
		mock.ExpectExec("UPDATE tasks SET status = \\$1, error_message = \\$2, updated_at = \\$3 WHERE id = \\$4").
			WithArgs("failed", "boom", now, id.String()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		s := fixedStore(NewPostgresTaskStore(db), now)
		require.NoError(t, s.UpdateTaskStatus(context.Background(), id, task.TaskStatusFailed, "boom"))
	})

	t.Run("database error", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec("UPDATE tasks").WillReturnError(errors.New("conn reset"))

		err := NewPostgresTaskStore(db).UpdateTaskStatus(context.Background(), uuid.New(), task.TaskStatusCompleted, "")
		assert.ErrorContains(t, err, "failed to update task status")
	})
}

func TestPostgresTaskStore_GetProcessingTasks(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM tasks WHERE \\(status = \\$1 AND updated_at < \\$2\\) ORDER BY created_at ASC").
		WithArgs("processing", now.Add(-30*time.Minute)).
		WillReturnRows(sqlmock.NewRows(taskColumns).
			AddRow(id.String(), task.TaskTypeWebhookDelivery, `{"a":1}`, "processing", 2, "", now, now))

	s := fixedStore(NewPostgresTaskStore(db), now)
	recs, err := s.GetProcessingTasks(context.Background(), 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, id, recs[0].ID)
	assert.Equal(t, task.TaskStatusProcessing, recs[0].Status)
	assert.Equal(t, 2, recs[0].Attempts)
	assert.JSONEq(t, `{"a":1}`, string(recs[0].Payload))
}

func TestPostgresTaskStore_GetPendingTasks(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM tasks WHERE \\(status = \\$1\\) ORDER BY created_at ASC").
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows(taskColumns))

	recs, err := NewPostgresTaskStore(db).GetPendingTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}
