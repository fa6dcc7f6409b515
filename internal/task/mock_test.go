package task

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryTaskStore implements TaskStore in memory.
type memoryTaskStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Record

	SaveFn   func(ctx context.Context, task Task) error
	UpdateFn func(ctx context.Context, id uuid.UUID, status TaskStatus, msg string) error
}

func newMemoryTaskStore() *memoryTaskStore {
	return &memoryTaskStore{records: make(map[uuid.UUID]*Record)}
}

func (s *memoryTaskStore) put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := rec
	s.records[rec.ID] = &r
}

func (s *memoryTaskStore) get(id uuid.UUID) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

func (s *memoryTaskStore) SaveTask(ctx context.Context, task Task) error {
	if s.SaveFn != nil {
		return s.SaveFn(ctx, task)
	}
	now := time.Now()
	s.put(Record{
		ID:        task.ID(),
		Type:      task.Type(),
		Payload:   task.Payload(),
		Status:    task.Status(),
		CreatedAt: now,
		UpdatedAt: now,
	})
	return nil
}

func (s *memoryTaskStore) UpdateTaskStatus(ctx context.Context, id uuid.UUID, status TaskStatus, msg string) error {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, id, status, msg)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil
	}
	if status == TaskStatusProcessing {
		r.Attempts++
	}
	r.Status = status
	r.ErrorMessage = msg
	r.UpdatedAt = time.Now()
	return nil
}

func (s *memoryTaskStore) byStatus(status TaskStatus, olderThan time.Duration) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, r := range s.records {
		if r.Status != status {
			continue
		}
		if olderThan > 0 && time.Since(r.UpdatedAt) < olderThan {
			continue
		}
		out = append(out, *r)
	}
	return out
}

func (s *memoryTaskStore) GetPendingTasks(ctx context.Context) ([]Record, error) {
	return s.byStatus(TaskStatusPending, 0), nil
}

func (s *memoryTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Record, error) {
	return s.byStatus(TaskStatusProcessing, olderThan), nil
}

// fakeTask is a Task whose behavior is supplied by the test.
type fakeTask struct {
	id        uuid.UUID
	taskType  string
	payload   []byte
	executeFn func(ctx context.Context) error
}

func newFakeTask(fn func(ctx context.Context) error) *fakeTask {
	return &fakeTask{id: uuid.New(), taskType: "fake", payload: []byte(`{}`), executeFn: fn}
}

func (t *fakeTask) ID() uuid.UUID      { return t.id }
func (t *fakeTask) Type() string       { return t.taskType }
func (t *fakeTask) Payload() []byte    { return t.payload }
func (t *fakeTask) Status() TaskStatus { return TaskStatusPending }
func (t *fakeTask) Execute(ctx context.Context) error {
	if t.executeFn == nil {
		return nil
	}
	return t.executeFn(ctx)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
