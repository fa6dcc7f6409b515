package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// TaskTypeWebhookDelivery posts one event to one webhook subscriber.
const TaskTypeWebhookDelivery = "webhook_delivery"

// Task represents a unit of background work to be processed
type Task interface {
	ID() uuid.UUID
	Type() string
	// Payload is the JSON persisted alongside the task and handed back to
	// the Registry on recovery.
	Payload() []byte
	Status() TaskStatus
	Execute(ctx context.Context) error
}

// Record is a task as persisted by a TaskStore.
type Record struct {
	ID           uuid.UUID
	Type         string
	Payload      []byte
	Status       TaskStatus
	Attempts     int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TaskQueueReader provides read-only access to the task channel
type TaskQueueReader interface {
	GetChannel() <-chan Task
}

// TaskQueueWriter provides write access to the task queue
type TaskQueueWriter interface {
	// Enqueue returns ErrQueueFull or ErrQueueClosed without blocking.
	Enqueue(task Task) error
	Close()
}

// TaskStore defines the interface for persisting tasks
type TaskStore interface {
	SaveTask(ctx context.Context, task Task) error

	// UpdateTaskStatus records a status change. Moving to processing also
	// increments the attempt counter.
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error

	GetPendingTasks(ctx context.Context) ([]Record, error)

	// GetProcessingTasks returns tasks in the processing state. A non-zero
	// olderThan limits the result to tasks that have not been updated for
	// at least that long.
	GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Record, error)
}
