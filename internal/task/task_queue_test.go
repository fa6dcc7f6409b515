package task

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueue_Enqueue(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(2, discardLogger())

	require.NoError(t, q.Enqueue(newFakeTask(nil)))
	require.NoError(t, q.Enqueue(newFakeTask(nil)))
	assert.Equal(t, 2, q.Len())

	err := q.Enqueue(newFakeTask(nil))
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestTaskQueue_Close(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(1, discardLogger())
	task := newFakeTask(nil)
	require.NoError(t, q.Enqueue(task))

	q.Close()
	q.Close()

	assert.ErrorIs(t, q.Enqueue(newFakeTask(nil)), ErrQueueClosed)

	got, ok := <-q.GetChannel()
	require.True(t, ok)
	assert.Equal(t, task.ID(), got.ID())

	_, ok = <-q.GetChannel()
	assert.False(t, ok, "channel should be closed once drained")
}

func TestTaskQueue_ConcurrentEnqueueAndClose(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(10, discardLogger())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Enqueue(newFakeTask(nil))
		}()
	}
	q.Close()
	wg.Wait()

	assert.LessOrEqual(t, q.Len(), 10)
}

func TestRegistry_Rehydrate(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register("fake", func(rec Record) (Task, error) {
		return &fakeTask{id: rec.ID, taskType: rec.Type, payload: rec.Payload}, nil
	})

	rec := Record{ID: newFakeTask(nil).ID(), Type: "fake", Payload: []byte(`{"a":1}`)}
	task, err := r.Rehydrate(rec)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, task.ID())

	_, err = r.Rehydrate(Record{Type: "nope"})
	assert.ErrorIs(t, err, ErrUnknownTaskType)
}
