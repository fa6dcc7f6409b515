package mocks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/phrazzld/folio-api/internal/events"
	"github.com/phrazzld/folio-api/internal/platform/mail"
	"github.com/phrazzld/folio-api/internal/platform/storage"
	"github.com/phrazzld/folio-api/internal/service/auth"
)

// PlainHasher implements auth.PasswordHasher without bcrypt so tests stay fast.
type PlainHasher struct {
	HashErr error
}

var _ auth.PasswordHasher = PlainHasher{}

func (h PlainHasher) Hash(password string) (string, error) {
	if h.HashErr != nil {
		return "", h.HashErr
	}
	return "hashed:" + password, nil
}

func (h PlainHasher) Compare(hashedPassword, password string) error {
	if !strings.HasPrefix(hashedPassword, "hashed:") {
		return errors.New("not a hash")
	}
	if hashedPassword != "hashed:"+password {
		return auth.ErrPasswordMismatch
	}
	return nil
}

// MockMailSender records sent messages.
type MockMailSender struct {
	Err error

	mu   sync.Mutex
	Sent []mail.Message
}

var _ mail.Sender = (*MockMailSender)(nil)

func (m *MockMailSender) Send(ctx context.Context, msg mail.Message) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return nil
}

// Messages returns a copy of the sent messages.
func (m *MockMailSender) Messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.Sent...)
}

// MockStorage keeps saved objects in memory.
type MockStorage struct {
	SaveErr error
	BaseURL string

	mu      sync.Mutex
	Objects map[string][]byte
	Deleted []string
}

var _ storage.Storage = (*MockStorage)(nil)

// NewMockStorage creates an empty storage serving from https://cdn.test.
func NewMockStorage() *MockStorage {
	return &MockStorage{BaseURL: "https://cdn.test", Objects: make(map[string][]byte)}
}

func (m *MockStorage) Save(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	if m.SaveErr != nil {
		return "", m.SaveErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = buf.Bytes()
	return m.BaseURL + "/" + key, nil
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

// RecordingEmitter implements events.EventEmitter and keeps every event.
type RecordingEmitter struct {
	Err error

	mu     sync.Mutex
	Events []*events.DomainEvent
}

var _ events.EventEmitter = (*RecordingEmitter)(nil)

func (e *RecordingEmitter) EmitEvent(ctx context.Context, event *events.DomainEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Events = append(e.Events, event)
	return e.Err
}

// Types returns the emitted event types in order.
func (e *RecordingEmitter) Types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.Events))
	for i, ev := range e.Events {
		out[i] = ev.Type
	}
	return out
}
