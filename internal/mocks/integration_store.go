package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/store"
)

// MockAPIKeyStore implements store.APIKeyStore for testing.
type MockAPIKeyStore struct {
	mu   sync.Mutex
	Keys map[uuid.UUID]*domain.APIKey
}

var _ store.APIKeyStore = (*MockAPIKeyStore)(nil)

// NewMockAPIKeyStore creates an empty store.
func NewMockAPIKeyStore() *MockAPIKeyStore {
	return &MockAPIKeyStore{Keys: make(map[uuid.UUID]*domain.APIKey)}
}

func (m *MockAPIKeyStore) Create(ctx context.Context, key *domain.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Keys[key.ID] = key
	return nil
}

func (m *MockAPIKeyStore) GetByPrefix(ctx context.Context, prefix string) (*domain.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.Keys {
		if k.Prefix == prefix {
			cp := *k
			return &cp, nil
		}
	}
	return nil, store.ErrAPIKeyNotFound
}

func (m *MockAPIKeyStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.APIKey
	for _, k := range m.Keys {
		if k.UserID == userID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *MockAPIKeyStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.Keys[id]
	if !ok || k.UserID != userID {
		return store.ErrAPIKeyNotFound
	}
	delete(m.Keys, id)
	return nil
}

func (m *MockAPIKeyStore) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.Keys[id]
	if !ok {
		return store.ErrAPIKeyNotFound
	}
	k.LastUsedAt = &at
	return nil
}

// MockWebhookStore implements store.WebhookStore for testing.
type MockWebhookStore struct {
	ListActiveForEventFn func(ctx context.Context, event string) ([]*domain.Webhook, error)

	mu    sync.Mutex
	Hooks map[uuid.UUID]*domain.Webhook
}

var _ store.WebhookStore = (*MockWebhookStore)(nil)

// NewMockWebhookStore creates an empty store.
func NewMockWebhookStore() *MockWebhookStore {
	return &MockWebhookStore{Hooks: make(map[uuid.UUID]*domain.Webhook)}
}

func (m *MockWebhookStore) Create(ctx context.Context, hook *domain.Webhook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Hooks[hook.ID] = hook
	return nil
}

func (m *MockWebhookStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.Hooks[id]
	if !ok {
		return nil, store.ErrWebhookNotFound
	}
	return h, nil
}

func (m *MockWebhookStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Webhook
	for _, h := range m.Hooks {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *MockWebhookStore) ListActiveForEvent(ctx context.Context, event string) ([]*domain.Webhook, error) {
	if m.ListActiveForEventFn != nil {
		return m.ListActiveForEventFn(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Webhook
	for _, h := range m.Hooks {
		if h.Subscribes(event) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *MockWebhookStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.Hooks[id]
	if !ok || h.UserID != userID {
		return store.ErrWebhookNotFound
	}
	delete(m.Hooks, id)
	return nil
}
