package mocks

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/store"
)

// MockUserStore implements store.UserStore for testing.
type MockUserStore struct {
	CreateFn     func(ctx context.Context, user *domain.User) error
	GetByIDFn    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	UpdateFn     func(ctx context.Context, user *domain.User) error
	DeleteFn     func(ctx context.Context, id uuid.UUID) error
	StatsFn      func(ctx context.Context, since time.Time) (*store.UserStats, error)

	mu    sync.Mutex
	Users map[uuid.UUID]*domain.User
	// TxCalls counts WithTx calls.
	TxCalls int
}

var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates an empty store.
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{Users: make(map[uuid.UUID]*domain.User)}
}

// Add seeds users without uniqueness checks.
func (m *MockUserStore) Add(users ...*domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range users {
		m.Users[u.ID] = u
	}
}

// Get returns the stored user or nil.
func (m *MockUserStore) Get(id uuid.UUID) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Users[id]
}

func (m *MockUserStore) conflict(user *domain.User) error {
	for _, u := range m.Users {
		if u.ID == user.ID {
			continue
		}
		if u.Email == user.Email {
			return store.ErrEmailExists
		}
		if u.Username == user.Username {
			return store.ErrUsernameExists
		}
	}
	return nil
}

func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.conflict(user); err != nil {
		return err
	}
	m.Users[user.ID] = user
	return nil
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

// List filters by search and role and orders by creation time.
func (m *MockUserStore) List(ctx context.Context, filter store.UserFilter, page store.Page) ([]*domain.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*domain.User
	search := strings.ToLower(filter.Search)
	for _, u := range m.Users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Active != nil && u.IsActive != *filter.Active {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.FirstName), search) &&
			!strings.Contains(strings.ToLower(u.LastName), search) &&
			!strings.Contains(u.Username, search) {
			continue
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })
	return window(matched, page), len(matched), nil
}

func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	if err := m.conflict(user); err != nil {
		return err
	}
	cp := *user
	m.Users[user.ID] = &cp
	return nil
}

func (m *MockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(m.Users, id)
	return nil
}

func (m *MockUserStore) Stats(ctx context.Context, since time.Time) (*store.UserStats, error) {
	if m.StatsFn != nil {
		return m.StatsFn(ctx, since)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &store.UserStats{ByRole: make(map[domain.Role]int)}
	for _, r := range domain.Roles {
		stats.ByRole[r] = 0
	}
	for _, u := range m.Users {
		stats.Total++
		if u.IsActive {
			stats.Active++
		}
		stats.ByRole[u.Role]++
		if !u.CreatedAt.Before(since) {
			stats.RecentSignups++
		}
	}
	stats.Inactive = stats.Total - stats.Active
	return stats, nil
}

// WithTx returns the same store; transactions are not simulated.
func (m *MockUserStore) WithTx(tx *sql.Tx) store.UserStore {
	m.mu.Lock()
	m.TxCalls++
	m.mu.Unlock()
	return m
}

func window[T any](items []T, page store.Page) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if page.Limit > 0 && page.Offset+page.Limit < end {
		end = page.Offset + page.Limit
	}
	return items[page.Offset:end]
}
