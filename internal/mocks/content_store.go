package mocks

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/store"
)

// MockPostStore implements store.PostStore for testing.
type MockPostStore struct {
	CreateFn func(ctx context.Context, post *domain.Post) error
	UpdateFn func(ctx context.Context, post *domain.Post) error
	DeleteFn func(ctx context.Context, id uuid.UUID) error

	mu    sync.Mutex
	Posts map[uuid.UUID]*domain.Post
}

var _ store.PostStore = (*MockPostStore)(nil)

// NewMockPostStore creates an empty store.
func NewMockPostStore() *MockPostStore {
	return &MockPostStore{Posts: make(map[uuid.UUID]*domain.Post)}
}

// Add seeds posts.
func (m *MockPostStore) Add(posts ...*domain.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range posts {
		m.Posts[p.ID] = p
	}
}

// Get returns the stored post or nil.
func (m *MockPostStore) Get(id uuid.UUID) *domain.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Posts[id]
}

func (m *MockPostStore) slugTaken(slug string, except uuid.UUID) bool {
	for _, p := range m.Posts {
		if p.Slug == slug && p.ID != except {
			return true
		}
	}
	return false
}

func (m *MockPostStore) Create(ctx context.Context, post *domain.Post) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, post)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugTaken(post.Slug, post.ID) {
		return store.ErrSlugExists
	}
	m.Posts[post.ID] = post
	return nil
}

func (m *MockPostStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Posts[id]
	if !ok {
		return nil, store.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPostStore) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Posts {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrPostNotFound
}

func (m *MockPostStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slugTaken(slug, uuid.Nil), nil
}

// List applies the status, author, tag and query filters, newest first.
func (m *MockPostStore) List(ctx context.Context, filter store.PostFilter, page store.Page) ([]*domain.Post, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*domain.Post
	for _, p := range m.Posts {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.AuthorID != nil && p.AuthorID != *filter.AuthorID {
			continue
		}
		if p.Flagged && !filter.IncludeFlagged {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(p.Title+" "+p.Content), strings.ToLower(filter.Query)) {
			continue
		}
		if !hasAll(p.Tags, filter.Tags) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return window(matched, page), len(matched), nil
}

func (m *MockPostStore) Update(ctx context.Context, post *domain.Post) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, post)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Posts[post.ID]; !ok {
		return store.ErrPostNotFound
	}
	if m.slugTaken(post.Slug, post.ID) {
		return store.ErrSlugExists
	}
	cp := *post
	m.Posts[post.ID] = &cp
	return nil
}

func (m *MockPostStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Posts[id]; !ok {
		return store.ErrPostNotFound
	}
	delete(m.Posts, id)
	return nil
}

func (m *MockPostStore) WithTx(tx *sql.Tx) store.PostStore { return m }

func hasAll(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// MockCommentStore implements store.CommentStore for testing.
type MockCommentStore struct {
	CreateFn func(ctx context.Context, comment *domain.Comment) error

	mu       sync.Mutex
	Comments map[uuid.UUID]*domain.Comment
}

var _ store.CommentStore = (*MockCommentStore)(nil)

// NewMockCommentStore creates an empty store.
func NewMockCommentStore() *MockCommentStore {
	return &MockCommentStore{Comments: make(map[uuid.UUID]*domain.Comment)}
}

// Add seeds comments.
func (m *MockCommentStore) Add(comments ...*domain.Comment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range comments {
		m.Comments[c.ID] = c
	}
}

// Get returns the stored comment or nil.
func (m *MockCommentStore) Get(id uuid.UUID) *domain.Comment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Comments[id]
}

func (m *MockCommentStore) Create(ctx context.Context, comment *domain.Comment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, comment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Comments[comment.ID] = comment
	return nil
}

func (m *MockCommentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Comments[id]
	if !ok {
		return nil, store.ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCommentStore) ListByPost(ctx context.Context, postID uuid.UUID, includeHidden bool, page store.Page) ([]*domain.Comment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*domain.Comment
	for _, c := range m.Comments {
		if c.PostID != postID || (c.Hidden && !includeHidden) {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })
	return window(matched, page), len(matched), nil
}

func (m *MockCommentStore) SetHidden(ctx context.Context, id uuid.UUID, hidden bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Comments[id]
	if !ok {
		return store.ErrCommentNotFound
	}
	c.Hidden = hidden
	return nil
}

func (m *MockCommentStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Comments[id]; !ok {
		return store.ErrCommentNotFound
	}
	delete(m.Comments, id)
	return nil
}

// MockCategoryStore implements store.CategoryStore for testing.
type MockCategoryStore struct {
	mu         sync.Mutex
	Categories map[uuid.UUID]*domain.Category
}

var _ store.CategoryStore = (*MockCategoryStore)(nil)

// NewMockCategoryStore creates an empty store.
func NewMockCategoryStore() *MockCategoryStore {
	return &MockCategoryStore{Categories: make(map[uuid.UUID]*domain.Category)}
}

// Add seeds categories.
func (m *MockCategoryStore) Add(categories ...*domain.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range categories {
		m.Categories[c.ID] = c
	}
}

func (m *MockCategoryStore) Create(ctx context.Context, category *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Categories {
		if c.Slug == category.Slug {
			return store.ErrSlugExists
		}
	}
	m.Categories[category.ID] = category
	return nil
}

func (m *MockCategoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Categories[id]
	if !ok {
		return nil, store.ErrCategoryNotFound
	}
	return c, nil
}

func (m *MockCategoryStore) List(ctx context.Context) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Category, 0, len(m.Categories))
	for _, c := range m.Categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
