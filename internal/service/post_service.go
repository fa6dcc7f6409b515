package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/events"
	"github.com/phrazzld/folio-api/internal/redact"
	"github.com/phrazzld/folio-api/internal/store"
)

// maxSlugAttempts bounds the numeric suffixes tried for a generated slug.
const maxSlugAttempts = 50

// PostInput carries the fields of a new post. An empty Slug is derived from
// Title; an empty Status means draft.
type PostInput struct {
	Title       string
	Slug        string
	Content     string
	Excerpt     string
	CoverImage  string
	Tags        []string
	CategoryID  *uuid.UUID
	Status      domain.PostStatus
	PublishedAt *time.Time
}

// PostPatch holds the post fields to change. Nil fields are left alone.
type PostPatch struct {
	Title       *string
	Slug        *string
	Content     *string
	Excerpt     *string
	CoverImage  *string
	Tags        []string
	CategoryID  *uuid.UUID
	Status      *domain.PostStatus
	PublishedAt *time.Time
}

// PostEvent is the payload of post.published and post.deleted.
type PostEvent struct {
	PostID   uuid.UUID `json:"post_id"`
	AuthorID uuid.UUID `json:"author_id"`
	Title    string    `json:"title"`
	Slug     string    `json:"slug"`
}

func newPostEvent(p *domain.Post) PostEvent {
	return PostEvent{PostID: p.ID, AuthorID: p.AuthorID, Title: p.Title, Slug: p.Slug}
}

// PostService manages posts. Authors edit their own posts; moderators and
// admins edit any; only authors and admins delete.
type PostService interface {
	Create(ctx context.Context, actor Actor, in PostInput) (*domain.Post, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Post, error)
	List(ctx context.Context, filter store.PostFilter, page store.Page) ([]*domain.Post, int, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, patch PostPatch) (*domain.Post, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type postService struct {
	posts      store.PostStore
	categories store.CategoryStore
	emitter    events.EventEmitter
	now        func() time.Time
	logger     *slog.Logger
}

// NewPostService creates a PostService. emitter may be nil.
func NewPostService(posts store.PostStore, categories store.CategoryStore, emitter events.EventEmitter, logger *slog.Logger) PostService {
	return &postService{
		posts:      posts,
		categories: categories,
		emitter:    emitter,
		now:        time.Now,
		logger:     logger.With("component", "post_service"),
	}
}

func (s *postService) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.categories.GetByID(ctx, *id); err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			return fmt.Errorf("%w: category %s does not exist", ErrInvalidReference, id)
		}
		return fmt.Errorf("failed to check category: %w", err)
	}
	return nil
}

// uniqueSlug returns base, or base-2, base-3, ... whichever is free first.
func (s *postService) uniqueSlug(ctx context.Context, base string) (string, error) {
	if base == "" {
		base = "post"
	}
	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		taken, err := s.posts.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
	return "", fmt.Errorf("%w: no free slug for %q", store.ErrSlugExists, base)
}

func (s *postService) Create(ctx context.Context, actor Actor, in PostInput) (*domain.Post, error) {
	slug := in.Slug
	if slug == "" {
		var err error
		if slug, err = s.uniqueSlug(ctx, domain.Slugify(in.Title)); err != nil {
			return nil, err
		}
	}

	post, err := domain.NewPost(actor.ID, in.Title, slug, in.Content, in.Tags, in.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	post.Excerpt = in.Excerpt
	post.CoverImage = in.CoverImage
	post.CategoryID = in.CategoryID
	if in.PublishedAt != nil {
		t := in.PublishedAt.UTC()
		post.PublishedAt = &t
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if !store.IsDuplicateError(err) {
			s.logger.Error("failed to save post", redact.Attr(err))
		}
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	s.logger.Info("post created", "post_id", post.ID, "author_id", post.AuthorID, "status", post.Status)

	if post.Status == domain.PostStatusPublished {
		s.emit(ctx, domain.EventPostPublished, post)
	}
	return post, nil
}

func (s *postService) Get(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve post: %w", err)
	}
	return post, nil
}

func (s *postService) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve post: %w", err)
	}
	return post, nil
}

func (s *postService) List(ctx context.Context, filter store.PostFilter, page store.Page) ([]*domain.Post, int, error) {
	posts, total, err := s.posts.List(ctx, filter, page)
	if err != nil {
		s.logger.Error("failed to list posts", redact.Attr(err))
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, total, nil
}

func (s *postService) Update(ctx context.Context, actor Actor, id uuid.UUID, patch PostPatch) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve post for update: %w", err)
	}
	if post.AuthorID != actor.ID && !actor.IsModerator() {
		return nil, ErrNotOwned
	}

	if patch.Title != nil {
		post.Title = *patch.Title
	}
	if patch.Slug != nil {
		post.Slug = *patch.Slug
	}
	if patch.Content != nil {
		post.Content = *patch.Content
	}
	if patch.Excerpt != nil {
		post.Excerpt = *patch.Excerpt
	}
	if patch.CoverImage != nil {
		post.CoverImage = *patch.CoverImage
	}
	if patch.Tags != nil {
		post.Tags = patch.Tags
	}
	if patch.CategoryID != nil {
		if err := s.checkCategory(ctx, patch.CategoryID); err != nil {
			return nil, err
		}
		post.CategoryID = patch.CategoryID
	}
	if patch.PublishedAt != nil {
		t := patch.PublishedAt.UTC()
		post.PublishedAt = &t
	}

	now := s.now()
	published := false
	if patch.Status != nil {
		if published, err = post.SetStatus(*patch.Status, now); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
	}
	post.UpdatedAt = now.UTC()

	if err := post.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	if err := s.posts.Update(ctx, post); err != nil {
		if !store.IsDuplicateError(err) {
			s.logger.Error("failed to update post", "post_id", id, redact.Attr(err))
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	s.logger.Info("post updated", "post_id", id, "by", actor.ID)

	if published {
		s.emit(ctx, domain.EventPostPublished, post)
	}
	return post, nil
}

func (s *postService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to retrieve post for delete: %w", err)
	}
	if post.AuthorID != actor.ID && !actor.IsAdmin() {
		return ErrNotOwned
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	s.logger.Info("post deleted", "post_id", id, "by", actor.ID)
	s.emit(ctx, domain.EventPostDeleted, post)
	return nil
}

// emit publishes a post event. Failures are logged only.
func (s *postService) emit(ctx context.Context, eventType string, post *domain.Post) {
	if err := events.Emit(ctx, s.emitter, eventType, newPostEvent(post)); err != nil {
		s.logger.Warn("failed to emit post event", "event_type", eventType, "post_id", post.ID, redact.Attr(err))
	}
}
