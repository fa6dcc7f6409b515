package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Post validation errors.
var (
	ErrEmptyTitle   = errors.New("title cannot be empty")
	ErrEmptySlug    = errors.New("slug cannot be empty")
	ErrEmptyAuthor  = errors.New("author ID cannot be empty")
	ErrTooManyTags  = errors.New("a post can have at most 10 tags")
	ErrMissingTags  = errors.New("a post needs at least one tag")
	ErrPostArchived = errors.New("post is archived")
)

// MaxPostTags is the upper bound on tags per post.
const MaxPostTags = 10

// PostStatus is the publication state of a post.
type PostStatus string

// Post statuses.
const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusArchived  PostStatus = "archived"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}

// Post is an authored article.
type Post struct {
	ID          uuid.UUID
	AuthorID    uuid.UUID
	Title       string
	Slug        string
	Content     string
	Excerpt     string
	CoverImage  string
	Tags        []string
	CategoryID  *uuid.UUID
	Status      PostStatus
	Flagged     bool
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPost builds a draft post. An empty status means draft.
func NewPost(authorID uuid.UUID, title, slug, content string, tags []string, status PostStatus) (*Post, error) {
	if status == "" {
		status = PostStatusDraft
	}
	now := time.Now().UTC()
	p := &Post{
		ID:        uuid.New(),
		AuthorID:  authorID,
		Title:     title,
		Slug:      slug,
		Content:   content,
		Tags:      tags,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == PostStatusPublished {
		p.PublishedAt = &now
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the post invariants.
func (p *Post) Validate() error {
	if p.ID == uuid.Nil {
		return ErrInvalidID
	}
	if p.AuthorID == uuid.Nil {
		return ErrEmptyAuthor
	}
	if p.Title == "" {
		return ErrEmptyTitle
	}
	if p.Slug == "" {
		return ErrEmptySlug
	}
	if p.Content == "" {
		return ErrEmptyContent
	}
	if len(p.Tags) == 0 {
		return ErrMissingTags
	}
	if len(p.Tags) > MaxPostTags {
		return ErrTooManyTags
	}
	if !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPostStatus, p.Status)
	}
	return nil
}

// SetStatus changes the status and reports whether the post just became
// published. Publishing stamps PublishedAt when it is unset.
func (p *Post) SetStatus(status PostStatus, now time.Time) (published bool, err error) {
	if !status.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidPostStatus, status)
	}
	published = status == PostStatusPublished && p.Status != PostStatusPublished
	p.Status = status
	if status == PostStatusPublished && p.PublishedAt == nil {
		t := now.UTC()
		p.PublishedAt = &t
	}
	p.UpdatedAt = now.UTC()
	return published, nil
}
