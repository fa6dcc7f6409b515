package domain

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a reply to a post, optionally threaded under another comment.
type Comment struct {
	ID        uuid.UUID
	PostID    uuid.UUID
	AuthorID  uuid.UUID
	ParentID  *uuid.UUID
	Content   string
	Hidden    bool
	CreatedAt time.Time
}

// NewComment creates a visible comment.
func NewComment(postID, authorID uuid.UUID, parentID *uuid.UUID, content string) (*Comment, error) {
	c := &Comment{
		ID:        uuid.New(),
		PostID:    postID,
		AuthorID:  authorID,
		ParentID:  parentID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the comment invariants.
func (c *Comment) Validate() error {
	if c.ID == uuid.Nil || c.PostID == uuid.Nil {
		return ErrInvalidID
	}
	if c.AuthorID == uuid.Nil {
		return ErrEmptyAuthor
	}
	if c.Content == "" {
		return ErrEmptyContent
	}
	return nil
}
