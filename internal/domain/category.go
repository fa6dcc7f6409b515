package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyCategoryName is returned when a category has no name.
var ErrEmptyCategoryName = errors.New("category name cannot be empty")

// Category groups posts. Categories may nest one under another.
type Category struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description string
	ParentID    *uuid.UUID
	CreatedAt   time.Time
}

// NewCategory creates a category.
func NewCategory(name, slug, description string, parentID *uuid.UUID) (*Category, error) {
	c := &Category{
		ID:          uuid.New(),
		Name:        name,
		Slug:        slug,
		Description: description,
		ParentID:    parentID,
		CreatedAt:   time.Now().UTC(),
	}
	if c.Name == "" {
		return nil, ErrEmptyCategoryName
	}
	if c.Slug == "" {
		return nil, ErrEmptySlug
	}
	return c, nil
}
