package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/store"
)

// CategoryInput carries the fields of a new category.
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
	ParentID    *uuid.UUID
}

// CategoryService manages post categories.
type CategoryService interface {
	// Create is limited to moderators and admins. Returns ErrSlugExists or
	// ErrInvalidReference for a missing parent.
	Create(ctx context.Context, actor Actor, in CategoryInput) (*domain.Category, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
}

type categoryService struct {
	categories store.CategoryStore
	logger     *slog.Logger
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(categories store.CategoryStore, logger *slog.Logger) CategoryService {
	return &categoryService{categories: categories, logger: logger.With("component", "category_service")}
}

func (s *categoryService) Create(ctx context.Context, actor Actor, in CategoryInput) (*domain.Category, error) {
	if err := requireModerator(actor); err != nil {
		return nil, err
	}
	slug := in.Slug
	if slug == "" {
		slug = domain.Slugify(in.Name)
	}
	category, err := domain.NewCategory(in.Name, slug, in.Description, in.ParentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if in.ParentID != nil {
		if _, err := s.categories.GetByID(ctx, *in.ParentID); err != nil {
			if store.IsNotFoundError(err) {
				return nil, fmt.Errorf("%w: parent category %s does not exist", ErrInvalidReference, in.ParentID)
			}
			return nil, fmt.Errorf("failed to retrieve parent category: %w", err)
		}
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	s.logger.Info("category created", "category_id", category.ID, "slug", category.Slug)
	return category, nil
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return c, nil
}

func (s *categoryService) List(ctx context.Context) ([]*domain.Category, error) {
	list, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return list, nil
}
