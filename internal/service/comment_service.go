package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/events"
	"github.com/phrazzld/folio-api/internal/redact"
	"github.com/phrazzld/folio-api/internal/store"
)

// CommentEvent is the payload of comment.created.
type CommentEvent struct {
	CommentID uuid.UUID  `json:"comment_id"`
	PostID    uuid.UUID  `json:"post_id"`
	AuthorID  uuid.UUID  `json:"author_id"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
}

// CommentService manages comments on posts.
type CommentService interface {
	// Create returns ErrPostNotFound for a post that is missing or that
	// the actor cannot view, and ErrInvalidReference when parentID is not a comment on the same post.
	Create(ctx context.Context, actor Actor, postID uuid.UUID, parentID *uuid.UUID, content string) (*domain.Comment, error)

	// ListForPost returns visible comments oldest first. Moderators also
	// see hidden comments. A post the actor cannot view is ErrPostNotFound.
	ListForPost(ctx context.Context, actor Actor, postID uuid.UUID, page store.Page) ([]*domain.Comment, int, error)

	// Delete is allowed for the author, moderators and admins.
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type commentService struct {
	comments store.CommentStore
	posts    store.PostStore
	emitter  events.EventEmitter
	logger   *slog.Logger
}

// NewCommentService creates a CommentService. emitter may be nil.
func NewCommentService(comments store.CommentStore, posts store.PostStore, emitter events.EventEmitter, logger *slog.Logger) CommentService {
	return &commentService{
		comments: comments,
		posts:    posts,
		emitter:  emitter,
		logger:   logger.With("component", "comment_service"),
	}
}

func (s *commentService) Create(ctx context.Context, actor Actor, postID uuid.UUID, parentID *uuid.UUID, content string) (*domain.Comment, error) {
	post, err := s.viewablePost(ctx, actor, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve post for comment: %w", err)
	}
	if post.Status == domain.PostStatusArchived {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrPostArchived)
	}

	if parentID != nil {
		parent, err := s.comments.GetByID(ctx, *parentID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return nil, fmt.Errorf("%w: parent comment %s does not exist", ErrInvalidReference, parentID)
			}
			return nil, fmt.Errorf("failed to retrieve parent comment: %w", err)
		}
		if parent.PostID != postID {
			return nil, fmt.Errorf("%w: parent comment belongs to another post", ErrInvalidReference)
		}
	}

	comment, err := domain.NewComment(postID, actor.ID, parentID, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		s.logger.Error("failed to save comment", "post_id", postID, redact.Attr(err))
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	s.logger.Info("comment created", "comment_id", comment.ID, "post_id", postID)

	if err := events.Emit(ctx, s.emitter, domain.EventCommentCreated, CommentEvent{
		CommentID: comment.ID,
		PostID:    postID,
		AuthorID:  actor.ID,
		ParentID:  parentID,
	}); err != nil {
		s.logger.Warn("failed to emit comment.created", "comment_id", comment.ID, redact.Attr(err))
	}
	return comment, nil
}

func (s *commentService) ListForPost(ctx context.Context, actor Actor, postID uuid.UUID, page store.Page) ([]*domain.Comment, int, error) {
	if _, err := s.viewablePost(ctx, actor, postID); err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve post for comments: %w", err)
	}
	comments, total, err := s.comments.ListByPost(ctx, postID, actor.IsModerator(), page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, total, nil
}

// viewablePost hides posts the actor cannot read behind ErrPostNotFound.
func (s *commentService) viewablePost(ctx context.Context, actor Actor, postID uuid.UUID) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !actor.CanView(post) {
		return nil, store.ErrPostNotFound
	}
	return post, nil
}

func (s *commentService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to retrieve comment for delete: %w", err)
	}
	if comment.AuthorID != actor.ID && !actor.IsModerator() {
		return ErrNotOwned
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	s.logger.Info("comment deleted", "comment_id", id, "by", actor.ID)
	return nil
}
