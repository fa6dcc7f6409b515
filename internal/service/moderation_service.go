package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/events"
	"github.com/phrazzld/folio-api/internal/platform/mail"
	"github.com/phrazzld/folio-api/internal/redact"
	"github.com/phrazzld/folio-api/internal/store"
)

// Content types that can be moderated.
const (
	ContentTypePost    = "post"
	ContentTypeComment = "comment"
)

// ModerationInput describes one moderation decision.
type ModerationInput struct {
	ContentID   uuid.UUID
	ContentType string
	Action      domain.ModerationAction
	Reason      string
	// NotifyAuthor mails the content author about the decision.
	NotifyAuthor bool
}

// ModerationResult reports what a moderation decision did.
type ModerationResult struct {
	ContentID      uuid.UUID               `json:"content_id"`
	ContentType    string                  `json:"content_type"`
	Action         domain.ModerationAction `json:"action"`
	Reason         string                  `json:"reason,omitempty"`
	ModeratorID    uuid.UUID               `json:"moderator_id"`
	AuthorID       uuid.UUID               `json:"author_id"`
	AuthorNotified bool                    `json:"author_notified"`
}

// ModerationService applies moderator decisions to posts and comments.
type ModerationService interface {
	Moderate(ctx context.Context, actor Actor, in ModerationInput) (*ModerationResult, error)
}

type moderationService struct {
	posts    store.PostStore
	comments store.CommentStore
	users    store.UserStore
	mailer   mail.Sender
	emitter  events.EventEmitter
	now      func() time.Time
	logger   *slog.Logger
}

// NewModerationService creates a ModerationService. emitter may be nil.
func NewModerationService(
	posts store.PostStore,
	comments store.CommentStore,
	users store.UserStore,
	mailer mail.Sender,
	emitter events.EventEmitter,
	logger *slog.Logger,
) ModerationService {
	return &moderationService{
		posts:    posts,
		comments: comments,
		users:    users,
		mailer:   mailer,
		emitter:  emitter,
		now:      time.Now,
		logger:   logger.With("component", "moderation_service"),
	}
}

func (s *moderationService) Moderate(ctx context.Context, actor Actor, in ModerationInput) (*ModerationResult, error) {
	if err := requireModerator(actor); err != nil {
		return nil, err
	}
	if in.ContentType == "" {
		in.ContentType = ContentTypePost
	}
	if _, err := domain.ParseModerationAction(string(in.Action)); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	var (
		authorID uuid.UUID
		err      error
	)
	switch in.ContentType {
	case ContentTypePost:
		authorID, err = s.moderatePost(ctx, in)
	case ContentTypeComment:
		authorID, err = s.moderateComment(ctx, in)
	default:
		return nil, fmt.Errorf("%w: unknown content type %q", domain.ErrValidation, in.ContentType)
	}
	if err != nil {
		return nil, err
	}

	result := &ModerationResult{
		ContentID:   in.ContentID,
		ContentType: in.ContentType,
		Action:      in.Action,
		Reason:      in.Reason,
		ModeratorID: actor.ID,
		AuthorID:    authorID,
	}
	s.logger.Info("content moderated",
		"content_id", in.ContentID,
		"content_type", in.ContentType,
		"action", in.Action,
		"moderator_id", actor.ID)

	if in.NotifyAuthor {
		result.AuthorNotified = s.notifyAuthor(ctx, result)
	}

	if err := events.Emit(ctx, s.emitter, domain.EventContentModerated, result); err != nil {
		s.logger.Warn("failed to emit content.moderated", "content_id", in.ContentID, redact.Attr(err))
	}
	return result, nil
}

func (s *moderationService) moderatePost(ctx context.Context, in ModerationInput) (uuid.UUID, error) {
	post, err := s.posts.GetByID(ctx, in.ContentID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to retrieve post for moderation: %w", err)
	}

	now := s.now()
	published := false
	switch in.Action {
	case domain.ModerationApprove:
		post.Flagged = false
		published, err = post.SetStatus(domain.PostStatusPublished, now)
	case domain.ModerationReject:
		_, err = post.SetStatus(domain.PostStatusDraft, now)
	case domain.ModerationFlag:
		post.Flagged = true
		post.UpdatedAt = now.UTC()
	case domain.ModerationRemove:
		_, err = post.SetStatus(domain.PostStatusArchived, now)
	}
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return uuid.Nil, fmt.Errorf("failed to update moderated post: %w", err)
	}
	if published {
		if err := events.Emit(ctx, s.emitter, domain.EventPostPublished, newPostEvent(post)); err != nil {
			s.logger.Warn("failed to emit post.published", "post_id", post.ID, redact.Attr(err))
		}
	}
	return post.AuthorID, nil
}

func (s *moderationService) moderateComment(ctx context.Context, in ModerationInput) (uuid.UUID, error) {
	comment, err := s.comments.GetByID(ctx, in.ContentID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to retrieve comment for moderation: %w", err)
	}

	switch in.Action {
	case domain.ModerationApprove:
		err = s.comments.SetHidden(ctx, comment.ID, false)
	case domain.ModerationReject, domain.ModerationFlag:
		err = s.comments.SetHidden(ctx, comment.ID, true)
	case domain.ModerationRemove:
		err = s.comments.Delete(ctx, comment.ID)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to apply moderation to comment: %w", err)
	}
	return comment.AuthorID, nil
}

// notifyAuthor reports whether the author was mailed.
func (s *moderationService) notifyAuthor(ctx context.Context, result *ModerationResult) bool {
	author, err := s.users.GetByID(ctx, result.AuthorID)
	if err != nil {
		s.logger.Warn("cannot notify author", "author_id", result.AuthorID, redact.Attr(err))
		return false
	}

	body := fmt.Sprintf("Hi %s,\n\nA moderator applied %q to your %s %s.\n",
		author.Username, result.Action, result.ContentType, result.ContentID)
	if result.Reason != "" {
		body += "\nReason: " + result.Reason + "\n"
	}
	err = s.mailer.Send(ctx, mail.Message{
		To:       author.Email,
		Subject:  "Your " + result.ContentType + " was moderated",
		TextBody: body,
		Tag:      "moderation",
	})
	if err != nil {
		s.logger.Warn("failed to mail moderation notice", "author_id", author.ID, redact.Attr(err))
		return false
	}
	return true
}
