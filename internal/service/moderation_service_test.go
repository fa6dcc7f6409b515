package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/mocks"
	"github.com/phrazzld/folio-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type moderationFixture struct {
	svc      ModerationService
	posts    *mocks.MockPostStore
	comments *mocks.MockCommentStore
	mailer   *mocks.MockMailSender
	emitter  *mocks.RecordingEmitter
	author   *domain.User
}

func newModerationFixture(t *testing.T) *moderationFixture {
	t.Helper()
	f := &moderationFixture{
		posts:    mocks.NewMockPostStore(),
		comments: mocks.NewMockCommentStore(),
		mailer:   &mocks.MockMailSender{},
		emitter:  &mocks.RecordingEmitter{},
	}
	users := mocks.NewMockUserStore()
	f.author = newTestUser(t, "author")
	users.Add(f.author)
	f.svc = NewModerationService(f.posts, f.comments, users, f.mailer, f.emitter, discardLogger())
	return f
}

func (f *moderationFixture) addPost(t *testing.T, status domain.PostStatus) *domain.Post {
	t.Helper()
	p, err := domain.NewPost(f.author.ID, "Post", uuid.NewString(), "body", []string{"go"}, status)
	require.NoError(t, err)
	f.posts.Add(p)
	return p
}

func TestModerationService_Posts(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		start       domain.PostStatus
		action      domain.ModerationAction
		wantStatus  domain.PostStatus
		wantFlagged bool
		wantEvents  []string
	}{
		{
			name: "approve publishes", start: domain.PostStatusDraft, action: domain.ModerationApprove,
			wantStatus: domain.PostStatusPublished,
			wantEvents: []string{domain.EventPostPublished, domain.EventContentModerated},
		},
		{
			name: "reject returns to draft", start: domain.PostStatusPublished, action: domain.ModerationReject,
			wantStatus: domain.PostStatusDraft,
			wantEvents: []string{domain.EventContentModerated},
		},
		{
			name: "flag keeps status", start: domain.PostStatusPublished, action: domain.ModerationFlag,
			wantStatus: domain.PostStatusPublished, wantFlagged: true,
			wantEvents: []string{domain.EventContentModerated},
		},
		{
			name: "remove archives", start: domain.PostStatusPublished, action: domain.ModerationRemove,
			wantStatus: domain.PostStatusArchived,
			wantEvents: []string{domain.EventContentModerated},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newModerationFixture(t)
			p := f.addPost(t, tt.start)

			res, err := f.svc.Moderate(ctx, moderatorActor(), ModerationInput{
				ContentID:    p.ID,
				Action:       tt.action,
				Reason:       "policy",
				NotifyAuthor: true,
			})
			require.NoError(t, err)
			assert.Equal(t, ContentTypePost, res.ContentType)
			assert.Equal(t, f.author.ID, res.AuthorID)
			assert.True(t, res.AuthorNotified)

			stored := f.posts.Get(p.ID)
			assert.Equal(t, tt.wantStatus, stored.Status)
			assert.Equal(t, tt.wantFlagged, stored.Flagged)
			assert.Equal(t, tt.wantEvents, f.emitter.Types())

			sent := f.mailer.Messages()
			require.Len(t, sent, 1)
			assert.Equal(t, f.author.Email, sent[0].To)
			assert.Contains(t, sent[0].TextBody, "Reason: policy")
		})
	}
}

func TestModerationService_Comments(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		action      domain.ModerationAction
		startHidden bool
		wantHidden  bool
		wantDeleted bool
	}{
		{action: domain.ModerationApprove, startHidden: true, wantHidden: false},
		{action: domain.ModerationReject, wantHidden: true},
		{action: domain.ModerationFlag, wantHidden: true},
		{action: domain.ModerationRemove, wantDeleted: true},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			f := newModerationFixture(t)
			c, err := domain.NewComment(uuid.New(), f.author.ID, nil, "text")
			require.NoError(t, err)
			c.Hidden = tt.startHidden
			f.comments.Add(c)

			res, err := f.svc.Moderate(ctx, adminActor(), ModerationInput{
				ContentID:   c.ID,
				ContentType: ContentTypeComment,
				Action:      tt.action,
			})
			require.NoError(t, err)
			assert.False(t, res.AuthorNotified)
			assert.Empty(t, f.mailer.Messages())

			stored := f.comments.Get(c.ID)
			if tt.wantDeleted {
				assert.Nil(t, stored)
				return
			}
			require.NotNil(t, stored)
			assert.Equal(t, tt.wantHidden, stored.Hidden)
		})
	}
}

func TestModerationService_Errors(t *testing.T) {
	ctx := context.Background()
	f := newModerationFixture(t)
	p := f.addPost(t, domain.PostStatusDraft)

	_, err := f.svc.Moderate(ctx, Actor{ID: uuid.New(), Role: domain.RoleUser}, ModerationInput{ContentID: p.ID, Action: domain.ModerationFlag})
	assert.ErrorIs(t, err, ErrModeratorRequired)

	_, err = f.svc.Moderate(ctx, moderatorActor(), ModerationInput{ContentID: p.ID, Action: "burn"})
	assert.ErrorIs(t, err, domain.ErrInvalidModerationAction)

	_, err = f.svc.Moderate(ctx, moderatorActor(), ModerationInput{ContentID: p.ID, ContentType: "user", Action: domain.ModerationFlag})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Moderate(ctx, moderatorActor(), ModerationInput{ContentID: uuid.New(), Action: domain.ModerationFlag})
	assert.ErrorIs(t, err, store.ErrPostNotFound)

	_, err = f.svc.Moderate(ctx, moderatorActor(), ModerationInput{ContentID: uuid.New(), ContentType: ContentTypeComment, Action: domain.ModerationFlag})
	assert.ErrorIs(t, err, store.ErrCommentNotFound)
}

func TestModerationService_MailFailureIsReported(t *testing.T) {
	ctx := context.Background()
	f := newModerationFixture(t)
	f.mailer.Err = errors.New("mail down")
	p := f.addPost(t, domain.PostStatusPublished)

	res, err := f.svc.Moderate(ctx, moderatorActor(), ModerationInput{ContentID: p.ID, Action: domain.ModerationFlag, NotifyAuthor: true})
	require.NoError(t, err)
	assert.False(t, res.AuthorNotified)
}
