package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/mocks"
	"github.com/phrazzld/folio-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommentFixture(t *testing.T) (CommentService, *mocks.MockCommentStore, *domain.Post, *mocks.RecordingEmitter) {
	t.Helper()
	posts := mocks.NewMockPostStore()
	comments := mocks.NewMockCommentStore()
	emitter := &mocks.RecordingEmitter{}
	post, err := domain.NewPost(uuid.New(), "Post", "post", "body", []string{"go"}, domain.PostStatusPublished)
	require.NoError(t, err)
	posts.Add(post)
	return NewCommentService(comments, posts, emitter, discardLogger()), comments, post, emitter
}

func TestCommentService_Create(t *testing.T) {
	ctx := context.Background()
	actor := Actor{ID: uuid.New(), Role: domain.RoleUser}

	t.Run("top level and reply", func(t *testing.T) {
		svc, _, post, emitter := newCommentFixture(t)

		root, err := svc.Create(ctx, actor, post.ID, nil, "first!")
		require.NoError(t, err)
		assert.Nil(t, root.ParentID)

		reply, err := svc.Create(ctx, actor, post.ID, &root.ID, "reply")
		require.NoError(t, err)
		assert.Equal(t, root.ID, *reply.ParentID)

		assert.Equal(t, []string{domain.EventCommentCreated, domain.EventCommentCreated}, emitter.Types())
	})

	t.Run("missing post", func(t *testing.T) {
		svc, _, _, _ := newCommentFixture(t)
		_, err := svc.Create(ctx, actor, uuid.New(), nil, "hi")
		assert.ErrorIs(t, err, store.ErrPostNotFound)
	})

	t.Run("parent on another post", func(t *testing.T) {
		svc, comments, post, _ := newCommentFixture(t)
		foreign, err := domain.NewComment(uuid.New(), actor.ID, nil, "elsewhere")
		require.NoError(t, err)
		comments.Add(foreign)

		_, err = svc.Create(ctx, actor, post.ID, &foreign.ID, "reply")
		assert.ErrorIs(t, err, ErrInvalidReference)
	})

	t.Run("missing parent", func(t *testing.T) {
		svc, _, post, _ := newCommentFixture(t)
		missing := uuid.New()
		_, err := svc.Create(ctx, actor, post.ID, &missing, "reply")
		assert.ErrorIs(t, err, ErrInvalidReference)
	})

	t.Run("empty content", func(t *testing.T) {
		svc, _, post, _ := newCommentFixture(t)
		_, err := svc.Create(ctx, actor, post.ID, nil, "")
		assert.ErrorIs(t, err, domain.ErrEmptyContent)
	})
}

func TestCommentService_ListForPost(t *testing.T) {
	ctx := context.Background()
	svc, comments, post, _ := newCommentFixture(t)
	actor := Actor{ID: uuid.New(), Role: domain.RoleUser}

	visible, err := svc.Create(ctx, actor, post.ID, nil, "visible")
	require.NoError(t, err)
	hidden, err := svc.Create(ctx, actor, post.ID, nil, "hidden")
	require.NoError(t, err)
	require.NoError(t, comments.SetHidden(ctx, hidden.ID, true))

	list, total, err := svc.ListForPost(ctx, actor, post.ID, store.NewPage(1, 20, "", false))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, visible.ID, list[0].ID)

	_, total, err = svc.ListForPost(ctx, moderatorActor(), post.ID, store.NewPage(1, 20, "", false))
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, _, err = svc.ListForPost(ctx, actor, uuid.New(), store.NewPage(1, 20, "", false))
	assert.ErrorIs(t, err, store.ErrPostNotFound)
}

func TestCommentService_HiddenPost(t *testing.T) {
	ctx := context.Background()
	author := Actor{ID: uuid.New(), Role: domain.RoleUser}
	stranger := Actor{ID: uuid.New(), Role: domain.RoleUser}

	tests := []struct {
		name    string
		status  domain.PostStatus
		flagged bool
	}{
		{name: "draft", status: domain.PostStatusDraft},
		{name: "flagged", status: domain.PostStatusPublished, flagged: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts := mocks.NewMockPostStore()
			comments := mocks.NewMockCommentStore()
			emitter := &mocks.RecordingEmitter{}
			post, err := domain.NewPost(author.ID, "Hidden", "hidden", "body", nil, tt.status)
			require.NoError(t, err)
			post.Flagged = tt.flagged
			posts.Add(post)
			svc := NewCommentService(comments, posts, emitter, discardLogger())

			_, err = svc.Create(ctx, stranger, post.ID, nil, "peek")
			assert.ErrorIs(t, err, store.ErrPostNotFound)
			_, _, err = svc.ListForPost(ctx, stranger, post.ID, store.NewPage(1, 20, "", false))
			assert.ErrorIs(t, err, store.ErrPostNotFound)
			assert.Empty(t, emitter.Types())

			_, err = svc.Create(ctx, author, post.ID, nil, "mine")
			require.NoError(t, err)
			_, total, err := svc.ListForPost(ctx, moderatorActor(), post.ID, store.NewPage(1, 20, "", false))
			require.NoError(t, err)
			assert.Equal(t, 1, total)
		})
	}
}

func TestCommentService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, comments, post, _ := newCommentFixture(t)
	author := Actor{ID: uuid.New(), Role: domain.RoleUser}

	c, err := svc.Create(ctx, author, post.ID, nil, "mine")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, Actor{ID: uuid.New(), Role: domain.RoleUser}, c.ID), ErrNotOwned)
	require.NoError(t, svc.Delete(ctx, moderatorActor(), c.ID))
	assert.Nil(t, comments.Get(c.ID))
	assert.ErrorIs(t, svc.Delete(ctx, author, c.ID), store.ErrCommentNotFound)
}
