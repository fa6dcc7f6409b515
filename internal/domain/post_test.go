package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPost(t *testing.T) {
	author := uuid.New()

	t.Run("defaults to draft", func(t *testing.T) {
		p, err := NewPost(author, "Hello", "hello", "body", []string{"go"}, "")
		require.NoError(t, err)
		assert.Equal(t, PostStatusDraft, p.Status)
		assert.Nil(t, p.PublishedAt)
	})

	t.Run("published stamps published_at", func(t *testing.T) {
		p, err := NewPost(author, "Hello", "hello", "body", []string{"go"}, PostStatusPublished)
		require.NoError(t, err)
		require.NotNil(t, p.PublishedAt)
	})

	tests := []struct {
		name    string
		title   string
		content string
		tags    []string
		status  PostStatus
		want    error
	}{
		{"empty title", "", "body", []string{"a"}, "", ErrEmptyTitle},
		{"empty content", "T", "", []string{"a"}, "", ErrEmptyContent},
		{"no tags", "T", "body", nil, "", ErrMissingTags},
		{"too many tags", "T", "body", make([]string, 11), "", ErrTooManyTags},
		{"bad status", "T", "body", []string{"a"}, "live", ErrInvalidPostStatus},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPost(author, tc.title, "slug", tc.content, tc.tags, tc.status)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestPostSetStatus(t *testing.T) {
	p, err := NewPost(uuid.New(), "T", "t", "body", []string{"a"}, PostStatusDraft)
	require.NoError(t, err)
	now := time.Now()

	published, err := p.SetStatus(PostStatusPublished, now)
	require.NoError(t, err)
	assert.True(t, published)
	require.NotNil(t, p.PublishedAt)
	first := *p.PublishedAt

	published, err = p.SetStatus(PostStatusPublished, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, published, "already published")
	assert.Equal(t, first, *p.PublishedAt)

	_, err = p.SetStatus("bogus", now)
	assert.ErrorIs(t, err, ErrInvalidPostStatus)
}

func TestWebhookSubscribes(t *testing.T) {
	_, err := NewWebhook(uuid.New(), "https://example.com/hook", []string{"nope"}, "", true)
	assert.ErrorIs(t, err, ErrInvalidWebhookEvent)

	w, err := NewWebhook(uuid.New(), "https://example.com/hook", []string{EventPostPublished}, "", true)
	require.NoError(t, err)
	assert.True(t, w.Subscribes(EventPostPublished))
	assert.False(t, w.Subscribes(EventCommentCreated))

	w.Active = false
	assert.False(t, w.Subscribes(EventPostPublished))
}

func TestAPIKey(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	k := &APIKey{Scopes: []string{"posts:read"}}

	assert.False(t, k.Expired(now))
	k.ExpiresAt = &past
	assert.True(t, k.Expired(now))

	assert.True(t, k.HasScope("posts:read"))
	assert.False(t, k.HasScope("posts:write"))
	k.Scopes = []string{"*"}
	assert.True(t, k.HasScope("posts:write"))
}

func TestParseModerationAction(t *testing.T) {
	a, err := ParseModerationAction("FLAG")
	require.NoError(t, err)
	assert.Equal(t, ModerationFlag, a)

	_, err = ParseModerationAction("burn")
	assert.ErrorIs(t, err, ErrInvalidModerationAction)
}
