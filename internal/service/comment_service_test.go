package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"dajtovon/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_CreateComment_Validation(t *testing.T) {
	t.Parallel()

	svc := NewCommentService(commentsOn("c1", nil), contentOwnedBy("c1", "bob"), &emitterStub{}, nil, time.Second)
	ctx := context.Background()

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreateComment(ctx, CreateCommentInput{Author: "alice", ContentID: "c1", Text: "   "})
		assertValidationError(t, err)
	})

	t.Run("text too long", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreateComment(ctx, CreateCommentInput{
			Author:    "alice",
			ContentID: "c1",
			Text:      strings.Repeat("x", 2001),
		})
		assertValidationError(t, err)
	})

	t.Run("content not found", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreateComment(ctx, CreateCommentInput{Author: "alice", ContentID: "c9", Text: "hi"})
		assertCode(t, err, models.CodeNotFound)
	})

	t.Run("anonymous", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreateComment(ctx, CreateCommentInput{ContentID: "c1", Text: "hi"})
		assertUnauthorizedError(t, err)
	})
}

func TestCommentService_CreateNotifiesContentAuthor(t *testing.T) {
	t.Parallel()

	emitter := &emitterStub{}
	svc := NewCommentService(commentsOn("c1", nil), contentOwnedBy("c1", "bob"), emitter, nil, time.Second)

	comment, err := svc.CreateComment(context.Background(), CreateCommentInput{
		Author: "alice", ContentID: "c1", Text: "  first!  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "first!", comment.Text)
	assert.NotEmpty(t, comment.ID)

	events := emitter.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, Event{
		Kind:         models.NotificationComment,
		Actor:        "alice",
		Recipient:    "bob",
		ContentID:    "c1",
		CommentID:    comment.ID,
		ContentTitle: "Topic c1",
		TargetType:   models.TargetContent,
	}, events[0])
}

func TestCommentService_UpdateAndDelete_AuthorOnly(t *testing.T) {
	t.Parallel()

	comments := commentsOn("c1", map[string]string{"k1": "alice"})
	var updated *models.Comment
	comments.updateTextFn = func(_ context.Context, c *models.Comment) error {
		updated = c
		return nil
	}
	svc := NewCommentService(comments, contentOwnedBy("c1", "bob"), nil, nil, time.Second)
	ctx := context.Background()

	_, err := svc.UpdateComment(ctx, UpdateCommentInput{Actor: "bob", ContentID: "c1", CommentID: "k1", Text: "x"})
	assertCode(t, err, models.CodeForbidden)

	_, err = svc.DeleteComment(ctx, DeleteCommentInput{Actor: "bob", ContentID: "c1", CommentID: "k1"})
	assertCode(t, err, models.CodeForbidden)

	_, err = svc.UpdateComment(ctx, UpdateCommentInput{Actor: "alice", ContentID: "c1", CommentID: "k1", Text: ""})
	assertValidationError(t, err)

	got, err := svc.UpdateComment(ctx, UpdateCommentInput{Actor: "alice", ContentID: "c1", CommentID: "k1", Text: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Text)
	require.NotNil(t, updated)
	assert.Equal(t, "edited", updated.Text)

	_, err = svc.DeleteComment(ctx, DeleteCommentInput{Actor: "alice", ContentID: "c2", CommentID: "k1"})
	assertCode(t, err, models.CodeNotFound)

	deleted, err := svc.DeleteComment(ctx, DeleteCommentInput{Actor: "alice", ContentID: "c1", CommentID: "k1"})
	require.NoError(t, err)
	assert.Equal(t, "k1", deleted.ID)
}

func TestCommentService_ListComments(t *testing.T) {
	t.Parallel()

	comments := commentsOn("c1", nil)
	comments.listByContentFn = func(context.Context, string) ([]*models.Comment, error) {
		return []*models.Comment{{ID: "k2"}, {ID: "k1"}}, nil
	}
	svc := NewCommentService(comments, contentOwnedBy("c1", "bob"), nil, nil, time.Second)

	list, err := svc.ListComments(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.ListComments(context.Background(), "nope")
	assertCode(t, err, models.CodeNotFound)
}
