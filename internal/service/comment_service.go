package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"dajtovon/internal/cache"
	"dajtovon/internal/models"
	"dajtovon/internal/repository"

	"github.com/google/uuid"
)

const maxCommentLen = 2000

type CommentService struct {
	commentRepo  repository.CommentRepository
	contentRepo  repository.ContentRepository
	notifier     Emitter
	locks        *KeyedMutex
	storeTimeout time.Duration
}

type CreateCommentInput struct {
	Author    string
	ContentID string
	Text      string
}

type UpdateCommentInput struct {
	Actor     string
	ContentID string
	CommentID string
	Text      string
}

type DeleteCommentInput struct {
	Actor     string
	ContentID string
	CommentID string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	contentRepo repository.ContentRepository,
	notifier Emitter,
	locks *KeyedMutex,
	storeTimeout time.Duration,
) *CommentService {
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &CommentService{
		commentRepo:  commentRepo,
		contentRepo:  contentRepo,
		notifier:     notifier,
		locks:        locks,
		storeTimeout: storeTimeout,
	}
}

func validateCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", models.NewValidationError("Comment text is required")
	}
	if utf8.RuneCountInString(text) > maxCommentLen {
		return "", models.NewValidationError("Comment too long (max 2000 characters)")
	}
	return text, nil
}

// CreateComment stores a comment and notifies the content author.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.Author == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	text, err := validateCommentText(in.Text)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	content, err := s.contentRepo.GetByID(storeCtx, in.ContentID)
	if err != nil {
		return nil, storeError(err, "Content", in.ContentID)
	}

	comment := &models.Comment{
		ID:        uuid.NewString(),
		ContentID: in.ContentID,
		Author:    in.Author,
		Text:      text,
	}
	if err := s.commentRepo.Create(storeCtx, comment); err != nil {
		return nil, models.NewStoreError(err)
	}
	cache.InvalidateStats(ctx, in.ContentID)

	if s.notifier != nil {
		if _, err := s.notifier.Emit(ctx, Event{
			Kind:         models.NotificationComment,
			Actor:        in.Author,
			Recipient:    content.Author,
			ContentID:    content.ID,
			CommentID:    comment.ID,
			ContentTitle: content.Topic,
			TargetType:   models.TargetContent,
		}); err != nil {
			return nil, err
		}
	}
	return comment, nil
}

func (s *CommentService) ListComments(ctx context.Context, contentID string) ([]*models.Comment, error) {
	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	if _, err := s.contentRepo.GetByID(storeCtx, contentID); err != nil {
		return nil, storeError(err, "Content", contentID)
	}
	comments, err := s.commentRepo.ListByContent(storeCtx, contentID)
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	return comments, nil
}

func (s *CommentService) ownedComment(ctx context.Context, actor, contentID, commentID, verb string) (*models.Comment, error) {
	if actor == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	comment, err := s.commentRepo.GetByID(ctx, contentID, commentID)
	if err != nil {
		return nil, storeError(err, "Comment", commentID)
	}
	if comment.Author != actor {
		return nil, models.NewForbiddenError("You can only " + verb + " your own comments")
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	text, err := validateCommentText(in.Text)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	comment, err := s.ownedComment(storeCtx, in.Actor, in.ContentID, in.CommentID, "update")
	if err != nil {
		return nil, err
	}

	comment.Text = text
	comment.UpdatedAt = time.Now()
	if err := s.commentRepo.UpdateText(storeCtx, comment); err != nil {
		return nil, storeError(err, "Comment", in.CommentID)
	}
	cache.InvalidateStats(ctx, in.ContentID)
	return comment, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	unlock := s.locks.Lock(contentKey(in.ContentID))
	defer unlock()

	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	comment, err := s.ownedComment(storeCtx, in.Actor, in.ContentID, in.CommentID, "delete")
	if err != nil {
		return nil, err
	}
	if err := s.commentRepo.Delete(storeCtx, in.ContentID, in.CommentID); err != nil {
		return nil, storeError(err, "Comment", in.CommentID)
	}
	cache.InvalidateStats(ctx, in.ContentID)
	return comment, nil
}
