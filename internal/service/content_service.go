package service

import (
	"context"
	"strings"
	"time"

	"dajtovon/internal/cache"
	"dajtovon/internal/models"
	"dajtovon/internal/reaction"
	"dajtovon/internal/repository"
	"dajtovon/internal/validation"

	"github.com/google/uuid"
)

const (
	maxTopicLen = 200
	maxBodyLen  = 50000
)

type ContentService struct {
	contentRepo  repository.ContentRepository
	commentRepo  repository.CommentRepository
	reactionRepo repository.ReactionRepository
	locks        *KeyedMutex
	storeTimeout time.Duration
	statsTTL     time.Duration
}

type CreateContentInput struct {
	Author   string
	Topic    string
	Body     string
	Category string
}

type UpdateContentInput struct {
	Actor     string
	ContentID string
	Topic     string
	Body      string
	Category  string
}

type ListContentInput struct {
	Category string
	Author   string
	Limit    int
	Offset   int
}

func NewContentService(
	contentRepo repository.ContentRepository,
	commentRepo repository.CommentRepository,
	reactionRepo repository.ReactionRepository,
	locks *KeyedMutex,
	storeTimeout, statsTTL time.Duration,
) *ContentService {
	if statsTTL <= 0 {
		statsTTL = cache.StatsTTL
	}
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &ContentService{
		contentRepo:  contentRepo,
		commentRepo:  commentRepo,
		reactionRepo: reactionRepo,
		locks:        locks,
		storeTimeout: storeTimeout,
		statsTTL:     statsTTL,
	}
}

func validateContent(topic, body, category string) error {
	if topic == "" {
		return models.NewValidationError("Topic is required")
	}
	if len(topic) > maxTopicLen {
		return models.NewValidationError("Topic too long (max 200 characters)")
	}
	if body == "" {
		return models.NewValidationError("Content is required")
	}
	if len(body) > maxBodyLen {
		return models.NewValidationError("Content too long (max 50000 characters)")
	}
	if err := validation.ValidateCategory(category); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

func (s *ContentService) CreateContent(ctx context.Context, in CreateContentInput) (*models.Content, error) {
	if in.Author == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	topic := strings.TrimSpace(in.Topic)
	category := strings.TrimSpace(in.Category)
	if err := validateContent(topic, in.Body, category); err != nil {
		return nil, err
	}

	content := &models.Content{
		ID:       uuid.NewString(),
		Author:   in.Author,
		Topic:    topic,
		Body:     in.Body,
		Category: category,
	}

	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.contentRepo.Create(storeCtx, content); err != nil {
		return nil, models.NewStoreError(err)
	}
	return content, nil
}

func (s *ContentService) ListContent(ctx context.Context, in ListContentInput) ([]*models.Content, error) {
	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	list, err := s.contentRepo.List(storeCtx, repository.ContentFilter{
		Category: strings.TrimSpace(in.Category),
		Author:   strings.TrimSpace(in.Author),
		Limit:    in.Limit,
		Offset:   in.Offset,
	})
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	return list, nil
}

func (s *ContentService) GetContent(ctx context.Context, id string) (*models.Content, error) {
	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	content, err := s.contentRepo.GetByID(storeCtx, id)
	if err != nil {
		return nil, storeError(err, "Content", id)
	}
	return content, nil
}

// ownedContent loads a content item and checks that actor wrote it.
func (s *ContentService) ownedContent(ctx context.Context, actor, id, verb string) (*models.Content, error) {
	if actor == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	content, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Content", id)
	}
	if content.Author != actor {
		return nil, models.NewForbiddenError("You can only " + verb + " your own content")
	}
	return content, nil
}

func (s *ContentService) UpdateContent(ctx context.Context, in UpdateContentInput) (*models.Content, error) {
	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	content, err := s.ownedContent(storeCtx, in.Actor, in.ContentID, "update")
	if err != nil {
		return nil, err
	}

	if in.Topic != "" {
		content.Topic = strings.TrimSpace(in.Topic)
	}
	if in.Body != "" {
		content.Body = in.Body
	}
	if in.Category != "" {
		content.Category = strings.TrimSpace(in.Category)
	}
	if err := validateContent(content.Topic, content.Body, content.Category); err != nil {
		return nil, err
	}

	if err := s.contentRepo.Update(storeCtx, content); err != nil {
		return nil, storeError(err, "Content", in.ContentID)
	}
	cache.InvalidateStats(ctx, in.ContentID)
	return content, nil
}

// DeleteContent removes a content item with its comments and reactions.
// Notifications about it are kept.
func (s *ContentService) DeleteContent(ctx context.Context, actor, id string) error {
	unlock := s.locks.Lock(contentKey(id))
	defer unlock()

	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	if _, err := s.ownedContent(storeCtx, actor, id, "delete"); err != nil {
		return err
	}
	if err := s.contentRepo.Delete(storeCtx, id); err != nil {
		return storeError(err, "Content", id)
	}
	cache.InvalidateStats(ctx, id)
	return nil
}

// RecordView bumps the view counter and returns the new value.
func (s *ContentService) RecordView(ctx context.Context, id string) (int64, error) {
	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	views, err := s.contentRepo.IncrementViews(storeCtx, id)
	if err != nil {
		return 0, storeError(err, "Content", id)
	}
	cache.InvalidateStats(ctx, id)
	return views, nil
}

// Stats returns views, reaction counts and comments of a content item. The
// document is cached; the viewer's own reactions are added afterwards.
func (s *ContentService) Stats(ctx context.Context, id, viewer string) (*models.ContentStats, error) {
	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	var stats models.ContentStats
	err := cache.Aside(ctx, cache.StatsKey(id), &stats, s.statsTTL, func() error {
		return s.loadStats(storeCtx, id, &stats)
	})
	if err != nil {
		return nil, storeError(err, "Content", id)
	}

	if viewer == "" {
		return &stats, nil
	}

	contentStates, err := s.reactionRepo.States(storeCtx, models.TargetContent, []string{id}, viewer)
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	stats.UserReaction = string(stateOrNeutral(contentStates, id))

	if len(stats.Comments) > 0 {
		ids := make([]string, len(stats.Comments))
		for i, c := range stats.Comments {
			ids[i] = c.ID
		}
		commentStates, err := s.reactionRepo.States(storeCtx, models.TargetComment, ids, viewer)
		if err != nil {
			return nil, models.NewStoreError(err)
		}
		for i := range stats.Comments {
			stats.Comments[i].UserReaction = string(stateOrNeutral(commentStates, stats.Comments[i].ID))
		}
	}
	return &stats, nil
}

func stateOrNeutral(states map[string]reaction.State, id string) reaction.State {
	if st, ok := states[id]; ok {
		return st
	}
	return reaction.Neutral
}

func (s *ContentService) loadStats(ctx context.Context, id string, out *models.ContentStats) error {
	content, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	comments, err := s.commentRepo.ListByContent(ctx, id)
	if err != nil {
		return err
	}
	counts, err := s.reactionRepo.Counts(ctx, models.TargetContent, []string{id})
	if err != nil {
		return err
	}

	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	commentCounts := map[string]models.ReactionCounts{}
	if len(ids) > 0 {
		if commentCounts, err = s.reactionRepo.Counts(ctx, models.TargetComment, ids); err != nil {
			return err
		}
	}

	*out = models.ContentStats{
		ContentID:      content.ID,
		Topic:          content.Topic,
		Author:         content.Author,
		Views:          content.Views,
		ReactionCounts: counts[id],
		Comments:       make([]models.CommentStats, 0, len(comments)),
	}
	for _, c := range comments {
		out.Comments = append(out.Comments, models.CommentStats{
			Comment:        *c,
			ReactionCounts: commentCounts[c.ID],
		})
	}
	return nil
}
