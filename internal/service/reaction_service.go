package service

import (
	"context"
	"time"

	"dajtovon/internal/cache"
	"dajtovon/internal/models"
	"dajtovon/internal/observability"
	"dajtovon/internal/reaction"
	"dajtovon/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

type ReactionService struct {
	contentRepo  repository.ContentRepository
	commentRepo  repository.CommentRepository
	reactionRepo repository.ReactionRepository
	notifier     Emitter
	locks        *KeyedMutex
	storeTimeout time.Duration
}

// ReactInput addresses a content item, or one of its comments when CommentID is set.
type ReactInput struct {
	Actor     string
	ContentID string
	CommentID string
	Action    reaction.Action
}

type ReactResult struct {
	State    reaction.State `json:"state"`
	Changed  bool           `json:"changed"`
	Likes    int64          `json:"likes"`
	Dislikes int64          `json:"dislikes"`
}

func NewReactionService(
	contentRepo repository.ContentRepository,
	commentRepo repository.CommentRepository,
	reactionRepo repository.ReactionRepository,
	notifier Emitter,
	locks *KeyedMutex,
	storeTimeout time.Duration,
) *ReactionService {
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &ReactionService{
		contentRepo:  contentRepo,
		commentRepo:  commentRepo,
		reactionRepo: reactionRepo,
		notifier:     notifier,
		locks:        locks,
		storeTimeout: storeTimeout,
	}
}

// React applies the actor's action to the target and, when a like or dislike
// changed the actor's state, notifies the owner of the target.
func (s *ReactionService) React(ctx context.Context, in ReactInput) (_ *ReactResult, err error) {
	if in.Actor == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	action, err := reaction.ParseAction(string(in.Action))
	if err != nil {
		return nil, models.NewValidationError("Unknown reaction action")
	}

	target := repository.ContentTarget(in.ContentID)
	if in.CommentID != "" {
		target = repository.CommentTarget(in.CommentID)
	}

	ctx, span := observability.StartSpan(ctx, "reactions.react",
		attribute.String("reaction.target_type", target.Type),
		attribute.String("reaction.target_id", target.ID),
		attribute.String("reaction.action", string(action)),
	)
	defer func() { observability.EndSpan(span, err) }()

	outcome := "error"
	defer func() {
		observability.ReactionsTotal.WithLabelValues(target.Type, string(action), outcome).Inc()
	}()

	// Held across the existence checks and the write so a concurrent delete
	// of the content or comment cannot leave an orphaned reaction behind.
	unlock := s.locks.Lock(contentKey(in.ContentID))
	defer unlock()

	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	content, err := s.contentRepo.GetByID(storeCtx, in.ContentID)
	if err != nil {
		return nil, storeError(err, "Content", in.ContentID)
	}
	recipient := content.Author
	if in.CommentID != "" {
		comment, err := s.commentRepo.GetByID(storeCtx, in.ContentID, in.CommentID)
		if err != nil {
			return nil, storeError(err, "Comment", in.CommentID)
		}
		recipient = comment.Author
	}

	tr, err := s.reactionRepo.Mutate(storeCtx, target, in.Actor, func(current reaction.State) (reaction.Transition, error) {
		return reaction.Apply(storeCtx, current, action)
	})
	if err != nil {
		return nil, storeError(err, "Reaction", target.ID)
	}
	if tr.Changed() {
		cache.InvalidateStats(ctx, in.ContentID)
	}

	counts, err := s.reactionRepo.Counts(storeCtx, target.Type, []string{target.ID})
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	c := counts[target.ID]

	if tr.Notifies() && s.notifier != nil {
		kind := models.NotificationLike
		if tr.To == reaction.Disliked {
			kind = models.NotificationDislike
		}
		_, err := s.notifier.Emit(ctx, Event{
			Kind:         kind,
			Actor:        in.Actor,
			Recipient:    recipient,
			ContentID:    in.ContentID,
			CommentID:    in.CommentID,
			ContentTitle: content.Topic,
			TargetType:   target.Type,
		})
		if err != nil {
			return nil, err
		}
	}

	outcome = "unchanged"
	if tr.Changed() {
		outcome = "changed"
	}
	return &ReactResult{State: tr.To, Changed: tr.Changed(), Likes: c.Likes, Dislikes: c.Dislikes}, nil
}

// Sets returns the like and dislike sets of a target.
func (s *ReactionService) Sets(ctx context.Context, contentID, commentID string) (reaction.Sets, error) {
	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	if _, err := s.contentRepo.GetByID(storeCtx, contentID); err != nil {
		return reaction.Sets{}, storeError(err, "Content", contentID)
	}
	target := repository.ContentTarget(contentID)
	if commentID != "" {
		if _, err := s.commentRepo.GetByID(storeCtx, contentID, commentID); err != nil {
			return reaction.Sets{}, storeError(err, "Comment", commentID)
		}
		target = repository.CommentTarget(commentID)
	}

	sets, err := s.reactionRepo.Sets(storeCtx, target)
	if err != nil {
		return reaction.Sets{}, models.NewStoreError(err)
	}
	return sets, nil
}
