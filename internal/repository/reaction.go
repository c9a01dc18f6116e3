package repository

import (
	"context"

	"dajtovon/internal/models"
	"dajtovon/internal/observability"
	"dajtovon/internal/reaction"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Target addresses a content item or a comment.
type Target struct {
	Type string
	ID   string
}

// ContentTarget addresses a content item.
func ContentTarget(id string) Target {
	return Target{Type: models.TargetContent, ID: id}
}

// CommentTarget addresses a comment. Comment IDs are globally unique, so the
// owning content ID is not part of the key.
func CommentTarget(id string) Target {
	return Target{Type: models.TargetComment, ID: id}
}

// DecideFunc computes the transition for the actor's current state.
type DecideFunc func(current reaction.State) (reaction.Transition, error)

// ReactionRepository stores one row per (target, actor) with the reaction kind.
type ReactionRepository interface {
	// Mutate loads the actor's state, asks decide for the transition and
	// writes the new state, all inside one transaction. The write is a single
	// upsert or delete.
	Mutate(ctx context.Context, target Target, actor string, decide DecideFunc) (reaction.Transition, error)
	State(ctx context.Context, target Target, actor string) (reaction.State, error)
	Sets(ctx context.Context, target Target) (reaction.Sets, error)
	Counts(ctx context.Context, targetType string, ids []string) (map[string]models.ReactionCounts, error)
	States(ctx context.Context, targetType string, ids []string, actor string) (map[string]reaction.State, error)
}

type reactionRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewReactionRepository creates a new ReactionRepository.
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db, log: observability.NewRepoLogger("reactions")}
}

func (r *reactionRepository) Mutate(ctx context.Context, target Target, actor string, decide DecideFunc) (reaction.Transition, error) {
	defer observability.TrackQuery("mutate", "reactions")()

	var tr reaction.Transition
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := loadState(tx, target, actor)
		if err != nil {
			return err
		}
		tr, err = decide(current)
		if err != nil {
			return err
		}
		if !tr.Changed() {
			return nil
		}
		return writeState(tx, target, actor, tr.To)
	})
	if err != nil {
		r.log.LogError(ctx, err, "mutate")
		return reaction.Transition{}, err
	}
	if tr.Changed() {
		r.log.LogUpdate(ctx, map[string]any{
			"target_type": target.Type,
			"target_id":   target.ID,
			"actor":       actor,
			"from":        string(tr.From),
			"to":          string(tr.To),
		})
	}
	return tr, nil
}

func loadState(tx *gorm.DB, target Target, actor string) (reaction.State, error) {
	var row models.Reaction
	err := tx.Where("target_type = ? AND target_id = ? AND actor = ?", target.Type, target.ID, actor).
		Take(&row).Error
	if IsNotFound(err) {
		return reaction.Neutral, nil
	}
	if err != nil {
		return "", err
	}
	return reaction.StateFromKind(row.Kind), nil
}

func writeState(tx *gorm.DB, target Target, actor string, state reaction.State) error {
	if state == reaction.Neutral {
		return tx.Where("target_type = ? AND target_id = ? AND actor = ?", target.Type, target.ID, actor).
			Delete(&models.Reaction{}).Error
	}

	row := models.Reaction{
		TargetType: target.Type,
		TargetID:   target.ID,
		Actor:      actor,
		Kind:       state.Kind(),
	}
	// Moving between the like and dislike sets is one statement.
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "target_type"}, {Name: "target_id"}, {Name: "actor"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "updated_at"}),
	}).Create(&row).Error
}

func (r *reactionRepository) State(ctx context.Context, target Target, actor string) (reaction.State, error) {
	defer observability.TrackQuery("select", "reactions")()
	return loadState(r.db.WithContext(ctx), target, actor)
}

// Sets returns the like and dislike sets of a target in reaction order.
func (r *reactionRepository) Sets(ctx context.Context, target Target) (reaction.Sets, error) {
	defer observability.TrackQuery("select", "reactions")()

	var rows []models.Reaction
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", target.Type, target.ID).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return reaction.Sets{}, err
	}

	sets := reaction.Sets{Likes: []string{}, Dislikes: []string{}}
	for _, row := range rows {
		switch row.Kind {
		case models.ReactionLike:
			sets.Likes = append(sets.Likes, row.Actor)
		case models.ReactionDislike:
			sets.Dislikes = append(sets.Dislikes, row.Actor)
		}
	}
	return sets, nil
}

type countRow struct {
	TargetID string
	Kind     string
	Total    int64
}

// Counts returns like/dislike counts keyed by target ID. IDs without any
// reaction are present with zero counts.
func (r *reactionRepository) Counts(ctx context.Context, targetType string, ids []string) (map[string]models.ReactionCounts, error) {
	out := make(map[string]models.ReactionCounts, len(ids))
	for _, id := range ids {
		out[id] = models.ReactionCounts{}
	}
	if len(ids) == 0 {
		return out, nil
	}

	defer observability.TrackQuery("select", "reactions")()

	var rows []countRow
	err := r.db.WithContext(ctx).
		Model(&models.Reaction{}).
		Select("target_id, kind, COUNT(*) AS total").
		Where("target_type = ? AND target_id IN ?", targetType, ids).
		Group("target_id, kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		c := out[row.TargetID]
		switch row.Kind {
		case models.ReactionLike:
			c.Likes = row.Total
		case models.ReactionDislike:
			c.Dislikes = row.Total
		}
		out[row.TargetID] = c
	}
	return out, nil
}

// States returns actor's non-neutral states keyed by target ID.
func (r *reactionRepository) States(ctx context.Context, targetType string, ids []string, actor string) (map[string]reaction.State, error) {
	out := make(map[string]reaction.State)
	if len(ids) == 0 || actor == "" {
		return out, nil
	}

	defer observability.TrackQuery("select", "reactions")()

	var rows []models.Reaction
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id IN ? AND actor = ?", targetType, ids, actor).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.TargetID] = reaction.StateFromKind(row.Kind)
	}
	return out, nil
}
