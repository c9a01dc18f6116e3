package models

import "time"

// Target types a reaction or notification can refer to.
const (
	TargetContent = "content"
	TargetComment = "comment"
)

// Reaction kinds stored per (target, actor). Neutral is the absence of a row.
const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// Reaction is one actor's current stance on one target. The unique index keeps
// the like and dislike sets of a target mutually exclusive.
type Reaction struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TargetType string    `gorm:"not null;size:16;uniqueIndex:idx_reaction_target_actor,priority:1" json:"target_type"`
	TargetID   string    `gorm:"not null;size:36;uniqueIndex:idx_reaction_target_actor,priority:2" json:"target_id"`
	Actor      string    `gorm:"not null;size:64;uniqueIndex:idx_reaction_target_actor,priority:3" json:"actor"`
	Kind       string    `gorm:"not null;size:16" json:"kind"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
