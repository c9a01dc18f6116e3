// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Content is a published item. Reactions and comments hang off its ID.
type Content struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	Author   string `gorm:"not null;index;size:64" json:"author"`
	Topic    string `gorm:"not null;size:200" json:"topic"`
	Body     string `gorm:"type:text;not null" json:"content"`
	Category string `gorm:"index;size:64" json:"category"`
	// Views only ever grows; it is bumped with an in-place increment.
	Views     int64     `gorm:"not null;default:0" json:"views"`
	Comments  []Comment `gorm:"foreignKey:ContentID" json:"comments,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment belongs to exactly one content item and has no lifecycle of its own.
type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ContentID string    `gorm:"not null;index;size:36" json:"content_id"`
	Author    string    `gorm:"not null;size:64" json:"author"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReactionCounts summarizes the like and dislike sets of one target.
type ReactionCounts struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}

// CommentStats is a comment together with its reaction summary.
type CommentStats struct {
	Comment
	ReactionCounts
	UserReaction string `json:"user_reaction,omitempty"`
}

// ContentStats is the cached read model served by the stats endpoint.
type ContentStats struct {
	ContentID string `json:"content_id"`
	Topic     string `json:"topic"`
	Author    string `json:"author"`
	Views     int64  `json:"views"`
	ReactionCounts
	Comments []CommentStats `json:"comments"`
	// UserReaction is filled per request and never cached.
	UserReaction string `json:"user_reaction,omitempty"`
}
