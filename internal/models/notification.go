package models

import "time"

// Notification kinds.
const (
	NotificationLike    = "like"
	NotificationDislike = "dislike"
	NotificationComment = "comment"
)

// Notification is immutable after creation except for Read. ContentTitle is a
// snapshot so the entry stays meaningful after the content is edited or deleted.
type Notification struct {
	ID           uint      `gorm:"primaryKey;index:idx_notification_recipient,priority:2" json:"id"`
	Kind         string    `gorm:"not null;size:16" json:"kind"`
	Actor        string    `gorm:"not null;size:64" json:"actor"`
	Recipient    string    `gorm:"not null;size:64;index:idx_notification_recipient,priority:1" json:"recipient"`
	ContentID    string    `gorm:"not null;size:36" json:"content_id"`
	CommentID    string    `gorm:"size:36" json:"comment_id,omitempty"`
	ContentTitle string    `gorm:"size:200" json:"content_title"`
	TargetType   string    `gorm:"not null;size:16" json:"target_type"`
	Read         bool      `gorm:"not null;default:false;index" json:"read"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}
