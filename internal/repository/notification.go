package repository

import (
	"context"
	"time"

	"dajtovon/internal/models"
	"dajtovon/internal/observability"

	"gorm.io/gorm"
)

// NotificationRepository is the per-recipient notification log.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	// ListByRecipient returns newest first; limit <= 0 returns everything.
	ListByRecipient(ctx context.Context, recipient string, limit int) ([]*models.Notification, error)
	GetByID(ctx context.Context, id uint) (*models.Notification, error)
	// MarkRead sets read=true when id belongs to recipient and reports whether
	// such a row exists.
	MarkRead(ctx context.Context, id uint, recipient string) (bool, error)
	MarkAllRead(ctx context.Context, recipient string) (int64, error)
	CountUnread(ctx context.Context, recipient string) (int64, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type notificationRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db, log: observability.NewRepoLogger("notifications")}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	defer observability.TrackQuery("insert", "notifications")()

	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogCreate(ctx, map[string]any{"notification_id": n.ID, "recipient": n.Recipient, "kind": n.Kind})
	return nil
}

// Insertion order is the ID order, so the log reads newest first off the
// (recipient, id) index.
func (r *notificationRepository) ListByRecipient(ctx context.Context, recipient string, limit int) ([]*models.Notification, error) {
	defer observability.TrackQuery("select", "notifications")()

	q := r.db.WithContext(ctx).Where("recipient = ?", recipient).Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	notifications := make([]*models.Notification, 0)
	err := q.Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	defer observability.TrackQuery("select", "notifications")()

	var n models.Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uint, recipient string) (bool, error) {
	defer observability.TrackQuery("update", "notifications")()

	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient = ?", id, recipient).
		Update("read", true)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "mark_read")
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipient string) (int64, error) {
	defer observability.TrackQuery("update", "notifications")()

	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient = ? AND read = ?", recipient, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipient string) (int64, error) {
	defer observability.TrackQuery("count", "notifications")()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient = ? AND read = ?", recipient, false).
		Count(&count).Error
	return count, err
}

// DeleteReadBefore prunes read notifications created before cutoff.
func (r *notificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	defer observability.TrackQuery("delete", "notifications")()

	res := r.db.WithContext(ctx).
		Where("read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete_read_before")
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		r.log.LogDelete(ctx, map[string]any{"count": res.RowsAffected, "cutoff": cutoff})
	}
	return res.RowsAffected, nil
}
