package repository

import (
	"context"

	"dajtovon/internal/models"
	"dajtovon/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, contentID, commentID string) (*models.Comment, error)
	ListByContent(ctx context.Context, contentID string) ([]*models.Comment, error)
	UpdateText(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, contentID, commentID string) error
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("insert", "comments")()

	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogCreate(ctx, map[string]any{"comment_id": comment.ID, "content_id": comment.ContentID})
	return nil
}

// GetByID only finds the comment inside the given content item.
func (r *commentRepository) GetByID(ctx context.Context, contentID, commentID string) (*models.Comment, error) {
	defer observability.TrackQuery("select", "comments")()

	var comment models.Comment
	err := r.db.WithContext(ctx).
		Where("id = ? AND content_id = ?", commentID, contentID).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByContent returns the comments of a content item, newest first.
func (r *commentRepository) ListByContent(ctx context.Context, contentID string) ([]*models.Comment, error) {
	defer observability.TrackQuery("select", "comments")()

	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Where("content_id = ?", contentID).
		Order("created_at desc").
		Order("id desc").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) UpdateText(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("update", "comments")()

	res := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ? AND content_id = ?", comment.ID, comment.ContentID).
		Updates(map[string]any{"text": comment.Text, "updated_at": comment.UpdatedAt})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update")
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a comment and the reactions on it.
func (r *commentRepository) Delete(ctx context.Context, contentID, commentID string) error {
	defer observability.TrackQuery("delete", "comments")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND content_id = ?", commentID, contentID).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("target_type = ? AND target_id = ?", models.TargetComment, commentID).
			Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		r.log.LogDelete(ctx, map[string]any{"comment_id": commentID})
		return nil
	})
}
