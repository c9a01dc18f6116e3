package repository

import (
	"context"

	"dajtovon/internal/models"
	"dajtovon/internal/observability"

	"gorm.io/gorm"
)

// ContentFilter narrows a content listing. Empty fields match everything and
// a zero Limit returns every row.
type ContentFilter struct {
	Category string
	Author   string
	Limit    int
	Offset   int
}

// ContentRepository defines persistence operations for content items.
type ContentRepository interface {
	Create(ctx context.Context, content *models.Content) error
	GetByID(ctx context.Context, id string) (*models.Content, error)
	List(ctx context.Context, filter ContentFilter) ([]*models.Content, error)
	Update(ctx context.Context, content *models.Content) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) (int64, error)
}

type contentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db, log: observability.NewRepoLogger("contents")}
}

func (r *contentRepository) Create(ctx context.Context, content *models.Content) error {
	defer observability.TrackQuery("insert", "contents")()

	if err := r.db.WithContext(ctx).Create(content).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogCreate(ctx, map[string]any{"content_id": content.ID, "author": content.Author})
	return nil
}

// GetByID returns gorm.ErrRecordNotFound when the content does not exist.
func (r *contentRepository) GetByID(ctx context.Context, id string) (*models.Content, error) {
	defer observability.TrackQuery("select", "contents")()

	var content models.Content
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&content).Error; err != nil {
		return nil, err
	}
	return &content, nil
}

func (r *contentRepository) List(ctx context.Context, filter ContentFilter) ([]*models.Content, error) {
	defer observability.TrackQuery("select", "contents")()

	q := r.db.WithContext(ctx).Order("created_at desc").Order("id desc")
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Author != "" {
		q = q.Where("author = ?", filter.Author)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}

	var contents []*models.Content
	err := q.Find(&contents).Error
	return contents, err
}

func (r *contentRepository) Update(ctx context.Context, content *models.Content) error {
	defer observability.TrackQuery("update", "contents")()

	err := r.db.WithContext(ctx).
		Model(content).
		Select("topic", "body", "category", "updated_at").
		Updates(content).Error
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return err
	}
	r.log.LogUpdate(ctx, map[string]any{"content_id": content.ID})
	return nil
}

// Delete removes the content item together with its comments and every
// reaction on either. Notifications keep their title snapshot and survive.
func (r *contentRepository) Delete(ctx context.Context, id string) error {
	defer observability.TrackQuery("delete", "contents")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("content_id = ?", id)
		if err := tx.Where("target_type = ? AND target_id IN (?)", models.TargetComment, commentIDs).
			Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("target_type = ? AND target_id = ?", models.TargetContent, id).
			Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("content_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Content{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if !IsNotFound(err) {
			r.log.LogError(ctx, err, "delete")
		}
		return err
	}
	r.log.LogDelete(ctx, map[string]any{"content_id": id})
	return nil
}

// IncrementViews bumps the view counter in place and returns the new value.
func (r *contentRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	defer observability.TrackQuery("update", "contents")()

	var views int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Content{}).
			Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Content{}).Where("id = ?", id).Pluck("views", &views).Error
	})
	return views, err
}
