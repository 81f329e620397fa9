package repository

import (
	"context"

	"threads/internal/models"

	"gorm.io/gorm"
)

// threadRepository implements ThreadRepository
type threadRepository struct {
	db *gorm.DB
}

// NewThreadRepository creates a new thread repository
func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

func (r *threadRepository) Create(ctx context.Context, thread *models.Thread) error {
	thread.EnsureID()
	return translateError(r.db.WithContext(ctx).Create(thread).Error, "Thread", thread.ID)
}

func (r *threadRepository) GetByID(ctx context.Context, id string) (*models.Thread, error) {
	var thread models.Thread
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&thread).Error; err != nil {
		return nil, translateError(err, "Thread", id)
	}
	return &thread, nil
}

func (r *threadRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Thread, error) {
	threads := []*models.Thread{}
	if len(ids) == 0 {
		return threads, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&threads).Error; err != nil {
		return nil, translateError(err, "Thread", ids)
	}
	return threads, nil
}

func (r *threadRepository) ListChildren(ctx context.Context, parentIDs []string) ([]*models.Thread, error) {
	threads := []*models.Thread{}
	if len(parentIDs) == 0 {
		return threads, nil
	}
	err := r.db.WithContext(ctx).
		Where("parent_id IN ?", parentIDs).
		Order("created_at asc").
		Find(&threads).Error
	if err != nil {
		return nil, translateError(err, "Thread", parentIDs)
	}
	return threads, nil
}

func (r *threadRepository) ListTopLevel(ctx context.Context, offset, limit int) ([]*models.Thread, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Thread{}).Where("parent_id IS NULL")

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "Thread", nil)
	}

	threads := []*models.Thread{}
	err := query.Session(&gorm.Session{}).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&threads).Error
	if err != nil {
		return nil, 0, translateError(err, "Thread", nil)
	}
	return threads, total, nil
}

func (r *threadRepository) ListByAuthor(ctx context.Context, authorID string) ([]*models.Thread, error) {
	threads := []*models.Thread{}
	err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at desc").
		Find(&threads).Error
	if err != nil {
		return nil, translateError(err, "Thread", authorID)
	}
	return threads, nil
}

func (r *threadRepository) ListRepliesTo(ctx context.Context, parentIDs []string, excludeAuthor string) ([]*models.Thread, error) {
	threads := []*models.Thread{}
	if len(parentIDs) == 0 {
		return threads, nil
	}
	err := r.db.WithContext(ctx).
		Where("parent_id IN ? AND author_id <> ?", parentIDs, excludeAuthor).
		Order("created_at desc").
		Find(&threads).Error
	if err != nil {
		return nil, translateError(err, "Thread", parentIDs)
	}
	return threads, nil
}

func (r *threadRepository) AppendChild(ctx context.Context, parentID, childID string) error {
	var parent models.Thread
	return editList(ctx, r.db, &parent, parentID, "children", "Thread",
		func() *[]string { return &parent.Children }, appendUnique(childID))
}

func (r *threadRepository) PullChildren(ctx context.Context, parentID string, childIDs []string) error {
	if len(childIDs) == 0 {
		return nil
	}
	var parent models.Thread
	err := editList(ctx, r.db, &parent, parentID, "children", "Thread",
		func() *[]string { return &parent.Children }, without(childIDs))
	if isNotFound(err) {
		return nil
	}
	return err
}

func (r *threadRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Thread{})
	if res.Error != nil {
		return 0, translateError(res.Error, "Thread", ids)
	}
	return res.RowsAffected, nil
}
