package repository

import (
	"context"
	"time"

	"threads/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository returns a new CommunityRepository implementation.
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) Upsert(ctx context.Context, community *models.Community) (*models.Community, error) {
	community.EnsureID()
	community.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "name", "image", "bio", "updated_at"}),
	}).Create(community).Error
	if err != nil {
		return nil, translateError(err, "Community", community.ExternalID)
	}

	return r.GetByExternalID(ctx, community.ExternalID)
}

func (r *communityRepository) GetByID(ctx context.Context, id string) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&community).Error; err != nil {
		return nil, translateError(err, "Community", id)
	}
	return &community, nil
}

func (r *communityRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&community).Error; err != nil {
		return nil, translateError(err, "Community", externalID)
	}
	return &community, nil
}

func (r *communityRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Community, error) {
	communities := []*models.Community{}
	if len(ids) == 0 {
		return communities, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&communities).Error; err != nil {
		return nil, translateError(err, "Community", ids)
	}
	return communities, nil
}

func (r *communityRepository) Search(ctx context.Context, q SearchQuery) ([]*models.Community, int64, error) {
	query := applySearch(r.db.WithContext(ctx).Model(&models.Community{}), q)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "Community", nil)
	}

	communities := []*models.Community{}
	err := query.Session(&gorm.Session{}).
		Order(orderCreated(q.Ascending)).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&communities).Error
	if err != nil {
		return nil, 0, translateError(err, "Community", nil)
	}
	return communities, total, nil
}

func (r *communityRepository) AppendThread(ctx context.Context, communityID, threadID string) error {
	var community models.Community
	return editList(ctx, r.db, &community, communityID, "threads", "Community",
		func() *[]string { return &community.Threads }, appendUnique(threadID))
}

func (r *communityRepository) PullThreads(ctx context.Context, communityIDs, threadIDs []string) error {
	if len(threadIDs) == 0 {
		return nil
	}
	for _, id := range communityIDs {
		var community models.Community
		err := editList(ctx, r.db, &community, id, "threads", "Community",
			func() *[]string { return &community.Threads }, without(threadIDs))
		if err != nil && !isNotFound(err) {
			return err
		}
	}
	return nil
}

func (r *communityRepository) AppendMember(ctx context.Context, communityID, userID string) error {
	var community models.Community
	return editList(ctx, r.db, &community, communityID, "members", "Community",
		func() *[]string { return &community.Members }, appendUnique(userID))
}
