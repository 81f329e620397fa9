package repository

import (
	"context"
	"errors"
	"time"

	"threads/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRepository implements UserRepository
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Upsert(ctx context.Context, user *models.User) (*models.User, error) {
	user.EnsureID()
	user.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "name", "bio", "image", "onboarded", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		// external_id conflicts are resolved above, so a remaining violation is the username
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueConstraintError(err) {
			return nil, models.NewValidationError("Username already taken")
		}
		return nil, translateError(err, "User", user.ExternalID)
	}

	return r.GetByExternalID(ctx, user.ExternalID)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translateError(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error; err != nil {
		return nil, translateError(err, "User", externalID)
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	users := []*models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translateError(err, "User", ids)
	}
	return users, nil
}

func (r *userRepository) Search(ctx context.Context, q SearchQuery) ([]*models.User, int64, error) {
	query := applySearch(r.db.WithContext(ctx).Model(&models.User{}), q)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "User", nil)
	}

	users := []*models.User{}
	err := query.Session(&gorm.Session{}).
		Order(orderCreated(q.Ascending)).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, translateError(err, "User", nil)
	}
	return users, total, nil
}

func (r *userRepository) AppendThread(ctx context.Context, userID, threadID string) error {
	var user models.User
	return editList(ctx, r.db, &user, userID, "threads", "User",
		func() *[]string { return &user.Threads }, appendUnique(threadID))
}

// PullThreads removes threadIDs from each user's threads. Users that no longer exist are skipped.
func (r *userRepository) PullThreads(ctx context.Context, userIDs, threadIDs []string) error {
	if len(threadIDs) == 0 {
		return nil
	}
	for _, id := range userIDs {
		var user models.User
		err := editList(ctx, r.db, &user, id, "threads", "User",
			func() *[]string { return &user.Threads }, without(threadIDs))
		if err != nil && !isNotFound(err) {
			return err
		}
	}
	return nil
}

func (r *userRepository) AppendCommunity(ctx context.Context, userID, communityID string) error {
	var user models.User
	return editList(ctx, r.db, &user, userID, "communities", "User",
		func() *[]string { return &user.Communities }, appendUnique(communityID))
}
