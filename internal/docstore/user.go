package docstore

import (
	"context"
	"time"

	"threads/internal/models"
	"threads/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userRepository struct {
	coll *mongo.Collection
}

func (r *userRepository) Upsert(ctx context.Context, user *models.User) (*models.User, error) {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"id": user.ExternalID},
		userUpsert(user, time.Now().UTC()),
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.NewValidationError("Username already taken")
		}
		return nil, translateError(err, "User", user.ExternalID)
	}
	return r.GetByExternalID(ctx, user.ExternalID)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, byID(id)).Decode(&user); err != nil {
		return nil, translateError(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"id": externalID}).Decode(&user); err != nil {
		return nil, translateError(err, "User", externalID)
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	users, err := findAll[models.User](ctx, r.coll, inIDs("_id", ids))
	return users, translateError(err, "User", ids)
}

func (r *userRepository) Search(ctx context.Context, q repository.SearchQuery) ([]*models.User, int64, error) {
	filter := searchFilter(q)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translateError(err, "User", nil)
	}

	users, err := findAll[models.User](ctx, r.coll, filter, pageOptions(q.Offset, q.Limit, sortCreated(q.Ascending)))
	if err != nil {
		return nil, 0, translateError(err, "User", nil)
	}
	return users, total, nil
}

func (r *userRepository) AppendThread(ctx context.Context, userID, threadID string) error {
	res, err := r.coll.UpdateOne(ctx, byID(userID), addToSet("threads", threadID))
	return requireMatch(res, err, "User", userID)
}

func (r *userRepository) PullThreads(ctx context.Context, userIDs, threadIDs []string) error {
	if len(userIDs) == 0 || len(threadIDs) == 0 {
		return nil
	}
	_, err := r.coll.UpdateMany(ctx, inIDs("_id", userIDs), pullAll("threads", threadIDs))
	return translateError(err, "User", userIDs)
}

func (r *userRepository) AppendCommunity(ctx context.Context, userID, communityID string) error {
	res, err := r.coll.UpdateOne(ctx, byID(userID), addToSet("communities", communityID))
	return requireMatch(res, err, "User", userID)
}
