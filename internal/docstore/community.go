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

type communityRepository struct {
	coll *mongo.Collection
}

func (r *communityRepository) Upsert(ctx context.Context, community *models.Community) (*models.Community, error) {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"id": community.ExternalID},
		communityUpsert(community, time.Now().UTC()),
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, translateError(err, "Community", community.ExternalID)
	}
	return r.GetByExternalID(ctx, community.ExternalID)
}

func (r *communityRepository) GetByID(ctx context.Context, id string) (*models.Community, error) {
	var community models.Community
	if err := r.coll.FindOne(ctx, byID(id)).Decode(&community); err != nil {
		return nil, translateError(err, "Community", id)
	}
	return &community, nil
}

func (r *communityRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Community, error) {
	var community models.Community
	if err := r.coll.FindOne(ctx, bson.M{"id": externalID}).Decode(&community); err != nil {
		return nil, translateError(err, "Community", externalID)
	}
	return &community, nil
}

func (r *communityRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Community, error) {
	if len(ids) == 0 {
		return []*models.Community{}, nil
	}
	communities, err := findAll[models.Community](ctx, r.coll, inIDs("_id", ids))
	return communities, translateError(err, "Community", ids)
}

func (r *communityRepository) Search(ctx context.Context, q repository.SearchQuery) ([]*models.Community, int64, error) {
	filter := searchFilter(q)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translateError(err, "Community", nil)
	}

	communities, err := findAll[models.Community](ctx, r.coll, filter, pageOptions(q.Offset, q.Limit, sortCreated(q.Ascending)))
	if err != nil {
		return nil, 0, translateError(err, "Community", nil)
	}
	return communities, total, nil
}

func (r *communityRepository) AppendThread(ctx context.Context, communityID, threadID string) error {
	res, err := r.coll.UpdateOne(ctx, byID(communityID), addToSet("threads", threadID))
	return requireMatch(res, err, "Community", communityID)
}

func (r *communityRepository) PullThreads(ctx context.Context, communityIDs, threadIDs []string) error {
	if len(communityIDs) == 0 || len(threadIDs) == 0 {
		return nil
	}
	_, err := r.coll.UpdateMany(ctx, inIDs("_id", communityIDs), pullAll("threads", threadIDs))
	return translateError(err, "Community", communityIDs)
}

func (r *communityRepository) AppendMember(ctx context.Context, communityID, userID string) error {
	res, err := r.coll.UpdateOne(ctx, byID(communityID), addToSet("members", userID))
	return requireMatch(res, err, "Community", communityID)
}
