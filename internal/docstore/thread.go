package docstore

import (
	"context"
	"time"

	"threads/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type threadRepository struct {
	coll *mongo.Collection
}

func (r *threadRepository) Create(ctx context.Context, thread *models.Thread) error {
	thread.EnsureID()
	now := time.Now().UTC()
	if thread.CreatedAt.IsZero() {
		thread.CreatedAt = now
	}
	thread.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, thread)
	return translateError(err, "Thread", thread.ID)
}

func (r *threadRepository) GetByID(ctx context.Context, id string) (*models.Thread, error) {
	var thread models.Thread
	if err := r.coll.FindOne(ctx, byID(id)).Decode(&thread); err != nil {
		return nil, translateError(err, "Thread", id)
	}
	return &thread, nil
}

func (r *threadRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Thread, error) {
	if len(ids) == 0 {
		return []*models.Thread{}, nil
	}
	threads, err := findAll[models.Thread](ctx, r.coll, inIDs("_id", ids))
	return threads, translateError(err, "Thread", ids)
}

func (r *threadRepository) ListChildren(ctx context.Context, parentIDs []string) ([]*models.Thread, error) {
	if len(parentIDs) == 0 {
		return []*models.Thread{}, nil
	}
	threads, err := findAll[models.Thread](ctx, r.coll, inIDs("parentId", parentIDs),
		options.Find().SetSort(sortCreated(true)))
	return threads, translateError(err, "Thread", parentIDs)
}

func (r *threadRepository) ListTopLevel(ctx context.Context, offset, limit int) ([]*models.Thread, int64, error) {
	filter := topLevelFilter()

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translateError(err, "Thread", nil)
	}

	threads, err := findAll[models.Thread](ctx, r.coll, filter, pageOptions(offset, limit, sortCreated(false)))
	if err != nil {
		return nil, 0, translateError(err, "Thread", nil)
	}
	return threads, total, nil
}

func (r *threadRepository) ListByAuthor(ctx context.Context, authorID string) ([]*models.Thread, error) {
	threads, err := findAll[models.Thread](ctx, r.coll, bson.M{"author": authorID},
		options.Find().SetSort(sortCreated(false)))
	return threads, translateError(err, "Thread", authorID)
}

func (r *threadRepository) ListRepliesTo(ctx context.Context, parentIDs []string, excludeAuthor string) ([]*models.Thread, error) {
	if len(parentIDs) == 0 {
		return []*models.Thread{}, nil
	}
	threads, err := findAll[models.Thread](ctx, r.coll, repliesFilter(parentIDs, excludeAuthor),
		options.Find().SetSort(sortCreated(false)))
	return threads, translateError(err, "Thread", parentIDs)
}

func (r *threadRepository) AppendChild(ctx context.Context, parentID, childID string) error {
	res, err := r.coll.UpdateOne(ctx, byID(parentID), addToSet("children", childID))
	return requireMatch(res, err, "Thread", parentID)
}

func (r *threadRepository) PullChildren(ctx context.Context, parentID string, childIDs []string) error {
	if len(childIDs) == 0 {
		return nil
	}
	_, err := r.coll.UpdateOne(ctx, byID(parentID), pullAll("children", childIDs))
	return translateError(err, "Thread", parentID)
}

func (r *threadRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, inIDs("_id", ids))
	if err != nil {
		return 0, translateError(err, "Thread", ids)
	}
	return res.DeletedCount, nil
}
