// Package docstore implements the repositories over MongoDB.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"threads/internal/models"
	"threads/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	ThreadsCollection     = "threads"
	UsersCollection       = "users"
	CommunitiesCollection = "communities"
)

// NewStore wires the MongoDB repositories over db. With transactions set the
// store's InTx runs inside a multi-document transaction, which needs a
// replica set or sharded cluster.
func NewStore(db *mongo.Database, transactions bool) *repository.Store {
	s := &repository.Store{
		Threads:     &threadRepository{coll: db.Collection(ThreadsCollection)},
		Users:       &userRepository{coll: db.Collection(UsersCollection)},
		Communities: &communityRepository{coll: db.Collection(CommunitiesCollection)},
	}
	if transactions {
		s.Atomic = func(ctx context.Context, fn func(ctx context.Context, tx *repository.Store) error) error {
			session, err := db.Client().StartSession()
			if err != nil {
				return translateError(err, "Session", nil)
			}
			defer session.EndSession(ctx)

			_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
				return nil, fn(sc, s)
			})
			return err
		}
	}
	return s
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		CommunitiesCollection: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		ThreadsCollection: {
			{Keys: bson.D{{Key: "parentId", Value: 1}}},
			{Keys: bson.D{{Key: "author", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
	}

	for coll, indexes := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// translateError maps driver errors onto AppError codes.
func translateError(err error, resource string, id any) error {
	if err == nil {
		return nil
	}

	var appErr *models.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.NewNotFoundError(resource, id)
	case mongo.IsDuplicateKeyError(err):
		return models.NewValidationError(resource + " already exists")
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return models.NewStoreUnavailableError(err)
	default:
		return models.NewInternalError(err)
	}
}

// findAll runs a query and decodes every document into T.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]*T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []*T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// requireMatch turns an update that matched nothing into a not-found error.
func requireMatch(res *mongo.UpdateResult, err error, resource, id string) error {
	if err != nil {
		return translateError(err, resource, id)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError(resource, id)
	}
	return nil
}
