package docstore

import (
	"context"
	"testing"

	"threads/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestThreadRepository_Mock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get by id", func(mt *mtest.T) {
		repo := &threadRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.threads", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "t1"},
			{Key: "text", Value: "hello"},
			{Key: "author", Value: "u1"},
			{Key: "children", Value: bson.A{"t2"}},
		}))

		th, err := repo.GetByID(context.Background(), "t1")
		require.NoError(mt, err)
		assert.Equal(mt, "hello", th.Text)
		assert.Equal(mt, []string{"t2"}, th.Children)
		assert.True(mt, th.IsTopLevel())
	})

	mt.Run("get by id not found", func(mt *mtest.T) {
		repo := &threadRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.threads", mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), "missing")
		assert.True(mt, models.IsNotFound(err))
	})

	mt.Run("create", func(mt *mtest.T) {
		repo := &threadRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		th := &models.Thread{Text: "new", AuthorID: "u1"}
		require.NoError(mt, repo.Create(context.Background(), th))
		assert.NotEmpty(mt, th.ID)
		assert.False(mt, th.CreatedAt.IsZero())
		assert.NotNil(mt, th.Children)
	})

	mt.Run("append child to missing parent", func(mt *mtest.T) {
		repo := &threadRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.AppendChild(context.Background(), "missing", "t2")
		assert.True(mt, models.IsNotFound(err))
	})

	mt.Run("delete many", func(mt *mtest.T) {
		repo := &threadRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 3}))

		n, err := repo.DeleteMany(context.Background(), []string{"a", "b", "c"})
		require.NoError(mt, err)
		assert.EqualValues(mt, 3, n)
	})
}

func TestUserRepository_Mock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate username", func(mt *mtest.T) {
		repo := &userRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: db.users index: username_1",
		}))

		_, err := repo.Upsert(context.Background(), &models.User{ExternalID: "auth_1", Username: "taken"})
		assert.Equal(mt, models.CodeValidation, models.ErrorCode(err))
	})

	mt.Run("upsert then read back", func(mt *mtest.T) {
		repo := &userRepository{coll: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, "db.users", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: "u1"},
				{Key: "id", Value: "auth_1"},
				{Key: "username", Value: "alice"},
				{Key: "onboarded", Value: true},
			}),
		)

		u, err := repo.Upsert(context.Background(), &models.User{ExternalID: "auth_1", Username: "alice", Onboarded: true})
		require.NoError(mt, err)
		assert.Equal(mt, "u1", u.ID)
		assert.Equal(mt, "auth_1", u.ExternalID)
		assert.True(mt, u.Onboarded)
	})

	mt.Run("pull threads no-op without ids", func(mt *mtest.T) {
		repo := &userRepository{coll: mt.Coll}
		assert.NoError(mt, repo.PullThreads(context.Background(), []string{"u1"}, nil))
	})
}

func TestTranslateError(t *testing.T) {
	assert.Nil(t, translateError(nil, "Thread", "x"))
	assert.Equal(t, models.CodeStoreUnavailable, models.ErrorCode(translateError(context.DeadlineExceeded, "Thread", "x")))

	appErr := models.NewValidationError("bad")
	assert.Same(t, appErr, translateError(appErr, "Thread", "x"))
}
