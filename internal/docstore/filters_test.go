package docstore

import (
	"testing"
	"time"

	"threads/internal/models"
	"threads/internal/repository"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSearchFilter(t *testing.T) {
	f := searchFilter(repository.SearchQuery{Term: " a.b* ", ExcludeExternalID: "me"})

	assert.Equal(t, bson.M{"$ne": "me"}, f["id"])
	re := primitive.Regex{Pattern: `a\.b\*`, Options: "i"}
	assert.Equal(t, bson.A{bson.M{"username": re}, bson.M{"name": re}}, f["$or"])
}

func TestSearchFilter_Empty(t *testing.T) {
	assert.Empty(t, searchFilter(repository.SearchQuery{Term: "   "}))
}

func TestRepliesFilter(t *testing.T) {
	f := repliesFilter([]string{"t1", "t2"}, "u1")
	assert.Equal(t, bson.M{
		"parentId": bson.M{"$in": []string{"t1", "t2"}},
		"author":   bson.M{"$ne": "u1"},
	}, f)
}

func TestTopLevelFilter(t *testing.T) {
	assert.Equal(t, bson.M{"parentId": nil}, topLevelFilter())
}

func TestPageOptions(t *testing.T) {
	opts := pageOptions(40, 20, sortCreated(false))
	assert.EqualValues(t, 40, *opts.Skip)
	assert.EqualValues(t, 20, *opts.Limit)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, opts.Sort)

	opts = pageOptions(0, 0, sortCreated(true))
	assert.Nil(t, opts.Skip)
	assert.Nil(t, opts.Limit)
}

func TestUserUpsert(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	u := &models.User{ID: "fixed", Username: "alice", Name: "Alice", Onboarded: true}

	doc := userUpsert(u, now)
	set := doc["$set"].(bson.M)
	insert := doc["$setOnInsert"].(bson.M)

	assert.Equal(t, "alice", set["username"])
	assert.Equal(t, true, set["onboarded"])
	assert.Equal(t, now, set["updatedAt"])
	assert.Equal(t, "fixed", insert["_id"])
	assert.Equal(t, bson.A{}, insert["threads"])
	assert.Equal(t, bson.A{}, insert["communities"])
	assert.NotContains(t, set, "threads")
}

func TestCommunityUpsert_GeneratesID(t *testing.T) {
	doc := communityUpsert(&models.Community{Name: "Gophers", CreatedBy: "u1"}, time.Now())
	insert := doc["$setOnInsert"].(bson.M)
	assert.NotEmpty(t, insert["_id"])
	assert.Equal(t, "u1", insert["createdBy"])
}

func TestPullAll(t *testing.T) {
	assert.Equal(t, bson.M{"$pull": bson.M{"threads": bson.M{"$in": []string{"a"}}}}, pullAll("threads", []string{"a"}))
}
