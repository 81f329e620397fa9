package docstore

import (
	"regexp"
	"strings"
	"time"

	"threads/internal/models"
	"threads/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func byID(id string) bson.M { return bson.M{"_id": id} }

func inIDs(field string, ids []string) bson.M {
	return bson.M{field: bson.M{"$in": ids}}
}

// topLevelFilter matches threads whose parentId is missing or null.
func topLevelFilter() bson.M {
	return bson.M{"parentId": nil}
}

func repliesFilter(parentIDs []string, excludeAuthor string) bson.M {
	return bson.M{
		"parentId": bson.M{"$in": parentIDs},
		"author":   bson.M{"$ne": excludeAuthor},
	}
}

// searchFilter matches username or name case-insensitively as a literal substring.
func searchFilter(q repository.SearchQuery) bson.M {
	filter := bson.M{}
	if q.ExcludeExternalID != "" {
		filter["id"] = bson.M{"$ne": q.ExcludeExternalID}
	}
	if term := strings.TrimSpace(q.Term); term != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"username": re},
			bson.M{"name": re},
		}
	}
	return filter
}

func sortCreated(ascending bool) bson.D {
	dir := -1
	if ascending {
		dir = 1
	}
	return bson.D{{Key: "createdAt", Value: dir}}
}

func pageOptions(offset, limit int, sort bson.D) *options.FindOptions {
	opts := options.Find().SetSort(sort)
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

func addToSet(field, id string) bson.M {
	return bson.M{"$addToSet": bson.M{field: id}}
}

func pullAll(field string, ids []string) bson.M {
	return bson.M{"$pull": bson.M{field: bson.M{"$in": ids}}}
}

// userUpsert updates profile fields and seeds identity and empty reference lists on insert.
func userUpsert(u *models.User, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"username":  u.Username,
			"name":      u.Name,
			"bio":       u.Bio,
			"image":     u.Image,
			"onboarded": u.Onboarded,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"_id":         newID(u.ID),
			"threads":     bson.A{},
			"communities": bson.A{},
			"createdAt":   now,
		},
	}
}

func communityUpsert(c *models.Community, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"username":  c.Username,
			"name":      c.Name,
			"image":     c.Image,
			"bio":       c.Bio,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"_id":       newID(c.ID),
			"createdBy": c.CreatedBy,
			"threads":   bson.A{},
			"members":   bson.A{},
			"createdAt": now,
		},
	}
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
