package seed

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"threads/internal/database"
	"threads/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.]{3,30}$`)

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return repository.NewGormStore(db)
}

func TestUsername(t *testing.T) {
	tests := []struct {
		raw  string
		n    int
		want string
	}{
		{"Daniel1364", 1, "daniel1364_1"},
		{"O'Conner & Sons", 7, "oconnersons_7"},
		{"!!", 3, "user_3"},
		{strings.Repeat("a", 40), 12, strings.Repeat("a", 27) + "_12"},
	}
	for _, tt := range tests {
		got := Username(tt.raw, tt.n)
		assert.Equal(t, tt.want, got)
		assert.Regexp(t, usernamePattern, got)
	}
}

func TestSeed_BuildsConsistentGraph(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	res, err := Seed(ctx, store, Options{Users: 4, Communities: 2, Posts: 8, MaxReplies: 3, MaxDepth: 2, Seed: 42})
	require.NoError(t, err)
	assert.Len(t, res.Users, 4)
	assert.Len(t, res.Communities, 2)
	assert.Len(t, res.Posts, 8)

	_, total, err := store.Threads.ListTopLevel(ctx, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(8), total)

	// every thread a user lists exists and is theirs
	var listed int
	for _, u := range res.Users {
		stored, err := store.Users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, stored.Onboarded)
		threads, err := store.Threads.GetByIDs(ctx, stored.Threads)
		require.NoError(t, err)
		assert.Len(t, threads, len(stored.Threads))
		for _, th := range threads {
			assert.Equal(t, u.ID, th.AuthorID)
		}
		listed += len(stored.Threads)
	}
	assert.Equal(t, len(res.Posts)+res.Replies, listed)

	for _, c := range res.Communities {
		stored, err := store.Communities.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Contains(t, stored.Members, c.CreatedBy)
	}
}

func TestSeed_RequiresUsers(t *testing.T) {
	_, err := Seed(context.Background(), repository.NewDisabledStore(), Options{})
	require.Error(t, err)
}
