package repository

import (
	"context"
	"testing"
	"time"

	"threads/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	created, err := repo.Upsert(ctx, &models.User{ExternalID: "auth_1", Username: "alice", Name: "Alice"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Empty(t, created.Threads)

	require.NoError(t, repo.AppendThread(ctx, created.ID, "t1"))

	updated, err := repo.Upsert(ctx, &models.User{ExternalID: "auth_1", Username: "alice2", Name: "Alice B", Onboarded: true})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "alice2", updated.Username)
	assert.True(t, updated.Onboarded)
	// reference lists survive a profile update
	assert.Equal(t, []string{"t1"}, updated.Threads)

	_, err = repo.Upsert(ctx, &models.User{ExternalID: "auth_2", Username: "alice2", Name: "Other"})
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}

func TestUserRepository_PullThreads(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	u, err := repo.Upsert(ctx, &models.User{ExternalID: "auth_1", Username: "bob", Name: "Bob"})
	require.NoError(t, err)
	for _, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, repo.AppendThread(ctx, u.ID, id))
	}

	require.NoError(t, repo.PullThreads(ctx, []string{u.ID, "gone"}, []string{"t1", "t3", "t9"}))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, got.Threads)
}

func TestUserRepository_Search(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	base := time.Now().Add(-time.Hour)
	seed := []models.User{
		{ExternalID: "a", Username: "carol", Name: "Carol 100%", CreatedAt: base},
		{ExternalID: "b", Username: "carl_x", Name: "Carl", CreatedAt: base.Add(time.Minute)},
		{ExternalID: "c", Username: "dave", Name: "Dave", CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range seed {
		_, err := repo.Upsert(ctx, &seed[i])
		require.NoError(t, err)
	}

	users, total, err := repo.Search(ctx, SearchQuery{Term: "CAR", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, users, 2)
	assert.Equal(t, "carl_x", users[0].Username)

	users, _, err = repo.Search(ctx, SearchQuery{Term: "CAR", Limit: 10, Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, "carol", users[0].Username)

	// wildcards match literally
	users, _, err = repo.Search(ctx, SearchQuery{Term: "%", Limit: 10})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "carol", users[0].Username)

	users, _, err = repo.Search(ctx, SearchQuery{Term: "_", Limit: 10})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "carl_x", users[0].Username)

	users, total, err = repo.Search(ctx, SearchQuery{ExcludeExternalID: "c", Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, users, 1)
}

func TestUserRepository_GetByExternalIDNotFound(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	_, err := repo.GetByExternalID(context.Background(), "nobody")
	assert.True(t, models.IsNotFound(err))
}
