package service

import (
	"context"
	"testing"

	"threads/internal/cache"
	"threads/internal/database"
	"threads/internal/models"
	"threads/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteStore(t *testing.T) *repository.Store {
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

type fixture struct {
	store   *repository.Store
	threads *ThreadService
	users   *UserService
	comms   *CommunityService
	rev     *recordingRevalidator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newSQLiteStore(t)
	rev := &recordingRevalidator{}
	return &fixture{
		store:   store,
		threads: NewThreadService(store, nil, rev),
		users:   NewUserService(store, rev, []string{"img.clerk.com"}),
		comms:   NewCommunityService(store, rev, nil),
		rev:     rev,
	}
}

func (f *fixture) user(t *testing.T, ext, username string) *models.User {
	t.Helper()
	u, err := f.users.UpdateUser(context.Background(), UpdateUserInput{ExternalID: ext, Username: username, Name: username})
	require.NoError(t, err)
	return u
}

func (f *fixture) post(t *testing.T, author *models.User, text, community string) *models.Thread {
	t.Helper()
	th, err := f.threads.CreateThread(context.Background(), CreateThreadInput{Text: text, AuthorID: author.ID, CommunityID: community})
	require.NoError(t, err)
	return th
}

func (f *fixture) reply(t *testing.T, parent *models.Thread, author *models.User, text string) *models.Thread {
	t.Helper()
	th, err := f.threads.AddComment(context.Background(), AddCommentInput{ThreadID: parent.ID, Text: text, AuthorID: author.ID})
	require.NoError(t, err)
	return th
}

func TestCascadeDelete_SQLite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice := f.user(t, "user_alice", "alice")
	bob := f.user(t, "user_bob", "bob")
	_, err := f.comms.UpsertCommunity(ctx, UpsertCommunityInput{
		ExternalID: "org_go", Username: "gophers", Name: "Gophers", CreatorExternalID: alice.ExternalID,
	})
	require.NoError(t, err)

	root := f.post(t, alice, "root post", "org_go")
	r1 := f.reply(t, root, bob, "first reply")
	r2 := f.reply(t, r1, alice, "nested reply")
	r3 := f.reply(t, root, alice, "second reply")
	other := f.post(t, bob, "unrelated post", "")

	// deleting a reply removes its subtree and detaches it from the parent
	require.NoError(t, f.threads.DeleteThread(ctx, DeleteThreadInput{ThreadID: r1.ID, RequesterID: bob.ID, Path: "/thread/" + root.ID}))

	for _, id := range []string{r1.ID, r2.ID} {
		_, err := f.store.Threads.GetByID(ctx, id)
		assertNotFoundError(t, err)
	}
	gotRoot, err := f.store.Threads.GetByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{r3.ID}, gotRoot.Children)

	gotAlice, err := f.store.Users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{root.ID, r3.ID}, gotAlice.Threads)
	gotBob, err := f.store.Users.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{other.ID}, gotBob.Threads)

	// only the author may delete
	err = f.threads.DeleteThread(ctx, DeleteThreadInput{ThreadID: root.ID, RequesterID: bob.ID})
	assertUnauthorizedError(t, err)

	require.NoError(t, f.threads.DeleteThread(ctx, DeleteThreadInput{ThreadID: root.ID, RequesterID: alice.ID, Path: "/"}))

	for _, id := range []string{root.ID, r3.ID} {
		_, err := f.store.Threads.GetByID(ctx, id)
		assertNotFoundError(t, err)
	}
	gotAlice, err = f.store.Users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, gotAlice.Threads)

	community, err := f.store.Communities.GetByExternalID(ctx, "org_go")
	require.NoError(t, err)
	assert.Empty(t, community.Threads)

	_, err = f.store.Threads.GetByID(ctx, other.ID)
	require.NoError(t, err)

	paths := f.rev.Paths()
	assert.Equal(t, "/", paths[len(paths)-1])
	assert.Contains(t, paths, "/thread/"+root.ID)

	err = f.threads.DeleteThread(ctx, DeleteThreadInput{ThreadID: root.ID})
	assertNotFoundError(t, err)
}

func TestFetchThreadByID_TwoLevels(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "user_alice", "alice")
	bob := f.user(t, "user_bob", "bob")

	root := f.post(t, alice, "root post", "")
	l1 := f.reply(t, root, bob, "level one")
	l2 := f.reply(t, l1, alice, "level two")
	f.reply(t, l2, bob, "level three")

	view, err := f.threads.FetchThreadByID(ctx, root.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Author)
	assert.Equal(t, "alice", view.Author.Username)
	require.Len(t, view.Children, 1)
	assert.Equal(t, "bob", view.Children[0].Author.Username)
	require.Len(t, view.Children[0].Children, 1)
	assert.Equal(t, l2.ID, view.Children[0].Children[0].ID)
	assert.Empty(t, view.Children[0].Children[0].Children)

	_, err = f.threads.FetchThreadByID(ctx, "missing")
	assertNotFoundError(t, err)
}

func TestFetchPosts_SQLite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "user_alice", "alice")

	for _, text := range []string{"post one", "post two", "post three"} {
		f.post(t, alice, text, "")
	}
	root := f.post(t, alice, "post four", "")
	f.reply(t, root, alice, "a reply is not a post")

	page, err := f.threads.FetchPosts(ctx, 1, 3)
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.True(t, page.IsNext)

	page, err = f.threads.FetchPosts(ctx, 2, 3)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.False(t, page.IsNext)
}

func TestFetchPosts_ServesFromCacheUntilRevalidated(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := newSQLiteStore(t)
	c := cache.New(rdb, 0)
	svc := NewThreadService(store, c, nil)
	users := NewUserService(store, nil, nil)

	alice, err := users.UpdateUser(ctx, UpdateUserInput{ExternalID: "user_alice", Username: "alice", Name: "Alice"})
	require.NoError(t, err)
	_, err = svc.CreateThread(ctx, CreateThreadInput{Text: "first post", AuthorID: alice.ID})
	require.NoError(t, err)

	page, err := svc.FetchPosts(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	// written behind the service's back: the cached page is served
	require.NoError(t, store.Threads.Create(ctx, &models.Thread{Text: "sneaky post", AuthorID: alice.ID}))
	page, err = svc.FetchPosts(ctx, 1, 20)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	_, err = c.Bump(ctx)
	require.NoError(t, err)
	page, err = svc.FetchPosts(ctx, 1, 20)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestGetActivity_SQLite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "user_alice", "alice")
	bob := f.user(t, "user_bob", "bob")

	root := f.post(t, alice, "root post", "")
	fromBob := f.reply(t, root, bob, "bob says hi")
	f.reply(t, root, alice, "alice answers herself")

	views, err := f.threads.GetActivity(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, fromBob.ID, views[0].ID)
	assert.Equal(t, root.ID, views[0].ParentID)
	assert.Equal(t, "bob", views[0].Author.Username)
}

func TestFetchUserPosts_SQLite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "user_alice", "alice")
	bob := f.user(t, "user_bob", "bob")

	root := f.post(t, alice, "root post", "")
	f.reply(t, root, bob, "bob replies")

	got, err := f.users.FetchUserPosts(ctx, alice.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.User.ID)
	require.Len(t, got.Threads, 1)
	require.Len(t, got.Threads[0].Children, 1)
	assert.Equal(t, "bob", got.Threads[0].Children[0].Author.Username)

	_, err = f.users.FetchUserPosts(ctx, "user_nobody")
	assertNotFoundError(t, err)
}

func TestCommunities_SQLite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "user_alice", "alice")
	bob := f.user(t, "user_bob", "bob")

	community, err := f.comms.UpsertCommunity(ctx, UpsertCommunityInput{
		ExternalID: "org_go", Username: "gophers", Name: "Gophers", CreatorExternalID: alice.ExternalID,
	})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, community.CreatedBy)
	assert.Equal(t, []string{alice.ID}, community.Members)

	for i := 0; i < 2; i++ {
		_, err = f.comms.AddMember(ctx, AddMemberInput{CommunityExternalID: "org_go", UserExternalID: bob.ExternalID})
		require.NoError(t, err)
	}
	stored, err := f.store.Communities.GetByExternalID(ctx, "org_go")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{alice.ID, bob.ID}, stored.Members)

	gotBob, err := f.store.Users.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{community.ID}, gotBob.Communities)

	post := f.post(t, bob, "hello gophers", "org_go")
	posts, err := f.comms.FetchCommunityPosts(ctx, "org_go")
	require.NoError(t, err)
	require.Len(t, posts.Threads, 1)
	assert.Equal(t, post.ID, posts.Threads[0].ID)
	require.NotNil(t, posts.Threads[0].Community)
	assert.Equal(t, "Gophers", posts.Threads[0].Community.Name)

	page, err := f.comms.FetchCommunities(ctx, ListQuery{Search: "GOPH"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.False(t, page.IsNext)
}
