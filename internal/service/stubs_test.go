package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"threads/internal/models"
	"threads/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threadRepoStub is a stub for repository.ThreadRepository.
type threadRepoStub struct {
	createFn        func(context.Context, *models.Thread) error
	getByIDFn       func(context.Context, string) (*models.Thread, error)
	getByIDsFn      func(context.Context, []string) ([]*models.Thread, error)
	listChildrenFn  func(context.Context, []string) ([]*models.Thread, error)
	listTopLevelFn  func(context.Context, int, int) ([]*models.Thread, int64, error)
	listByAuthorFn  func(context.Context, string) ([]*models.Thread, error)
	listRepliesToFn func(context.Context, []string, string) ([]*models.Thread, error)
	appendChildFn   func(context.Context, string, string) error
	pullChildrenFn  func(context.Context, string, []string) error
	deleteManyFn    func(context.Context, []string) (int64, error)
}

func (s *threadRepoStub) Create(ctx context.Context, thread *models.Thread) error {
	return s.createFn(ctx, thread)
}
func (s *threadRepoStub) GetByID(ctx context.Context, id string) (*models.Thread, error) {
	return s.getByIDFn(ctx, id)
}
func (s *threadRepoStub) GetByIDs(ctx context.Context, ids []string) ([]*models.Thread, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *threadRepoStub) ListChildren(ctx context.Context, parentIDs []string) ([]*models.Thread, error) {
	return s.listChildrenFn(ctx, parentIDs)
}
func (s *threadRepoStub) ListTopLevel(ctx context.Context, offset, limit int) ([]*models.Thread, int64, error) {
	return s.listTopLevelFn(ctx, offset, limit)
}
func (s *threadRepoStub) ListByAuthor(ctx context.Context, authorID string) ([]*models.Thread, error) {
	return s.listByAuthorFn(ctx, authorID)
}
func (s *threadRepoStub) ListRepliesTo(ctx context.Context, parentIDs []string, excludeAuthor string) ([]*models.Thread, error) {
	return s.listRepliesToFn(ctx, parentIDs, excludeAuthor)
}
func (s *threadRepoStub) AppendChild(ctx context.Context, parentID, childID string) error {
	return s.appendChildFn(ctx, parentID, childID)
}
func (s *threadRepoStub) PullChildren(ctx context.Context, parentID string, childIDs []string) error {
	return s.pullChildrenFn(ctx, parentID, childIDs)
}
func (s *threadRepoStub) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	return s.deleteManyFn(ctx, ids)
}

func noopThreadRepo() *threadRepoStub {
	return &threadRepoStub{
		createFn: func(_ context.Context, t *models.Thread) error {
			t.EnsureID()
			return nil
		},
		getByIDFn:       func(_ context.Context, id string) (*models.Thread, error) { return &models.Thread{ID: id}, nil },
		getByIDsFn:      func(_ context.Context, _ []string) ([]*models.Thread, error) { return nil, nil },
		listChildrenFn:  func(_ context.Context, _ []string) ([]*models.Thread, error) { return nil, nil },
		listTopLevelFn:  func(_ context.Context, _, _ int) ([]*models.Thread, int64, error) { return nil, 0, nil },
		listByAuthorFn:  func(_ context.Context, _ string) ([]*models.Thread, error) { return nil, nil },
		listRepliesToFn: func(_ context.Context, _ []string, _ string) ([]*models.Thread, error) { return nil, nil },
		appendChildFn:   func(_ context.Context, _, _ string) error { return nil },
		pullChildrenFn:  func(_ context.Context, _ string, _ []string) error { return nil },
		deleteManyFn:    func(_ context.Context, ids []string) (int64, error) { return int64(len(ids)), nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	upsertFn          func(context.Context, *models.User) (*models.User, error)
	getByIDFn         func(context.Context, string) (*models.User, error)
	getByExternalIDFn func(context.Context, string) (*models.User, error)
	getByIDsFn        func(context.Context, []string) ([]*models.User, error)
	searchFn          func(context.Context, repository.SearchQuery) ([]*models.User, int64, error)
	appendThreadFn    func(context.Context, string, string) error
	pullThreadsFn     func(context.Context, []string, []string) error
	appendCommunityFn func(context.Context, string, string) error
}

func (s *userRepoStub) Upsert(ctx context.Context, user *models.User) (*models.User, error) {
	return s.upsertFn(ctx, user)
}
func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return s.getByExternalIDFn(ctx, externalID)
}
func (s *userRepoStub) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *userRepoStub) Search(ctx context.Context, q repository.SearchQuery) ([]*models.User, int64, error) {
	return s.searchFn(ctx, q)
}
func (s *userRepoStub) AppendThread(ctx context.Context, userID, threadID string) error {
	return s.appendThreadFn(ctx, userID, threadID)
}
func (s *userRepoStub) PullThreads(ctx context.Context, userIDs, threadIDs []string) error {
	return s.pullThreadsFn(ctx, userIDs, threadIDs)
}
func (s *userRepoStub) AppendCommunity(ctx context.Context, userID, communityID string) error {
	return s.appendCommunityFn(ctx, userID, communityID)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		upsertFn: func(_ context.Context, u *models.User) (*models.User, error) {
			u.EnsureID()
			return u, nil
		},
		getByIDFn: func(_ context.Context, id string) (*models.User, error) { return &models.User{ID: id}, nil },
		getByExternalIDFn: func(_ context.Context, ext string) (*models.User, error) {
			return &models.User{ID: "u-" + ext, ExternalID: ext}, nil
		},
		getByIDsFn:        func(_ context.Context, _ []string) ([]*models.User, error) { return nil, nil },
		searchFn:          func(_ context.Context, _ repository.SearchQuery) ([]*models.User, int64, error) { return nil, 0, nil },
		appendThreadFn:    func(_ context.Context, _, _ string) error { return nil },
		pullThreadsFn:     func(_ context.Context, _, _ []string) error { return nil },
		appendCommunityFn: func(_ context.Context, _, _ string) error { return nil },
	}
}

// communityRepoStub is a stub for repository.CommunityRepository.
type communityRepoStub struct {
	upsertFn          func(context.Context, *models.Community) (*models.Community, error)
	getByIDFn         func(context.Context, string) (*models.Community, error)
	getByExternalIDFn func(context.Context, string) (*models.Community, error)
	getByIDsFn        func(context.Context, []string) ([]*models.Community, error)
	searchFn          func(context.Context, repository.SearchQuery) ([]*models.Community, int64, error)
	appendThreadFn    func(context.Context, string, string) error
	pullThreadsFn     func(context.Context, []string, []string) error
	appendMemberFn    func(context.Context, string, string) error
}

func (s *communityRepoStub) Upsert(ctx context.Context, c *models.Community) (*models.Community, error) {
	return s.upsertFn(ctx, c)
}
func (s *communityRepoStub) GetByID(ctx context.Context, id string) (*models.Community, error) {
	return s.getByIDFn(ctx, id)
}
func (s *communityRepoStub) GetByExternalID(ctx context.Context, externalID string) (*models.Community, error) {
	return s.getByExternalIDFn(ctx, externalID)
}
func (s *communityRepoStub) GetByIDs(ctx context.Context, ids []string) ([]*models.Community, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *communityRepoStub) Search(ctx context.Context, q repository.SearchQuery) ([]*models.Community, int64, error) {
	return s.searchFn(ctx, q)
}
func (s *communityRepoStub) AppendThread(ctx context.Context, communityID, threadID string) error {
	return s.appendThreadFn(ctx, communityID, threadID)
}
func (s *communityRepoStub) PullThreads(ctx context.Context, communityIDs, threadIDs []string) error {
	return s.pullThreadsFn(ctx, communityIDs, threadIDs)
}
func (s *communityRepoStub) AppendMember(ctx context.Context, communityID, userID string) error {
	return s.appendMemberFn(ctx, communityID, userID)
}

func noopCommunityRepo() *communityRepoStub {
	return &communityRepoStub{
		upsertFn: func(_ context.Context, c *models.Community) (*models.Community, error) {
			c.EnsureID()
			return c, nil
		},
		getByIDFn: func(_ context.Context, id string) (*models.Community, error) { return &models.Community{ID: id}, nil },
		getByExternalIDFn: func(_ context.Context, ext string) (*models.Community, error) {
			return nil, models.NewNotFoundError("Community", ext)
		},
		getByIDsFn:     func(_ context.Context, _ []string) ([]*models.Community, error) { return nil, nil },
		searchFn:       func(_ context.Context, _ repository.SearchQuery) ([]*models.Community, int64, error) { return nil, 0, nil },
		appendThreadFn: func(_ context.Context, _, _ string) error { return nil },
		pullThreadsFn:  func(_ context.Context, _, _ []string) error { return nil },
		appendMemberFn: func(_ context.Context, _, _ string) error { return nil },
	}
}

func stubStore(threads *threadRepoStub, users *userRepoStub, communities *communityRepoStub) *repository.Store {
	return &repository.Store{Threads: threads, Users: users, Communities: communities}
}

// recordingRevalidator remembers every revalidated path.
type recordingRevalidator struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingRevalidator) RevalidatePath(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recordingRevalidator) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeUnauthorized)
}

// assertNotFoundError asserts that err is an AppError with code NOT_FOUND.
func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeNotFound)
}
