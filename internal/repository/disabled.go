package repository

import (
	"context"

	"threads/internal/models"
)

// NewDisabledStore returns the store used when no connection string is set:
// writes succeed without effect, lists are empty and lookups are not found.
func NewDisabledStore() *Store {
	return &Store{
		Threads:     disabledThreads{},
		Users:       disabledUsers{},
		Communities: disabledCommunities{},
		Disabled:    true,
	}
}

type disabledThreads struct{}

func (disabledThreads) Create(_ context.Context, thread *models.Thread) error {
	thread.EnsureID()
	return nil
}

func (disabledThreads) GetByID(_ context.Context, id string) (*models.Thread, error) {
	return nil, models.NewNotFoundError("Thread", id)
}

func (disabledThreads) GetByIDs(context.Context, []string) ([]*models.Thread, error) {
	return []*models.Thread{}, nil
}

func (disabledThreads) ListChildren(context.Context, []string) ([]*models.Thread, error) {
	return []*models.Thread{}, nil
}

func (disabledThreads) ListTopLevel(context.Context, int, int) ([]*models.Thread, int64, error) {
	return []*models.Thread{}, 0, nil
}

func (disabledThreads) ListByAuthor(context.Context, string) ([]*models.Thread, error) {
	return []*models.Thread{}, nil
}

func (disabledThreads) ListRepliesTo(context.Context, []string, string) ([]*models.Thread, error) {
	return []*models.Thread{}, nil
}

func (disabledThreads) AppendChild(context.Context, string, string) error { return nil }

func (disabledThreads) PullChildren(context.Context, string, []string) error { return nil }

func (disabledThreads) DeleteMany(context.Context, []string) (int64, error) { return 0, nil }

type disabledUsers struct{}

func (disabledUsers) Upsert(_ context.Context, user *models.User) (*models.User, error) {
	user.EnsureID()
	return user, nil
}

func (disabledUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	return nil, models.NewNotFoundError("User", id)
}

func (disabledUsers) GetByExternalID(_ context.Context, externalID string) (*models.User, error) {
	return nil, models.NewNotFoundError("User", externalID)
}

func (disabledUsers) GetByIDs(context.Context, []string) ([]*models.User, error) {
	return []*models.User{}, nil
}

func (disabledUsers) Search(context.Context, SearchQuery) ([]*models.User, int64, error) {
	return []*models.User{}, 0, nil
}

func (disabledUsers) AppendThread(context.Context, string, string) error { return nil }

func (disabledUsers) PullThreads(context.Context, []string, []string) error { return nil }

func (disabledUsers) AppendCommunity(context.Context, string, string) error { return nil }

type disabledCommunities struct{}

func (disabledCommunities) Upsert(_ context.Context, community *models.Community) (*models.Community, error) {
	community.EnsureID()
	return community, nil
}

func (disabledCommunities) GetByID(_ context.Context, id string) (*models.Community, error) {
	return nil, models.NewNotFoundError("Community", id)
}

func (disabledCommunities) GetByExternalID(_ context.Context, externalID string) (*models.Community, error) {
	return nil, models.NewNotFoundError("Community", externalID)
}

func (disabledCommunities) GetByIDs(context.Context, []string) ([]*models.Community, error) {
	return []*models.Community{}, nil
}

func (disabledCommunities) Search(context.Context, SearchQuery) ([]*models.Community, int64, error) {
	return []*models.Community{}, 0, nil
}

func (disabledCommunities) AppendThread(context.Context, string, string) error { return nil }

func (disabledCommunities) PullThreads(context.Context, []string, []string) error { return nil }

func (disabledCommunities) AppendMember(context.Context, string, string) error { return nil }
