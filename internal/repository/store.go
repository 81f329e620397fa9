// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"threads/internal/models"
)

// ThreadRepository defines the interface for thread data operations
type ThreadRepository interface {
	Create(ctx context.Context, thread *models.Thread) error
	GetByID(ctx context.Context, id string) (*models.Thread, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Thread, error)
	// ListChildren returns every thread whose parent is one of parentIDs.
	ListChildren(ctx context.Context, parentIDs []string) ([]*models.Thread, error)
	// ListTopLevel returns a newest-first page of threads without a parent and the total count.
	ListTopLevel(ctx context.Context, offset, limit int) ([]*models.Thread, int64, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*models.Thread, error)
	// ListRepliesTo returns replies to parentIDs not written by excludeAuthor, newest first.
	ListRepliesTo(ctx context.Context, parentIDs []string, excludeAuthor string) ([]*models.Thread, error)
	AppendChild(ctx context.Context, parentID, childID string) error
	PullChildren(ctx context.Context, parentID string, childIDs []string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Upsert creates or updates the profile fields of the user keyed by ExternalID.
	Upsert(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	Search(ctx context.Context, q SearchQuery) ([]*models.User, int64, error)
	AppendThread(ctx context.Context, userID, threadID string) error
	PullThreads(ctx context.Context, userIDs, threadIDs []string) error
	AppendCommunity(ctx context.Context, userID, communityID string) error
}

// CommunityRepository defines the interface for community data operations
type CommunityRepository interface {
	Upsert(ctx context.Context, community *models.Community) (*models.Community, error)
	GetByID(ctx context.Context, id string) (*models.Community, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Community, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Community, error)
	Search(ctx context.Context, q SearchQuery) ([]*models.Community, int64, error)
	AppendThread(ctx context.Context, communityID, threadID string) error
	PullThreads(ctx context.Context, communityIDs, threadIDs []string) error
	AppendMember(ctx context.Context, communityID, userID string) error
}

// SearchQuery filters and pages users or communities.
type SearchQuery struct {
	// Term matches username or name as a case-insensitive literal substring.
	Term string
	// ExcludeExternalID drops the record with this external id.
	ExcludeExternalID string
	Offset            int
	Limit             int
	Ascending         bool
}

// TxFunc runs fn against a store whose repositories share one unit of work.
type TxFunc func(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error

// Store groups the repositories of one backend.
type Store struct {
	Threads     ThreadRepository
	Users       UserRepository
	Communities CommunityRepository

	// Atomic is nil when the backend offers no multi-collection transaction.
	Atomic TxFunc
	// Disabled is set when no document store is configured.
	Disabled bool
}

// InTx runs fn atomically where the backend supports it and sequentially otherwise.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error {
	if s.Atomic == nil {
		return fn(ctx, s)
	}
	return s.Atomic(ctx, fn)
}
