package service

import (
	"context"
	"fmt"
	"log/slog"

	"threads/internal/cache"
	"threads/internal/middleware"
	"threads/internal/models"
	"threads/internal/notifications"
	"threads/internal/observability"
	"threads/internal/repository"
	"threads/internal/threadtree"
	"threads/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

type ThreadService struct {
	store       *repository.Store
	cache       *cache.Cache
	revalidator notifications.Revalidator
	populate    populator
	deletes     singleflight.Group
}

type CreateThreadInput struct {
	Text     string
	AuthorID string
	// CommunityID is the community's external id. Unknown ids post without a community.
	CommunityID string
	Path        string
}

type AddCommentInput struct {
	ThreadID string
	Text     string
	AuthorID string
	Path     string
}

type DeleteThreadInput struct {
	ThreadID string
	// RequesterID must match the thread's author when set.
	RequesterID string
	Path        string
}

func NewThreadService(store *repository.Store, c *cache.Cache, revalidator notifications.Revalidator) *ThreadService {
	return &ThreadService{
		store:       store,
		cache:       c,
		revalidator: orNoop(revalidator),
		populate:    populator{store: store},
	}
}

func (s *ThreadService) CreateThread(ctx context.Context, in CreateThreadInput) (*models.Thread, error) {
	text, err := validation.ThreadText(in.Text)
	if err != nil {
		return nil, err
	}
	if err := s.requireAuthor(ctx, in.AuthorID); err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	var communityID *string
	if in.CommunityID != "" {
		community, err := s.store.Communities.GetByExternalID(ctx, in.CommunityID)
		switch {
		case err == nil:
			communityID = &community.ID
		case !models.IsNotFound(err):
			return nil, fmt.Errorf("failed to create thread: %w", err)
		}
	}

	thread := &models.Thread{
		Text:        text,
		AuthorID:    in.AuthorID,
		CommunityID: communityID,
	}
	err = s.store.InTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		if err := tx.Threads.Create(ctx, thread); err != nil {
			return err
		}
		if err := tx.Users.AppendThread(ctx, in.AuthorID, thread.ID); err != nil {
			return err
		}
		if communityID != nil {
			return tx.Communities.AppendThread(ctx, *communityID, thread.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	observability.ThreadsCreated.WithLabelValues("post").Inc()
	s.revalidator.RevalidatePath(ctx, in.Path)
	return thread, nil
}

func (s *ThreadService) AddComment(ctx context.Context, in AddCommentInput) (*models.Thread, error) {
	text, err := validation.ThreadText(in.Text)
	if err != nil {
		return nil, err
	}

	parent, err := s.store.Threads.GetByID(ctx, in.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	if err := s.requireAuthor(ctx, in.AuthorID); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	reply := &models.Thread{
		Text:     text,
		AuthorID: in.AuthorID,
		ParentID: &parent.ID,
	}
	err = s.store.InTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		if err := tx.Threads.Create(ctx, reply); err != nil {
			return err
		}
		if err := tx.Threads.AppendChild(ctx, parent.ID, reply.ID); err != nil {
			return err
		}
		return tx.Users.AppendThread(ctx, in.AuthorID, reply.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	observability.ThreadsCreated.WithLabelValues("reply").Inc()
	s.revalidator.RevalidatePath(ctx, in.Path)
	return reply, nil
}

// DeleteThread removes a thread, every reply beneath it and all references
// to them. Concurrent calls for the same thread and requester share one run.
func (s *ThreadService) DeleteThread(ctx context.Context, in DeleteThreadInput) error {
	_, err, _ := s.deletes.Do(in.ThreadID+"|"+in.RequesterID, func() (any, error) {
		return nil, s.cascade(ctx, in)
	})
	return err
}

func (s *ThreadService) cascade(ctx context.Context, in DeleteThreadInput) (err error) {
	span, ctx := observability.StartSpan(ctx, "thread.delete", attribute.String("thread.id", in.ThreadID))
	defer func() { span.End(err) }()
	defer observability.TrackStoreOp("delete_cascade", "threads")()

	target, err := s.store.Threads.GetByID(ctx, in.ThreadID)
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	if in.RequesterID != "" && target.AuthorID != in.RequesterID {
		return models.NewUnauthorizedError("Not authorized to delete this thread")
	}

	descendants, err := threadtree.Descendants(ctx, target.ID, s.store.Threads.ListChildren)
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}

	all := append([]*models.Thread{target}, descendants...)
	ids := threadtree.IDs(all)

	var authorIDs, communityIDs []string
	for _, t := range all {
		authorIDs = append(authorIDs, t.AuthorID)
		if t.CommunityID != nil {
			communityIDs = append(communityIDs, *t.CommunityID)
		}
	}
	authorIDs = distinct(authorIDs)
	communityIDs = distinct(communityIDs)

	var deleted int64
	err = s.store.InTx(ctx, func(ctx context.Context, tx *repository.Store) error {
		var err error
		if deleted, err = tx.Threads.DeleteMany(ctx, ids); err != nil {
			return err
		}
		if err := tx.Users.PullThreads(ctx, authorIDs, ids); err != nil {
			return err
		}
		if err := tx.Communities.PullThreads(ctx, communityIDs, ids); err != nil {
			return err
		}
		if !target.IsTopLevel() {
			if err := tx.Threads.PullChildren(ctx, *target.ParentID, []string{target.ID}); err != nil && !models.IsNotFound(err) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}

	depth := 0
	threadtree.BuildIndex(descendants).Walk(target.ID, func(_ *models.Thread, d int) bool {
		depth = max(depth, d)
		return true
	})

	span.AddAttributes(
		attribute.Int("thread.cascade_size", len(ids)),
		attribute.Int("thread.cascade_depth", depth),
	)
	observability.CascadeSize.Observe(float64(len(ids)))
	middleware.Logger.InfoContext(ctx, "thread deleted",
		slog.String("thread_id", target.ID),
		slog.Int("cascade_size", len(ids)),
		slog.Int("cascade_depth", depth),
		slog.Int64("deleted", deleted),
	)

	s.revalidator.RevalidatePath(ctx, in.Path)
	return nil
}

// FetchPosts returns a newest-first page of top-level threads.
func (s *ThreadService) FetchPosts(ctx context.Context, page, size int) (*models.Page[*models.ThreadView], error) {
	page, size, offset := pageBounds(page, size)

	var out models.Page[*models.ThreadView]
	err := s.cache.Aside(ctx, cache.FeedKey(page, size), &out, func() error {
		threads, total, err := s.store.Threads.ListTopLevel(ctx, offset, size)
		if err != nil {
			return err
		}
		views, err := s.populate.views(ctx, threads, 1)
		if err != nil {
			return err
		}
		out = models.Page[*models.ThreadView]{Items: views, IsNext: hasNext(total, offset, len(threads))}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts: %w", err)
	}
	return &out, nil
}

// FetchThreadByID returns a thread with two levels of replies.
func (s *ThreadService) FetchThreadByID(ctx context.Context, id string) (*models.ThreadView, error) {
	var out models.ThreadView
	err := s.cache.Aside(ctx, cache.ThreadKey(id), &out, func() error {
		thread, err := s.store.Threads.GetByID(ctx, id)
		if err != nil {
			return err
		}
		views, err := s.populate.views(ctx, []*models.Thread{thread}, 2)
		if err != nil {
			return err
		}
		out = *views[0]
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch thread: %w", err)
	}
	return &out, nil
}

// GetActivity returns replies other users left on userID's threads, newest first.
func (s *ThreadService) GetActivity(ctx context.Context, userID string) ([]*models.ThreadView, error) {
	own, err := s.store.Threads.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activity: %w", err)
	}
	if len(own) == 0 {
		return []*models.ThreadView{}, nil
	}

	replies, err := s.store.Threads.ListRepliesTo(ctx, threadtree.IDs(own), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activity: %w", err)
	}
	views, err := s.populate.views(ctx, replies, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activity: %w", err)
	}
	return views, nil
}

// requireAuthor checks the author exists. Without a store every write is accepted.
func (s *ThreadService) requireAuthor(ctx context.Context, authorID string) error {
	if s.store.Disabled {
		return nil
	}
	if authorID == "" {
		return models.NewValidationError("Author is required")
	}
	_, err := s.store.Users.GetByID(ctx, authorID)
	return err
}
