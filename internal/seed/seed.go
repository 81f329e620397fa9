package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"threads/internal/middleware"
	"threads/internal/models"
	"threads/internal/repository"
)

// Options sizes a seeding run.
type Options struct {
	Users       int
	Communities int
	Posts       int
	// MaxReplies bounds the replies attached below each post.
	MaxReplies int
	// MaxDepth bounds how deep reply chains grow.
	MaxDepth int
	Seed     int64
}

// Result summarises what a run created.
type Result struct {
	Users       []*models.User
	Communities []*models.Community
	Posts       []*models.Thread
	Replies     int
}

// DefaultOptions returns a small but connected data set.
func DefaultOptions() Options {
	return Options{Users: 20, Communities: 3, Posts: 60, MaxReplies: 6, MaxDepth: 3}
}

// Seed populates store with users, communities, posts and reply trees.
func Seed(ctx context.Context, store *repository.Store, opts Options) (*Result, error) {
	if opts.Users < 1 {
		return nil, fmt.Errorf("seed needs at least one user")
	}
	if opts.MaxDepth < 1 {
		opts.MaxDepth = 1
	}

	f := NewFactory(store, opts.Seed)
	r := rand.New(rand.NewSource(opts.Seed))
	res := &Result{}

	for i := 0; i < opts.Users; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		res.Users = append(res.Users, u)
	}

	for i := 0; i < opts.Communities; i++ {
		c, err := f.CreateCommunity(ctx, res.Users[r.Intn(len(res.Users))])
		if err != nil {
			return nil, fmt.Errorf("failed to create community: %w", err)
		}
		for _, u := range res.Users {
			if r.Intn(2) == 0 {
				if err := f.JoinCommunity(ctx, c, u); err != nil {
					return nil, fmt.Errorf("failed to join community: %w", err)
				}
			}
		}
		res.Communities = append(res.Communities, c)
	}

	for i := 0; i < opts.Posts; i++ {
		author := res.Users[r.Intn(len(res.Users))]

		var community *models.Community
		if len(res.Communities) > 0 && r.Intn(3) == 0 {
			community = res.Communities[r.Intn(len(res.Communities))]
		}

		post, err := f.CreatePost(ctx, author, community)
		if err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		res.Posts = append(res.Posts, post)

		// reply chains: each reply attaches to the post or an earlier reply
		tree := []*models.Thread{post}
		depth := map[string]int{post.ID: 0}
		replies := 0
		if opts.MaxReplies > 0 {
			replies = r.Intn(opts.MaxReplies + 1)
		}
		for j := 0; j < replies; j++ {
			parent := tree[r.Intn(len(tree))]
			if depth[parent.ID] >= opts.MaxDepth {
				parent = post
			}
			reply, err := f.CreateReply(ctx, parent, res.Users[r.Intn(len(res.Users))])
			if err != nil {
				return nil, fmt.Errorf("failed to create reply: %w", err)
			}
			depth[reply.ID] = depth[parent.ID] + 1
			tree = append(tree, reply)
			res.Replies++
		}
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		slog.Int("users", len(res.Users)),
		slog.Int("communities", len(res.Communities)),
		slog.Int("posts", len(res.Posts)),
		slog.Int("replies", res.Replies),
	)
	return res, nil
}
