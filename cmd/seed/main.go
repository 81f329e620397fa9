// Command seed fills the configured store with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"threads/internal/bootstrap"
	"threads/internal/config"
	"threads/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.Users, "Number of users to create")
	numCommunities := flag.Int("communities", defaults.Communities, "Number of communities to create")
	numPosts := flag.Int("posts", defaults.Posts, "Number of top-level posts to create")
	maxReplies := flag.Int("replies", defaults.MaxReplies, "Maximum replies per post")
	maxDepth := flag.Int("depth", defaults.MaxDepth, "Maximum reply depth")
	seedValue := flag.Int64("seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer func() { _ = rt.Close(ctx) }()

	if rt.Store.Disabled {
		log.Fatal("DATABASE_URL is not set; nothing to seed")
	}

	res, err := seed.Seed(ctx, rt.Store, seed.Options{
		Users:       *numUsers,
		Communities: *numCommunities,
		Posts:       *numPosts,
		MaxReplies:  *maxReplies,
		MaxDepth:    *maxDepth,
		Seed:        *seedValue,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d users, %d communities, %d posts, %d replies",
		len(res.Users), len(res.Communities), len(res.Posts), res.Replies)
}
