// Command main runs the database seeder for Postboard.
package main

import (
	"context"
	"flag"
	"log"

	"postboard/internal/bootstrap"
	"postboard/internal/config"
	"postboard/internal/seed"
)

func main() {
	numPosts := flag.Int("posts", 40, "Number of posts to create")
	numUsers := flag.Int("users", 20, "Number of distinct fake user identifiers")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Printf("Target: %d posts from %d users, clean=%v\n", *numPosts, *numUsers, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{Migrate: true, SkipRedis: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	s := seed.NewSeeder(db, seed.SeedOptions{Users: *numUsers, MaxLikes: 8, MaxComments: 5})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	posts, err := s.SeedPosts(context.Background(), *numPosts)
	if err != nil {
		log.Fatalf("Seeding failed after %d posts: %v", len(posts), err)
	}

	log.Printf("Seeded %d posts.", len(posts))
}
