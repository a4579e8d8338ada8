// Command seed fills the database with the reference catalog and fake activity.
package main

import (
	"flag"
	"log"

	"modulehub/internal/config"
	"modulehub/internal/database"
	"modulehub/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Build entities without writing them")
	fast := flag.Bool("fast", false, "Skip bcrypt; generated users cannot log in")
	catalogPath := flag.String("catalog", "", "YAML catalog to apply instead of the built-in one")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	opts := seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *shouldClean,
		DryRun:      *dryRun,
		SkipBcrypt:  *fast,
		RandSeed:    *randSeed,
	}
	if *catalogPath != "" {
		if opts.Catalog, err = seed.LoadCatalog(*catalogPath); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	sum, err := seed.Seed(db, opts)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Done: %d users, %d posts, %d comments, %d votes, %d messages",
		sum.Users, sum.Posts, sum.Comments, sum.Votes, sum.Messages)
	if !*fast {
		log.Printf("📧 All test users have the password: %s", seed.DefaultPassword)
	}
}
