package seed

import (
	"fmt"
	"log"

	"modulehub/internal/database"
	"modulehub/internal/models"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	// DryRun builds entities without writing them.
	DryRun     bool
	SkipBcrypt bool
	MaxDays    int
	// RandSeed makes runs reproducible when non-zero.
	RandSeed int64
	// Catalog overrides the embedded reference data.
	Catalog *Catalog
}

// Summary counts what a Seed run created.
type Summary struct {
	Users    int
	Posts    int
	Comments int
	Votes    int
	Messages int
	Videos   int
}

// Seed applies the catalog and fills every module with fake activity.
func Seed(db *gorm.DB, opts Options) (*Summary, error) {
	log.Printf("🌱 Seeding %d users and %d posts (dry-run=%v)", opts.NumUsers, opts.NumPosts, opts.DryRun)

	if opts.ShouldClean && !opts.DryRun {
		if err := ClearAll(db); err != nil {
			return nil, fmt.Errorf("clean: %w", err)
		}
	}

	cat := opts.Catalog
	if cat == nil {
		var err error
		if cat, err = DefaultCatalog(); err != nil {
			return nil, err
		}
	}
	if !opts.DryRun {
		if err := ApplyCatalog(db, cat); err != nil {
			return nil, err
		}
		log.Printf("✓ catalog applied: %d plans, %d sessions", len(cat.Plans), len(cat.Sessions))
	}

	f := NewFactory(db, opts)
	sum := &Summary{}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		if _, err := f.CreateConnectProfile(u); err != nil {
			return nil, fmt.Errorf("create connect profile: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	log.Printf("✓ %d users created", sum.Users)
	if len(users) == 0 {
		return sum, nil
	}

	for i := 0; i < opts.NumPosts; i++ {
		author := users[f.rng.Intn(len(users))]
		post, err := f.CreatePost(author)
		if err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		sum.Posts++

		// Each other user comments or votes at most once per post.
		for _, u := range users {
			if u.ID == author.ID {
				continue
			}
			switch f.rng.Intn(6) {
			case 0:
				if _, err := f.CreateComment(u, post); err != nil {
					return nil, fmt.Errorf("create comment: %w", err)
				}
				sum.Comments++
			case 1, 2:
				if err := f.CreateVote(u, post, true); err != nil {
					return nil, fmt.Errorf("create upvote: %w", err)
				}
				sum.Votes++
			case 3:
				if err := f.CreateVote(u, post, false); err != nil {
					return nil, fmt.Errorf("create downvote: %w", err)
				}
				sum.Votes++
			}
		}
	}
	log.Printf("✓ %d posts, %d comments, %d votes", sum.Posts, sum.Comments, sum.Votes)

	for i := 1; i < len(users); i++ {
		for j := 0; j < 3; j++ {
			sender, receiver := users[0], users[i]
			if j%2 == 1 {
				sender, receiver = receiver, sender
			}
			if _, err := f.CreateMessage(sender, receiver); err != nil {
				return nil, fmt.Errorf("create message: %w", err)
			}
			sum.Messages++
		}
	}

	for i := 0; i < 3; i++ {
		if _, err := f.CreatePublicVideo(); err != nil {
			return nil, fmt.Errorf("create video: %w", err)
		}
		sum.Videos++
	}

	log.Printf("✓ %d messages, %d public videos", sum.Messages, sum.Videos)
	return sum, nil
}

// ClearAll deletes every row of every schema-managed table, children first.
func ClearAll(db *gorm.DB) error {
	all := database.PersistentModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(all[i]).Error; err != nil {
			return fmt.Errorf("clear %T: %w", all[i], err)
		}
	}
	return nil
}
