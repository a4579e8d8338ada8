// Package seed provides helpers to create demo data for development and tests.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"modulehub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db       *gorm.DB
	opts     Options
	faker    *gofakeit.Faker
	rng      *rand.Rand
	password string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a Factory bound to db. db may be nil in DryRun mode.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	f := &Factory{
		db:     db,
		opts:   opts,
		faker:  gofakeit.New(seed),
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // seeding only
		nextID: 1000,
	}
	if opts.SkipBcrypt {
		f.password = DefaultPassword
	} else {
		hashed, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		f.password = string(hashed)
	}
	return f
}

func (f *Factory) persist(row any, id *uint) error {
	if f.opts.DryRun {
		f.nextID++
		*id = f.nextID
		return nil
	}
	return f.db.Create(row).Error
}

// pastTime spreads created_at over the last MaxDays days.
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

// CreateUser persists a fake user. Overrides run before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	first, last := f.faker.FirstName(), f.faker.LastName()
	handle := strings.ToLower(first + "." + last)
	suffix := f.faker.Number(100, 99999)
	user := &models.User{
		Name:     first + " " + last,
		Username: fmt.Sprintf("%s%d", handle, suffix),
		Email:    fmt.Sprintf("%s%d@example.com", handle, suffix),
		Password: f.password,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.persist(user, &user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost returns an unsaved post by user with a realistic created_at.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		UserID:      user.ID,
		Caption:     strings.TrimSuffix(f.faker.Sentence(6), "."),
		Description: f.faker.Paragraph(1, 3, 12, "\n"),
		CreatedAt:   f.pastTime(),
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost persists a post with one picture attached.
func (f *Factory) CreatePost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(user, overrides...)
	if err := f.persist(post, &post.ID); err != nil {
		return nil, err
	}
	media := &models.PostMedia{
		PostID:    post.ID,
		UserID:    user.ID,
		Image:     fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID()),
		CreatedAt: post.CreatedAt,
	}
	if err := f.persist(media, &media.ID); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment by user on post.
func (f *Factory) CreateComment(user *models.User, post *models.Post) (*models.PostComment, error) {
	comment := &models.PostComment{
		PostID:    post.ID,
		UserID:    user.ID,
		Comment:   f.faker.Sentence(f.faker.Number(4, 16)),
		CreatedAt: post.CreatedAt.Add(time.Duration(f.rng.Intn(48)) * time.Hour),
	}
	if err := f.persist(comment, &comment.ID); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateVote persists an upvote or a downvote by user on post.
func (f *Factory) CreateVote(user *models.User, post *models.Post, up bool) error {
	if up {
		vote := &models.UpvotePost{PostID: post.ID, UserID: user.ID}
		return f.persist(vote, &vote.ID)
	}
	vote := &models.DownvotePost{PostID: post.ID, UserID: user.ID}
	return f.persist(vote, &vote.ID)
}

// CreateMessage persists a direct chat message.
func (f *Factory) CreateMessage(sender, receiver *models.User) (*models.ChatMessage, error) {
	msg := &models.ChatMessage{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Message:    f.faker.Sentence(f.faker.Number(3, 12)),
		CreatedAt:  f.pastTime(),
	}
	if err := f.persist(msg, &msg.ID); err != nil {
		return nil, err
	}
	return msg, nil
}

// CreateConnectProfile persists the event directory card of user.
func (f *Factory) CreateConnectProfile(user *models.User) (*models.ConnectProfile, error) {
	profile := &models.ConnectProfile{
		UserID:      user.ID,
		Image:       fmt.Sprintf("https://i.pravatar.cc/300?u=%d", user.ID),
		Designation: f.faker.JobTitle(),
		Company:     f.faker.Company(),
		Bio:         f.faker.Sentence(14),
	}
	if err := f.persist(profile, &profile.ID); err != nil {
		return nil, err
	}
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateConnectProfile: user=%d company=%q", user.ID, profile.Company)
	}
	return profile, nil
}

// CreatePublicVideo persists an ownerless external video shown on every wall.
func (f *Factory) CreatePublicVideo() (*models.Video, error) {
	youtubeIDs := []string{"dQw4w9WgXcQ", "9bZkp7q19f0", "3JZ_D3ELwOQ", "L_jWHffIx5E", "kXYiU_JCYtU"}
	id := youtubeIDs[f.rng.Intn(len(youtubeIDs))]
	video := &models.Video{
		URL:       "https://www.youtube.com/watch?v=" + id,
		Source:    models.VideoSourceYouTube,
		CreatedAt: f.pastTime(),
	}
	if err := f.persist(video, &video.ID); err != nil {
		return nil, err
	}
	return video, nil
}
