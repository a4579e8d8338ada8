package repository

import (
	"context"
	"errors"

	"modulehub/internal/models"
	"modulehub/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Vote directions.
const (
	VoteUp   = "up"
	VoteDown = "down"
)

const postCounters = `posts.*,
	(SELECT COUNT(*) FROM post_comments WHERE post_comments.post_id = posts.id) AS comments_count,
	(SELECT COUNT(*) FROM upvote_posts WHERE upvote_posts.post_id = posts.id) AS upvotes_count,
	(SELECT COUNT(*) FROM downvote_posts WHERE downvote_posts.post_id = posts.id) AS downvotes_count`

const commentCounters = `post_comments.*,
	(SELECT COUNT(*) FROM like_comments WHERE like_comments.comment_id = post_comments.id) AS likes_count`

// PostRepository holds the social-feed queries that go beyond plain CRUD.
type PostRepository interface {
	List(ctx context.Context, page Page) ([]models.Post, error)
	GetDetail(ctx context.Context, id uint) (*models.Post, error)
	ListComments(ctx context.Context, scopes ...Scope) ([]models.PostComment, error)
	UserVote(ctx context.Context, postID, userID uint) (string, error)
	Upvote(ctx context.Context, vote *models.UpvotePost) error
	Downvote(ctx context.Context, vote *models.DownvotePost) error
}

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

func (r *postRepository) List(ctx context.Context, page Page) ([]models.Post, error) {
	defer observability.TrackQuery("list", "posts")()
	var posts []models.Post
	q := r.db.WithContext(ctx).
		Select(postCounters).
		Preload("User").
		Order("posts.created_at DESC, posts.id DESC")
	err := page.apply(q).Find(&posts).Error
	return posts, err
}

func (r *postRepository) GetDetail(ctx context.Context, id uint) (*models.Post, error) {
	defer observability.TrackQuery("detail", "posts")()
	var post models.Post
	err := r.db.WithContext(ctx).
		Select(postCounters).
		Preload("User").
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Select(commentCounters).Order("post_comments.created_at ASC")
		}).
		Where("posts.id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListComments(ctx context.Context, scopes ...Scope) ([]models.PostComment, error) {
	var comments []models.PostComment
	q := r.db.WithContext(ctx).Select(commentCounters)
	for _, scope := range scopes {
		q = scope(q)
	}
	err := q.Order("post_comments.created_at DESC").Find(&comments).Error
	return comments, err
}

// UserVote returns VoteUp, VoteDown or "" for the user's vote on the post.
func (r *postRepository) UserVote(ctx context.Context, postID, userID uint) (string, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UpvotePost{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	if count > 0 {
		return VoteUp, nil
	}
	err = r.db.WithContext(ctx).Model(&models.DownvotePost{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	if count > 0 {
		return VoteDown, nil
	}
	return "", nil
}

// Upvote records the vote and drops the user's downvote on the same post.
func (r *postRepository) Upvote(ctx context.Context, vote *models.UpvotePost) error {
	return r.vote(ctx, vote.PostID, vote.UserID, &models.DownvotePost{}, vote)
}

// Downvote records the vote and drops the user's upvote on the same post.
func (r *postRepository) Downvote(ctx context.Context, vote *models.DownvotePost) error {
	return r.vote(ctx, vote.PostID, vote.UserID, &models.UpvotePost{}, vote)
}

func (r *postRepository) vote(ctx context.Context, postID, userID uint, opposite, row any) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(opposite).Error; err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(row).Error
	})
	if err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			r.log.LogError(ctx, err, "vote")
		}
		return err
	}
	r.log.LogCreate(ctx, map[string]any{"post_id": postID, "user_id": userID})
	return nil
}
