package repository

import (
	"context"
	"testing"

	"modulehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostRepository_DetailCounters(t *testing.T) {
	db := setupSQLite(t)
	posts := NewPostRepository(db)
	store := NewStore[models.Post](db, "id DESC")
	ctx := context.Background()

	author := createUser(t, db, "Author", "author@example.com")
	reader := createUser(t, db, "Reader", "reader@example.com")

	post := &models.Post{UserID: author.ID, Caption: "hello"}
	require.NoError(t, store.Create(ctx, post))
	comment := &models.PostComment{PostID: post.ID, UserID: reader.ID, Comment: "nice"}
	require.NoError(t, db.Create(comment).Error)
	require.NoError(t, db.Create(&models.LikeComment{CommentID: comment.ID, UserID: author.ID}).Error)
	require.NoError(t, posts.Upvote(ctx, &models.UpvotePost{PostID: post.ID, UserID: reader.ID}))

	detail, err := posts.GetDetail(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.CommentsCount)
	assert.Equal(t, 1, detail.UpvotesCount)
	assert.Equal(t, 0, detail.DownvotesCount)
	assert.Equal(t, "Author", detail.User.Name)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, 1, detail.Comments[0].LikesCount)

	list, err := posts.List(ctx, Page{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].CommentsCount)
}

func TestPostRepository_VotesAreExclusive(t *testing.T) {
	db := setupSQLite(t)
	posts := NewPostRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "Author", "author@example.com")
	voter := createUser(t, db, "Voter", "voter@example.com")
	post := &models.Post{UserID: author.ID, Caption: "vote"}
	require.NoError(t, db.Create(post).Error)

	require.NoError(t, posts.Upvote(ctx, &models.UpvotePost{PostID: post.ID, UserID: voter.ID}))
	vote, err := posts.UserVote(ctx, post.ID, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, VoteUp, vote)

	err = posts.Upvote(ctx, &models.UpvotePost{PostID: post.ID, UserID: voter.ID})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	require.NoError(t, posts.Downvote(ctx, &models.DownvotePost{PostID: post.ID, UserID: voter.ID}))
	vote, err = posts.UserVote(ctx, post.ID, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, VoteDown, vote)

	var ups int64
	require.NoError(t, db.Model(&models.UpvotePost{}).Where("post_id = ?", post.ID).Count(&ups).Error)
	assert.Zero(t, ups)
}

func TestStore_CRUDAndScopes(t *testing.T) {
	db := setupSQLite(t)
	store := NewStore[models.FollowRequest](db, "id ASC")
	ctx := context.Background()

	a := createUser(t, db, "A", "a@example.com")
	b := createUser(t, db, "B", "b@example.com")
	c := createUser(t, db, "C", "c@example.com")

	req := &models.FollowRequest{SenderID: a.ID, ReceiverID: b.ID, Status: models.RequestStatusPending}
	require.NoError(t, store.Create(ctx, req))
	require.NoError(t, store.Create(ctx, &models.FollowRequest{SenderID: c.ID, ReceiverID: a.ID, Status: models.RequestStatusPending}))

	mine, err := store.List(ctx, Involving("sender_id", "receiver_id", b.ID))
	require.NoError(t, err)
	require.Len(t, mine, 1)

	req.Status = models.RequestStatusAccepted
	require.NoError(t, store.Update(ctx, req))
	got, err := store.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, got.Status)

	require.NoError(t, store.Delete(ctx, req.ID))
	assert.ErrorIs(t, store.Delete(ctx, req.ID), gorm.ErrRecordNotFound)

	sent, err := store.List(ctx, ByUser("sender_id", c.ID))
	require.NoError(t, err)
	assert.Len(t, sent, 1)
}
