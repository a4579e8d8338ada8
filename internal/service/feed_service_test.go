package service

import (
	"context"
	"testing"

	"modulehub/internal/models"
	"modulehub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupFeed(t *testing.T) (*FeedService, *gorm.DB) {
	t.Helper()
	db := setupDB(t)
	svc := NewFeedService(repository.NewPostRepository(db), repository.NewUserRepository(db), repository.NewFeedStores(db))
	return svc, db
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok, "expected *models.AppError, got %T", err)
	return appErr.Code
}

func TestFeedService_OwnershipRules(t *testing.T) {
	svc, db := setupFeed(t)
	ctx := context.Background()
	alice := Actor{UserID: seedUser(t, db, "alice").ID}
	bob := Actor{UserID: seedUser(t, db, "bob").ID}
	admin := Actor{UserID: seedUser(t, db, "root").ID, IsAdmin: true}

	post, err := svc.CreatePost(ctx, alice, PostInput{Caption: "  hello ", Description: "first"})
	require.NoError(t, err)
	assert.Equal(t, "hello", post.Caption)

	_, err = svc.Posts.Update(ctx, bob, post.ID, PostPatch{Caption: "hijacked"})
	assert.Equal(t, models.CodeForbidden, appCode(t, err))
	assert.Equal(t, models.CodeForbidden, appCode(t, svc.Posts.Delete(ctx, bob, post.ID)))

	updated, err := svc.Posts.Update(ctx, alice, post.ID, PostPatch{Caption: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Caption)
	assert.Equal(t, "first", updated.Description, "empty patch fields are left untouched")

	_, err = svc.AddMedia(ctx, bob, MediaInput{Post: post.ID, Image: "img/x.png"})
	assert.Equal(t, models.CodeForbidden, appCode(t, err))

	require.NoError(t, svc.Posts.Delete(ctx, admin, post.ID))
	_, err = svc.Posts.Get(ctx, post.ID)
	assert.Equal(t, models.CodeNotFound, appCode(t, err))
}

func TestFeedService_VotesAreExclusive(t *testing.T) {
	svc, db := setupFeed(t)
	ctx := context.Background()
	alice := Actor{UserID: seedUser(t, db, "alice").ID}
	bob := Actor{UserID: seedUser(t, db, "bob").ID}

	post, err := svc.CreatePost(ctx, alice, PostInput{Caption: "vote"})
	require.NoError(t, err)

	_, err = svc.Upvote(ctx, bob, post.ID)
	require.NoError(t, err)
	_, err = svc.Upvote(ctx, bob, post.ID)
	assert.Equal(t, models.CodeValidation, appCode(t, err))

	_, err = svc.Downvote(ctx, bob, post.ID)
	require.NoError(t, err)

	detail, err := svc.GetPost(ctx, bob.UserID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, detail.UpvotesCount)
	assert.Equal(t, 1, detail.DownvotesCount)
	assert.Equal(t, repository.VoteDown, detail.UserVote)
	assert.NotNil(t, detail.Media)
	assert.NotNil(t, detail.Comments)

	_, err = svc.Upvote(ctx, bob, 999)
	assert.Equal(t, models.CodeNotFound, appCode(t, err))
}

func TestFeedService_CommentsAndLikes(t *testing.T) {
	svc, db := setupFeed(t)
	ctx := context.Background()
	alice := Actor{UserID: seedUser(t, db, "alice").ID}
	bob := Actor{UserID: seedUser(t, db, "bob").ID}

	post, err := svc.CreatePost(ctx, alice, PostInput{Caption: "c"})
	require.NoError(t, err)
	comment, err := svc.Comment(ctx, bob, CommentInput{Post: post.ID, Comment: "nice"})
	require.NoError(t, err)

	_, err = svc.LikeComment(ctx, alice, comment.ID)
	require.NoError(t, err)
	_, err = svc.LikeComment(ctx, alice, comment.ID)
	assert.Equal(t, models.CodeValidation, appCode(t, err))

	comments, err := svc.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, 1, comments[0].LikesCount)

	none, err := svc.ListComments(ctx, post.ID+100)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.Comments.Update(ctx, alice, comment.ID, CommentPatch{Comment: "mine now"})
	assert.Equal(t, models.CodeForbidden, appCode(t, err))
}

func TestFeedService_FollowRequests(t *testing.T) {
	svc, db := setupFeed(t)
	ctx := context.Background()
	alice := Actor{UserID: seedUser(t, db, "alice").ID}
	bob := Actor{UserID: seedUser(t, db, "bob").ID}
	carol := Actor{UserID: seedUser(t, db, "carol").ID}

	_, err := svc.RequestFollow(ctx, alice, alice.UserID)
	assert.Equal(t, models.CodeValidation, appCode(t, err))

	req, err := svc.RequestFollow(ctx, alice, bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, req.Status)

	_, err = svc.RequestFollow(ctx, alice, bob.UserID)
	assert.Equal(t, models.CodeValidation, appCode(t, err))

	_, err = svc.AnswerFollow(ctx, alice, req.ID, models.RequestStatusAccepted)
	assert.Equal(t, models.CodeForbidden, appCode(t, err))
	_, err = svc.AnswerFollow(ctx, bob, req.ID, "maybe")
	assert.Equal(t, models.CodeValidation, appCode(t, err))

	answered, err := svc.AnswerFollow(ctx, bob, req.ID, models.RequestStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, answered.Status)

	mine, err := svc.ListFollows(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	others, err := svc.ListFollows(ctx, carol)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestFeedService_ChatsAndReports(t *testing.T) {
	svc, db := setupFeed(t)
	ctx := context.Background()
	alice := Actor{UserID: seedUser(t, db, "alice").ID}
	bob := Actor{UserID: seedUser(t, db, "bob").ID}
	carol := Actor{UserID: seedUser(t, db, "carol").ID}

	first, err := svc.SendChat(ctx, alice, ChatInput{Receiver: bob.UserID, Message: "hi"})
	require.NoError(t, err)
	_, err = svc.Chats.Read(ctx, bob, first.ID)
	require.NoError(t, err)
	_, err = svc.Chats.Read(ctx, carol, first.ID)
	assert.Equal(t, models.CodeNotFound, appCode(t, err))
	_, err = svc.SendChat(ctx, bob, ChatInput{Receiver: alice.UserID, Message: "hey"})
	require.NoError(t, err)
	_, err = svc.SendChat(ctx, carol, ChatInput{Receiver: bob.UserID, Message: "yo"})
	require.NoError(t, err)
	_, err = svc.SendChat(ctx, alice, ChatInput{Receiver: 999, Message: "?"})
	assert.Equal(t, models.CodeNotFound, appCode(t, err))

	chats, err := svc.ListChats(ctx, alice)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "hi", chats[0].Message)
	assert.Equal(t, "hey", chats[1].Message)

	post, err := svc.CreatePost(ctx, alice, PostInput{Caption: "r"})
	require.NoError(t, err)
	report, err := svc.Report(ctx, bob, ReportInput{Post: post.ID, Reason: "spam"})
	require.NoError(t, err)
	_, err = svc.Reports.Read(ctx, alice, report.ID)
	assert.Equal(t, models.CodeNotFound, appCode(t, err), "only the reporter and admins see a report")

	own, err := svc.ListReports(ctx, carol)
	require.NoError(t, err)
	assert.Empty(t, own)
	all, err := svc.ListReports(ctx, Actor{UserID: carol.UserID, IsAdmin: true})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
