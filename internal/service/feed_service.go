package service

import (
	"context"
	"strings"

	"modulehub/internal/models"
	"modulehub/internal/repository"

	"github.com/jinzhu/copier"
)

// Actor identifies the caller of a feed operation.
type Actor struct {
	UserID  uint
	IsAdmin bool
}

func (a Actor) mayModify(row models.Owned) bool {
	return a.IsAdmin || row.OwnerID() == a.UserID
}

// Resource is owner-checked CRUD over one feed table. Rows of a private
// resource are readable only by the users visible admits and by admins.
type Resource[T models.Owned] struct {
	name    string
	store   repository.Store[T]
	visible func(Actor, T) bool
}

func newResource[T models.Owned](name string, store repository.Store[T]) *Resource[T] {
	return &Resource[T]{name: name, store: store}
}

// List returns every row matching scopes.
func (r *Resource[T]) List(ctx context.Context, scopes ...repository.Scope) ([]T, error) {
	rows, err := r.store.List(ctx, scopes...)
	if err != nil {
		return nil, translate(err, r.name, nil)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

func (r *Resource[T]) private(visible func(Actor, T) bool) *Resource[T] {
	r.visible = visible
	return r
}

// Get returns one row.
func (r *Resource[T]) Get(ctx context.Context, id uint) (*T, error) {
	row, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, translate(err, r.name, id)
	}
	return row, nil
}

// Read returns one row actor may see. A row hidden from actor reads as missing.
func (r *Resource[T]) Read(ctx context.Context, actor Actor, id uint) (*T, error) {
	row, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.visible != nil && !actor.IsAdmin && !r.visible(actor, *row) {
		return nil, models.NewNotFoundError(r.name, id)
	}
	return row, nil
}

// Update merges the non-empty fields of patch into the row owned by actor.
func (r *Resource[T]) Update(ctx context.Context, actor Actor, id uint, patch any) (*T, error) {
	row, err := r.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := copier.CopyWithOption(row, patch, copier.Option{IgnoreEmpty: true}); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.store.Update(ctx, row); err != nil {
		return nil, translate(err, r.name, id)
	}
	return row, nil
}

// Delete removes the row owned by actor.
func (r *Resource[T]) Delete(ctx context.Context, actor Actor, id uint) error {
	if _, err := r.owned(ctx, actor, id); err != nil {
		return err
	}
	return translate(r.store.Delete(ctx, id), r.name, id)
}

func (r *Resource[T]) create(ctx context.Context, row *T) (*T, error) {
	if err := r.store.Create(ctx, row); err != nil {
		return nil, translate(err, r.name, nil)
	}
	return row, nil
}

func (r *Resource[T]) owned(ctx context.Context, actor Actor, id uint) (*T, error) {
	row, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.mayModify(*row) {
		return nil, models.NewForbiddenError("You do not have permission to modify this " + r.name)
	}
	return row, nil
}

// PostInput creates a post.
type PostInput struct {
	Caption     string `json:"caption" validate:"max=255"`
	Description string `json:"description"`
}

// PostPatch updates a post. Empty fields are left untouched.
type PostPatch struct {
	Caption     string `json:"caption" validate:"max=255"`
	Description string `json:"description"`
}

// MediaInput attaches an image or video to a post.
type MediaInput struct {
	Post  uint   `json:"post" validate:"required"`
	Image string `json:"image" validate:"required_without=Video,max=500"`
	Video string `json:"video" validate:"max=500"`
}

// MediaPatch updates post media.
type MediaPatch struct {
	Image string `json:"image" validate:"max=500"`
	Video string `json:"video" validate:"max=500"`
}

// ReportInput flags a post.
type ReportInput struct {
	Post   uint   `json:"post" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

// ReportPatch updates a report.
type ReportPatch struct {
	Reason string `json:"reason"`
}

// CommentInput comments on a post.
type CommentInput struct {
	Post    uint   `json:"post" validate:"required"`
	Comment string `json:"comment" validate:"required"`
}

// CommentPatch updates a comment.
type CommentPatch struct {
	Comment string `json:"comment"`
}

// ChatInput sends a direct message.
type ChatInput struct {
	Receiver uint   `json:"receiver" validate:"required"`
	Message  string `json:"message" validate:"required"`
}

// ChatPatch edits a direct message.
type ChatPatch struct {
	Message string `json:"message"`
}

// PostDetail is a post with its media, comments and the caller's vote.
type PostDetail struct {
	models.Post
	UserVote string `json:"user_vote"`
}

// FeedService implements the social feed.
type FeedService struct {
	posts repository.PostRepository
	users repository.UserRepository

	Posts     *Resource[models.Post]
	Media     *Resource[models.PostMedia]
	Reports   *Resource[models.ReportPost]
	Follows   *Resource[models.FollowRequest]
	Comments  *Resource[models.PostComment]
	Likes     *Resource[models.LikeComment]
	Upvotes   *Resource[models.UpvotePost]
	Downvotes *Resource[models.DownvotePost]
	Chats     *Resource[models.Chat]
}

// NewFeedService returns a new FeedService.
func NewFeedService(posts repository.PostRepository, users repository.UserRepository, stores repository.FeedStores) *FeedService {
	return &FeedService{
		posts:     posts,
		users:     users,
		Posts:     newResource("Post", stores.Posts),
		Media:     newResource("Post media", stores.Media),
		Reports:   newResource("Report", stores.Reports).private(reportedBy),
		Follows:   newResource("Follow request", stores.Follows).private(betweenFollow),
		Comments:  newResource("Comment", stores.Comments),
		Likes:     newResource("Like", stores.Likes),
		Upvotes:   newResource("Upvote", stores.Upvotes),
		Downvotes: newResource("Downvote", stores.Downvotes),
		Chats:     newResource("Chat", stores.Chats).private(betweenChat),
	}
}

func reportedBy(a Actor, r models.ReportPost) bool { return r.UserID == a.UserID }

func betweenFollow(a Actor, f models.FollowRequest) bool {
	return f.SenderID == a.UserID || f.ReceiverID == a.UserID
}

func betweenChat(a Actor, c models.Chat) bool {
	return c.SenderID == a.UserID || c.ReceiverID == a.UserID
}

// ListPosts returns posts newest first with their counters.
func (s *FeedService) ListPosts(ctx context.Context, page repository.Page) ([]models.Post, error) {
	posts, err := s.posts.List(ctx, page)
	if err != nil {
		return nil, translate(err, "Post", nil)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

// GetPost returns the detail representation of a post for userID.
func (s *FeedService) GetPost(ctx context.Context, userID, id uint) (*PostDetail, error) {
	post, err := s.posts.GetDetail(ctx, id)
	if err != nil {
		return nil, translate(err, "Post", id)
	}
	vote, err := s.posts.UserVote(ctx, id, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if post.Media == nil {
		post.Media = []models.PostMedia{}
	}
	if post.Comments == nil {
		post.Comments = []models.PostComment{}
	}
	return &PostDetail{Post: *post, UserVote: vote}, nil
}

// CreatePost publishes a post as actor.
func (s *FeedService) CreatePost(ctx context.Context, actor Actor, in PostInput) (*models.Post, error) {
	return s.Posts.create(ctx, &models.Post{
		UserID:      actor.UserID,
		Caption:     strings.TrimSpace(in.Caption),
		Description: in.Description,
	})
}

// ListComments returns comments with like counts, optionally for one post.
func (s *FeedService) ListComments(ctx context.Context, postID uint) ([]models.PostComment, error) {
	comments, err := s.posts.ListComments(ctx, repository.ByColumn("post_comments.post_id", postID))
	if err != nil {
		return nil, translate(err, "Comment", nil)
	}
	if comments == nil {
		comments = []models.PostComment{}
	}
	return comments, nil
}

// AddMedia attaches media to a post owned by actor.
func (s *FeedService) AddMedia(ctx context.Context, actor Actor, in MediaInput) (*models.PostMedia, error) {
	if _, err := s.Posts.owned(ctx, actor, in.Post); err != nil {
		return nil, err
	}
	return s.Media.create(ctx, &models.PostMedia{
		PostID: in.Post,
		UserID: actor.UserID,
		Image:  in.Image,
		Video:  in.Video,
	})
}

// Report flags a post.
func (s *FeedService) Report(ctx context.Context, actor Actor, in ReportInput) (*models.ReportPost, error) {
	if _, err := s.Posts.Get(ctx, in.Post); err != nil {
		return nil, err
	}
	return s.Reports.create(ctx, &models.ReportPost{PostID: in.Post, UserID: actor.UserID, Reason: in.Reason})
}

// Comment adds a comment to a post.
func (s *FeedService) Comment(ctx context.Context, actor Actor, in CommentInput) (*models.PostComment, error) {
	if _, err := s.Posts.Get(ctx, in.Post); err != nil {
		return nil, err
	}
	return s.Comments.create(ctx, &models.PostComment{PostID: in.Post, UserID: actor.UserID, Comment: in.Comment})
}

// LikeComment records actor liking a comment. Liking twice is a validation error.
func (s *FeedService) LikeComment(ctx context.Context, actor Actor, commentID uint) (*models.LikeComment, error) {
	if _, err := s.Comments.Get(ctx, commentID); err != nil {
		return nil, err
	}
	return s.Likes.create(ctx, &models.LikeComment{CommentID: commentID, UserID: actor.UserID})
}

// Upvote records an upvote and removes actor's downvote on the same post.
func (s *FeedService) Upvote(ctx context.Context, actor Actor, postID uint) (*models.UpvotePost, error) {
	if _, err := s.Posts.Get(ctx, postID); err != nil {
		return nil, err
	}
	vote := &models.UpvotePost{PostID: postID, UserID: actor.UserID}
	if err := s.posts.Upvote(ctx, vote); err != nil {
		return nil, translate(err, "Upvote", nil)
	}
	return vote, nil
}

// Downvote records a downvote and removes actor's upvote on the same post.
func (s *FeedService) Downvote(ctx context.Context, actor Actor, postID uint) (*models.DownvotePost, error) {
	if _, err := s.Posts.Get(ctx, postID); err != nil {
		return nil, err
	}
	vote := &models.DownvotePost{PostID: postID, UserID: actor.UserID}
	if err := s.posts.Downvote(ctx, vote); err != nil {
		return nil, translate(err, "Downvote", nil)
	}
	return vote, nil
}

// RequestFollow asks receiverID for permission to follow them.
func (s *FeedService) RequestFollow(ctx context.Context, actor Actor, receiverID uint) (*models.FollowRequest, error) {
	if receiverID == actor.UserID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}
	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		return nil, translate(err, "User", receiverID)
	}
	return s.Follows.create(ctx, &models.FollowRequest{
		SenderID:   actor.UserID,
		ReceiverID: receiverID,
		Status:     models.RequestStatusPending,
	})
}

// AnswerFollow sets the status of a follow request. Only the receiver (or an admin) may answer.
func (s *FeedService) AnswerFollow(ctx context.Context, actor Actor, id uint, status models.RequestStatus) (*models.FollowRequest, error) {
	if !status.Valid() {
		return nil, models.NewFieldValidationError(map[string]string{"status": "must be one of pending, accepted, rejected"})
	}
	req, err := s.Follows.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ReceiverID != actor.UserID && !actor.IsAdmin {
		return nil, models.NewForbiddenError("Only the receiver can answer a follow request")
	}
	req.Status = status
	if err := s.Follows.store.Update(ctx, req); err != nil {
		return nil, translate(err, "Follow request", id)
	}
	return req, nil
}

// ListFollows returns the follow requests sent or received by actor.
func (s *FeedService) ListFollows(ctx context.Context, actor Actor) ([]models.FollowRequest, error) {
	return s.Follows.List(ctx, repository.Involving("sender_id", "receiver_id", actor.UserID))
}

// SendChat stores a direct message from actor.
func (s *FeedService) SendChat(ctx context.Context, actor Actor, in ChatInput) (*models.Chat, error) {
	if _, err := s.users.GetByID(ctx, in.Receiver); err != nil {
		return nil, translate(err, "User", in.Receiver)
	}
	return s.Chats.create(ctx, &models.Chat{SenderID: actor.UserID, ReceiverID: in.Receiver, Message: in.Message})
}

// ListChats returns the messages sent and received by actor.
func (s *FeedService) ListChats(ctx context.Context, actor Actor) ([]models.Chat, error) {
	return s.Chats.List(ctx, repository.Involving("sender_id", "receiver_id", actor.UserID))
}

// ListReports returns reports filed by actor, or every report for admins.
func (s *FeedService) ListReports(ctx context.Context, actor Actor) ([]models.ReportPost, error) {
	if actor.IsAdmin {
		return s.Reports.List(ctx)
	}
	return s.Reports.List(ctx, repository.ByUser("user_id", actor.UserID))
}
