package server

import (
	"modulehub/internal/models"
	"modulehub/internal/repository"
	"modulehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type followRequestBody struct {
	Receiver uint `json:"receiver" validate:"required"`
}

type followStatusBody struct {
	Status models.RequestStatus `json:"status" validate:"required,request_status"`
}

type likeRequestBody struct {
	Comment uint `json:"comment" validate:"required"`
}

type voteRequestBody struct {
	Post uint `json:"post" validate:"required"`
}

// Likes and votes carry no editable fields; updating them only re-checks ownership.
type emptyPatch struct{}

func (s *Server) socialFeedRoutes(r fiber.Router) {
	protected := r.Group("", s.AuthRequired())

	posts := protected.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Post("/", s.CreatePost)
	posts.Get("/:id", s.GetPost)
	s.writable(posts, updateRow[models.Post, service.PostPatch](s, s.feedService.Posts),
		deleteRow(s, s.feedService.Posts))

	media := protected.Group("/post_media")
	media.Get("/", s.ListPostMedia)
	media.Post("/", s.CreatePostMedia)
	media.Get("/:id", getRow(s, s.feedService.Media))
	s.writable(media, updateRow[models.PostMedia, service.MediaPatch](s, s.feedService.Media),
		deleteRow(s, s.feedService.Media))

	reports := protected.Group("/report_post")
	reports.Get("/", s.ListReports)
	reports.Post("/", s.CreateReport)
	reports.Get("/:id", getRow(s, s.feedService.Reports))
	s.writable(reports, updateRow[models.ReportPost, service.ReportPatch](s, s.feedService.Reports),
		deleteRow(s, s.feedService.Reports))

	follows := protected.Group("/follow_request")
	follows.Get("/", s.ListFollowRequests)
	follows.Post("/", s.CreateFollowRequest)
	follows.Get("/:id", getRow(s, s.feedService.Follows))
	s.writable(follows, s.AnswerFollowRequest, deleteRow(s, s.feedService.Follows))

	comments := protected.Group("/post_comment")
	comments.Get("/", s.ListComments)
	comments.Post("/", s.CreateComment)
	comments.Get("/:id", getRow(s, s.feedService.Comments))
	s.writable(comments, updateRow[models.PostComment, service.CommentPatch](s, s.feedService.Comments),
		deleteRow(s, s.feedService.Comments))

	likes := protected.Group("/like_comment")
	likes.Get("/", s.ListLikes)
	likes.Post("/", s.CreateLike)
	likes.Get("/:id", getRow(s, s.feedService.Likes))
	s.writable(likes, updateRow[models.LikeComment, emptyPatch](s, s.feedService.Likes),
		deleteRow(s, s.feedService.Likes))

	upvotes := protected.Group("/upvote_post")
	upvotes.Get("/", s.ListUpvotes)
	upvotes.Post("/", s.CreateUpvote)
	upvotes.Get("/:id", getRow(s, s.feedService.Upvotes))
	s.writable(upvotes, updateRow[models.UpvotePost, emptyPatch](s, s.feedService.Upvotes),
		deleteRow(s, s.feedService.Upvotes))

	downvotes := protected.Group("/downvote_post")
	downvotes.Get("/", s.ListDownvotes)
	downvotes.Post("/", s.CreateDownvote)
	downvotes.Get("/:id", getRow(s, s.feedService.Downvotes))
	s.writable(downvotes, updateRow[models.DownvotePost, emptyPatch](s, s.feedService.Downvotes),
		deleteRow(s, s.feedService.Downvotes))

	chats := protected.Group("/chat")
	chats.Get("/", s.ListFeedChats)
	chats.Post("/", s.CreateFeedChat)
	chats.Get("/:id", getRow(s, s.feedService.Chats))
	s.writable(chats, updateRow[models.Chat, service.ChatPatch](s, s.feedService.Chats),
		deleteRow(s, s.feedService.Chats))
}

// writable registers PUT, PATCH and DELETE on /:id.
func (s *Server) writable(g fiber.Router, update, remove fiber.Handler) {
	g.Put("/:id", update)
	g.Patch("/:id", update)
	g.Delete("/:id", remove)
}

func getRow[T models.Owned](s *Server, res *service.Resource[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.parseID(c)
		if err != nil {
			return nil
		}
		actor, err := s.actor(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		row, err := res.Read(c.UserContext(), actor, id)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		return c.JSON(row)
	}
}

// updateRow merges a P body into the caller's row. Fields left empty are kept.
func updateRow[T models.Owned, P any](s *Server, res *service.Resource[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.parseID(c)
		if err != nil {
			return nil
		}
		var patch P
		if len(c.Body()) > 0 {
			if err := bind(c, &patch); err != nil {
				return nil
			}
		}
		actor, err := s.actor(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		row, err := res.Update(c.UserContext(), actor, id, &patch)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		return c.JSON(row)
	}
}

func deleteRow[T models.Owned](s *Server, res *service.Resource[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.parseID(c)
		if err != nil {
			return nil
		}
		actor, err := s.actor(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if err := res.Delete(c.UserContext(), actor, id); err != nil {
			return models.RespondWithAppError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// created answers a create call with 201 or the service error.
func created(c *fiber.Ctx, row any, err error) error {
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(row)
}

// listed answers a list call with the rows or the service error.
func listed(c *fiber.Ctx, rows any, err error) error {
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(rows)
}

// ListPosts handles GET /modules/social-feed/posts
// @Summary List posts, newest first
// @Description Summary representation with media, comment and vote counts.
// @Tags social-feed
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset"
// @Success 200 {array} models.Post
// @Router /modules/social-feed/posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	posts, err := s.feedService.ListPosts(c.UserContext(), parsePagination(c, defaultPageLimit))
	return listed(c, posts, err)
}

// GetPost handles GET /modules/social-feed/posts/:id
// @Summary Post detail with media, comments and the caller's vote
// @Tags social-feed
// @Security BearerAuth
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} service.PostDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /modules/social-feed/posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}
	post, err := s.feedService.GetPost(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /modules/social-feed/posts
// @Summary Publish a post
// @Tags social-feed
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.PostInput true "Post"
// @Success 201 {object} models.Post
// @Router /modules/social-feed/posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var in service.PostInput
	if err := bind(c, &in); err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	post, err := s.feedService.CreatePost(c.UserContext(), actor, in)
	return created(c, post, err)
}

// ListPostMedia handles GET /modules/social-feed/post_media?post=
func (s *Server) ListPostMedia(c *fiber.Ctx) error {
	rows, err := s.feedService.Media.List(c.UserContext(),
		repository.ByColumn("post_id", uint(c.QueryInt("post", 0))))
	return listed(c, rows, err)
}

// CreatePostMedia handles POST /modules/social-feed/post_media
func (s *Server) CreatePostMedia(c *fiber.Ctx) error {
	var in service.MediaInput
	if err := bind(c, &in); err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	row, err := s.feedService.AddMedia(c.UserContext(), actor, in)
	return created(c, row, err)
}

// ListReports handles GET /modules/social-feed/report_post
func (s *Server) ListReports(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	rows, err := s.feedService.ListReports(c.UserContext(), actor)
	return listed(c, rows, err)
}

// CreateReport handles POST /modules/social-feed/report_post
func (s *Server) CreateReport(c *fiber.Ctx) error {
	var in service.ReportInput
	if err := bind(c, &in); err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	row, err := s.feedService.Report(c.UserContext(), actor, in)
	return created(c, row, err)
}

// ListFollowRequests handles GET /modules/social-feed/follow_request
func (s *Server) ListFollowRequests(c *fiber.Ctx) error {
	rows, err := s.feedService.ListFollows(c.UserContext(), service.Actor{UserID: currentUserID(c)})
	return listed(c, rows, err)
}

// CreateFollowRequest handles POST /modules/social-feed/follow_request
func (s *Server) CreateFollowRequest(c *fiber.Ctx) error {
	var req followRequestBody
	if err := bind(c, &req); err != nil {
		return nil
	}
	row, err := s.feedService.RequestFollow(c.UserContext(), service.Actor{UserID: currentUserID(c)}, req.Receiver)
	return created(c, row, err)
}

// AnswerFollowRequest handles PUT|PATCH /modules/social-feed/follow_request/:id
// @Summary Accept or reject a follow request
// @Description Only the receiver (or an admin) may change the status.
// @Tags social-feed
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Follow request ID"
// @Param request body followStatusBody true "New status"
// @Success 200 {object} models.FollowRequest
// @Failure 403 {object} models.ErrorResponse
// @Router /modules/social-feed/follow_request/{id} [patch]
func (s *Server) AnswerFollowRequest(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}
	var req followStatusBody
	if err := bind(c, &req); err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	row, err := s.feedService.AnswerFollow(c.UserContext(), actor, id, req.Status)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(row)
}

// ListComments handles GET /modules/social-feed/post_comment?post=
func (s *Server) ListComments(c *fiber.Ctx) error {
	rows, err := s.feedService.ListComments(c.UserContext(), uint(c.QueryInt("post", 0)))
	return listed(c, rows, err)
}

// CreateComment handles POST /modules/social-feed/post_comment
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var in service.CommentInput
	if err := bind(c, &in); err != nil {
		return nil
	}
	row, err := s.feedService.Comment(c.UserContext(), service.Actor{UserID: currentUserID(c)}, in)
	return created(c, row, err)
}

// ListLikes handles GET /modules/social-feed/like_comment?comment=
func (s *Server) ListLikes(c *fiber.Ctx) error {
	rows, err := s.feedService.Likes.List(c.UserContext(),
		repository.ByColumn("comment_id", uint(c.QueryInt("comment", 0))))
	return listed(c, rows, err)
}

// CreateLike handles POST /modules/social-feed/like_comment
func (s *Server) CreateLike(c *fiber.Ctx) error {
	var req likeRequestBody
	if err := bind(c, &req); err != nil {
		return nil
	}
	row, err := s.feedService.LikeComment(c.UserContext(), service.Actor{UserID: currentUserID(c)}, req.Comment)
	return created(c, row, err)
}

// ListUpvotes handles GET /modules/social-feed/upvote_post?post=
func (s *Server) ListUpvotes(c *fiber.Ctx) error {
	rows, err := s.feedService.Upvotes.List(c.UserContext(),
		repository.ByColumn("post_id", uint(c.QueryInt("post", 0))))
	return listed(c, rows, err)
}

// CreateUpvote handles POST /modules/social-feed/upvote_post
// @Summary Upvote a post
// @Description Replaces the caller's downvote on the same post. Voting twice is a 400.
// @Tags social-feed
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body voteRequestBody true "Post to upvote"
// @Success 201 {object} models.UpvotePost
// @Failure 400 {object} models.ErrorResponse
// @Router /modules/social-feed/upvote_post [post]
func (s *Server) CreateUpvote(c *fiber.Ctx) error {
	var req voteRequestBody
	if err := bind(c, &req); err != nil {
		return nil
	}
	row, err := s.feedService.Upvote(c.UserContext(), service.Actor{UserID: currentUserID(c)}, req.Post)
	return created(c, row, err)
}

// ListDownvotes handles GET /modules/social-feed/downvote_post?post=
func (s *Server) ListDownvotes(c *fiber.Ctx) error {
	rows, err := s.feedService.Downvotes.List(c.UserContext(),
		repository.ByColumn("post_id", uint(c.QueryInt("post", 0))))
	return listed(c, rows, err)
}

// CreateDownvote handles POST /modules/social-feed/downvote_post
func (s *Server) CreateDownvote(c *fiber.Ctx) error {
	var req voteRequestBody
	if err := bind(c, &req); err != nil {
		return nil
	}
	row, err := s.feedService.Downvote(c.UserContext(), service.Actor{UserID: currentUserID(c)}, req.Post)
	return created(c, row, err)
}

// ListFeedChats handles GET /modules/social-feed/chat
func (s *Server) ListFeedChats(c *fiber.Ctx) error {
	rows, err := s.feedService.ListChats(c.UserContext(), service.Actor{UserID: currentUserID(c)})
	return listed(c, rows, err)
}

// CreateFeedChat handles POST /modules/social-feed/chat
func (s *Server) CreateFeedChat(c *fiber.Ctx) error {
	var in service.ChatInput
	if err := bind(c, &in); err != nil {
		return nil
	}
	row, err := s.feedService.SendChat(c.UserContext(), service.Actor{UserID: currentUserID(c)}, in)
	return created(c, row, err)
}
