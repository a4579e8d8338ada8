package repository

import (
	"modulehub/internal/models"

	"gorm.io/gorm"
)

// FeedStores groups the plain CRUD tables of the social feed.
type FeedStores struct {
	Posts     Store[models.Post]
	Media     Store[models.PostMedia]
	Reports   Store[models.ReportPost]
	Follows   Store[models.FollowRequest]
	Comments  Store[models.PostComment]
	Likes     Store[models.LikeComment]
	Upvotes   Store[models.UpvotePost]
	Downvotes Store[models.DownvotePost]
	Chats     Store[models.Chat]
}

// NewFeedStores wires every feed table to db.
func NewFeedStores(db *gorm.DB) FeedStores {
	return FeedStores{
		Posts:     NewStore[models.Post](db, "created_at DESC, id DESC"),
		Media:     NewStore[models.PostMedia](db, "id ASC"),
		Reports:   NewStore[models.ReportPost](db, "created_at DESC, id DESC"),
		Follows:   NewStore[models.FollowRequest](db, "created_at DESC, id DESC"),
		Comments:  NewStore[models.PostComment](db, "created_at DESC, id DESC"),
		Likes:     NewStore[models.LikeComment](db, "id ASC"),
		Upvotes:   NewStore[models.UpvotePost](db, "id ASC"),
		Downvotes: NewStore[models.DownvotePost](db, "id ASC"),
		Chats:     NewStore[models.Chat](db, "created_at ASC, id ASC"),
	}
}

// ByColumn restricts rows to column = value, skipping the filter when value is zero.
func ByColumn(column string, value uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if value == 0 {
			return db
		}
		return ByUser(column, value)(db)
	}
}
