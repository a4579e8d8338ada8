package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a social-feed entry.
type Post struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	User        User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Caption     string `gorm:"size:255" json:"caption"`
	Description string `gorm:"type:text" json:"description"`
	// Counters are computed at query time.
	CommentsCount  int            `gorm:"->;-:migration" json:"comments_count"`
	UpvotesCount   int            `gorm:"->;-:migration" json:"upvotes_count"`
	DownvotesCount int            `gorm:"->;-:migration" json:"downvotes_count"`
	Media          []PostMedia    `gorm:"foreignKey:PostID" json:"media,omitempty"`
	Comments       []PostComment  `gorm:"foreignKey:PostID" json:"comments,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// PostMedia attaches an image or video to a post.
type PostMedia struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"user"`
	Image     string    `gorm:"size:500" json:"image"`
	Video     string    `gorm:"size:500" json:"video"`
	CreatedAt time.Time `json:"created_at"`
}

// OwnerID implements Owned.
func (m PostMedia) OwnerID() uint { return m.UserID }

// PostComment is a comment on a post.
type PostComment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PostID     uint      `gorm:"not null;index" json:"post"`
	Post       *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID     uint      `gorm:"not null;index" json:"user"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Comment    string    `gorm:"type:text;not null" json:"comment"`
	LikesCount int       `gorm:"->;-:migration" json:"likes_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// OwnerID implements Owned.
func (c PostComment) OwnerID() uint { return c.UserID }

// LikeComment records a user liking a comment.
type LikeComment struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	CommentID uint         `gorm:"not null;uniqueIndex:idx_like_comment_user" json:"comment"`
	Comment   *PostComment `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_like_comment_user" json:"user"`
	CreatedAt time.Time    `json:"created_at"`
}

// OwnerID implements Owned.
func (l LikeComment) OwnerID() uint { return l.UserID }

// UpvotePost records a user's upvote.
type UpvotePost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_upvote_post_user" json:"post"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_upvote_post_user" json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// OwnerID implements Owned.
func (v UpvotePost) OwnerID() uint { return v.UserID }

// DownvotePost records a user's downvote.
type DownvotePost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_downvote_post_user" json:"post"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_downvote_post_user" json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// OwnerID implements Owned.
func (v DownvotePost) OwnerID() uint { return v.UserID }

// ReportPost flags a post for moderation.
type ReportPost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"user"`
	Reason    string    `gorm:"type:text" json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// OwnerID implements Owned.
func (r ReportPost) OwnerID() uint { return r.UserID }

// Chat is a direct message exchanged inside the social feed.
type Chat struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   uint      `gorm:"not null;index" json:"sender"`
	Sender     *User     `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"-"`
	ReceiverID uint      `gorm:"not null;index" json:"receiver"`
	Receiver   *User     `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"-"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// OwnerID implements Owned.
func (c Chat) OwnerID() uint { return c.SenderID }

// OwnerID implements Owned.
func (p Post) OwnerID() uint { return p.UserID }

// Owned is implemented by rows that belong to a single user.
type Owned interface {
	OwnerID() uint
}
