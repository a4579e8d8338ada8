package models

import "time"

// VideoSource identifies where a video is hosted.
type VideoSource string

const (
	VideoSourceLocal   VideoSource = "local"
	VideoSourceVimeo   VideoSource = "vimeo"
	VideoSourceYouTube VideoSource = "youtube"
)

// Valid reports whether s is a known source.
func (s VideoSource) Valid() bool {
	switch s {
	case VideoSourceLocal, VideoSourceVimeo, VideoSourceYouTube:
		return true
	}
	return false
}

// Image is an uploaded picture. A nil UserID marks it public.
type Image struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        *uint     `gorm:"index" json:"-"`
	User          *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Path          string    `gorm:"not null" json:"-"`
	ThumbnailPath string    `json:"-"`
	ContentType   string    `gorm:"size:64" json:"-"`
	SizeBytes     int64     `json:"-"`
	Width         int       `json:"-"`
	Height        int       `json:"-"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// Video is an uploaded or linked clip. A nil UserID marks it public.
type Video struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        *uint       `gorm:"index" json:"-"`
	User          *User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Path          string      `json:"-"`
	ThumbnailPath string      `json:"-"`
	URL           string      `gorm:"size:500" json:"-"`
	Source        VideoSource `gorm:"size:10;default:'local'" json:"source"`
	CreatedAt     time.Time   `gorm:"index" json:"created_at"`
}
