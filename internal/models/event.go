package models

import "time"

// Session is a scheduled talk of the corporate event.
type Session struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	Title         string              `gorm:"size:255;not null" json:"title"`
	Date          string              `gorm:"size:10;index" json:"date"`
	StartTime     string              `gorm:"size:8" json:"start_time"`
	SessionNumber int                 `json:"session_number"`
	Image         string              `gorm:"size:500" json:"image"`
	Sort          int                 `gorm:"default:0" json:"sort"`
	Description   string              `gorm:"type:text" json:"description"`
	Attachments   []SessionAttachment `gorm:"foreignKey:SessionID" json:"attachments"`
	CreatedAt     time.Time           `json:"-"`
	UpdatedAt     time.Time           `json:"-"`
}

// SessionAttachment is a file attached to a session.
type SessionAttachment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"not null;index" json:"session"`
	Session   *Session  `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
	Name      string    `gorm:"size:255" json:"name"`
	File      string    `gorm:"size:500" json:"file"`
	CreatedAt time.Time `json:"created_at"`
}

// Activity is a side activity of the corporate event.
type Activity struct {
	ID          uint                 `gorm:"primaryKey" json:"id"`
	Title       string               `gorm:"size:255;not null" json:"title"`
	Date        string               `gorm:"size:10;index" json:"date"`
	StartTime   string               `gorm:"size:8" json:"start_time"`
	Location    string               `gorm:"size:255" json:"location"`
	Image       string               `gorm:"size:500" json:"image"`
	Description string               `gorm:"type:text" json:"description"`
	Attachments []ActivityAttachment `gorm:"foreignKey:ActivityID" json:"attachments"`
	CreatedAt   time.Time            `json:"-"`
	UpdatedAt   time.Time            `json:"-"`
}

// TableName specifies the table name for GORM
func (Activity) TableName() string {
	return "activities"
}

// ActivityAttachment is a file attached to an activity.
type ActivityAttachment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActivityID uint      `gorm:"not null;index" json:"activity"`
	Activity   *Activity `gorm:"foreignKey:ActivityID;constraint:OnDelete:CASCADE" json:"-"`
	Name       string    `gorm:"size:255" json:"name"`
	File       string    `gorm:"size:500" json:"file"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserSession marks a user as attending a session.
type UserSession struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_session" json:"user"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	SessionID uint      `gorm:"not null;uniqueIndex:idx_user_session" json:"session_id"`
	Session   Session   `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// UserActivity marks a user as attending an activity.
type UserActivity struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_user_activity" json:"user"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ActivityID uint      `gorm:"not null;uniqueIndex:idx_user_activity" json:"activity_id"`
	Activity   Activity  `gorm:"foreignKey:ActivityID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (UserActivity) TableName() string {
	return "user_activities"
}

// ConnectProfile is the networking card of an attendee.
type ConnectProfile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"-"`
	User        User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Image       string    `gorm:"size:500" json:"image"`
	Designation string    `gorm:"size:255" json:"designation"`
	Company     string    `gorm:"size:255" json:"company"`
	Bio         string    `gorm:"type:text" json:"bio"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserConnectRequest asks another attendee to connect.
type UserConnectRequest struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	RequesterID uint          `gorm:"not null;uniqueIndex:idx_connect_request_users" json:"requester"`
	Requester   *User         `gorm:"foreignKey:RequesterID;constraint:OnDelete:CASCADE" json:"-"`
	ReceiverID  uint          `gorm:"not null;uniqueIndex:idx_connect_request_users" json:"receiver"`
	Receiver    *User         `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"-"`
	Status      RequestStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Team member groupings.
const (
	TeamSelectTeam  = "team"
	TeamSelectBoard = "board"
)

// TeamMember lists a connect profile on the team or board page.
type TeamMember struct {
	ID               uint           `gorm:"primaryKey" json:"-"`
	Select           string         `gorm:"column:select_group;size:10;index" json:"select"`
	ConnectProfileID uint           `gorm:"not null;index" json:"-"`
	ConnectUser      ConnectProfile `gorm:"foreignKey:ConnectProfileID;constraint:OnDelete:CASCADE" json:"connect_user"`
	CreatedAt        time.Time      `json:"-"`
}

// Offering is an entry of the offerings page.
type Offering struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Image       string    `gorm:"size:500" json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
