package models

import "time"

// RequestStatus is the lifecycle state of a follow or connect request.
type RequestStatus string

const (
	// RequestStatusPending indicates the receiver has not answered yet.
	RequestStatusPending RequestStatus = "pending"
	// RequestStatusAccepted indicates the receiver accepted.
	RequestStatusAccepted RequestStatus = "accepted"
	// RequestStatusRejected indicates the receiver declined.
	RequestStatusRejected RequestStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusRejected:
		return true
	}
	return false
}

// FollowRequest asks another user for permission to follow them.
type FollowRequest struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	SenderID   uint          `gorm:"not null;uniqueIndex:idx_follow_request_users" json:"sender"`
	Sender     *User         `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"-"`
	ReceiverID uint          `gorm:"not null;uniqueIndex:idx_follow_request_users" json:"receiver"`
	Receiver   *User         `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"-"`
	Status     RequestStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// OwnerID implements Owned.
func (f FollowRequest) OwnerID() uint { return f.SenderID }

// TableName specifies the table name for GORM
func (FollowRequest) TableName() string {
	return "follow_requests"
}
