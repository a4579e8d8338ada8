package models

import (
	"time"

	"gorm.io/datatypes"
)

// StripeUserProfile links a user to their billing-provider customer.
type StripeUserProfile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	StripeCusID *string   `gorm:"uniqueIndex;size:120" json:"stripe_cus_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CustomerID returns the provider customer id or "" when none was created yet.
func (p *StripeUserProfile) CustomerID() string {
	if p == nil || p.StripeCusID == nil {
		return ""
	}
	return *p.StripeCusID
}

// StripeSetting configures per-user payment routing.
type StripeSetting struct {
	ID              uint `gorm:"primaryKey" json:"id"`
	UserID          uint `gorm:"uniqueIndex;not null" json:"user_id"`
	User            User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	IsWalletConnect bool `gorm:"default:false" json:"is_wallet_connect"`
	// ApplicationFee is a percentage of the charged amount.
	ApplicationFee int       `gorm:"default:0" json:"application_fee"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AppleIAPProduct is a product sold through Apple in-app purchases.
type AppleIAPProduct struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	ProductID string    `gorm:"uniqueIndex;size:255;not null" json:"product_id"`
	IsActive  bool      `gorm:"not null;default:false" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppleIAPReceipt records one receipt verification attempt.
type AppleIAPReceipt struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"index;not null" json:"user_id"`
	User            User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ProductID       string    `gorm:"size:255" json:"product_id"`
	TransactionID   string    `gorm:"index;size:255" json:"transaction_id"`
	TransactionDate string    `gorm:"size:64" json:"transaction_date"`
	Sandbox         bool      `json:"sandbox"`
	Verified        bool      `json:"verified"`
	CreatedAt       time.Time `json:"created_at"`
}

// SubscriptionPlan mirrors a billing-provider price.
type SubscriptionPlan struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PriceID     string    `gorm:"uniqueIndex;size:255;not null" json:"price_id"`
	Price       float64   `gorm:"type:decimal(10,2);default:0" json:"price"`
	PlanType    string    `gorm:"size:50" json:"plan_type"`
	Interval    string    `gorm:"size:50" json:"interval"`
	Name        string    `gorm:"size:255" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null;default:false" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserSubscription is the caller's current recurring plan.
type UserSubscription struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	UserID         uint              `gorm:"uniqueIndex;not null" json:"user_id"`
	User           User              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TierID         *uint             `gorm:"index" json:"tier_id"`
	Tier           *SubscriptionPlan `gorm:"foreignKey:TierID;constraint:OnDelete:SET NULL" json:"tier,omitempty"`
	SubscriptionID string            `gorm:"index;size:255" json:"subscription_id"`
	IsActive       bool              `gorm:"default:false" json:"is_active"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Subscription history actions.
const (
	SubscriptionActionCreate        = "create"
	SubscriptionActionUpdate        = "update"
	SubscriptionActionCancel        = "cancel"
	SubscriptionActionSync          = "sync"
	SubscriptionActionDeleted       = "deleted"
	SubscriptionActionPaymentFailed = "payment_failed"
)

// UserSubscriptionHistory is an append-only audit row for a subscription.
type UserSubscriptionHistory struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	SubscriptionID uint             `gorm:"index;not null" json:"sub_id"`
	Subscription   UserSubscription `gorm:"foreignKey:SubscriptionID;constraint:OnDelete:CASCADE" json:"-"`
	Action         string           `gorm:"size:50" json:"action"`
	Result         datatypes.JSON   `json:"result"`
	CreatedAt      time.Time        `json:"created_at"`
}

// SubscriptionInvoice records a paid invoice for a subscription.
type SubscriptionInvoice struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	SubscriptionID uint             `gorm:"index;not null" json:"sub_id"`
	Subscription   UserSubscription `gorm:"foreignKey:SubscriptionID;constraint:OnDelete:CASCADE" json:"-"`
	InvoiceID      string           `gorm:"uniqueIndex;size:255" json:"invoice_id"`
	AmountPaid     int64            `json:"amount_paid"`
	Date           time.Time        `json:"date"`
}

// StripeWebhookLog stores every received provider event verbatim.
type StripeWebhookLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Type      string         `gorm:"index;size:255" json:"type"`
	Data      datatypes.JSON `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
}
