package database

import "modulehub/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Parents come before children so foreign keys resolve on a clean database.
func PersistentModels() []any {
	return []any{
		&models.User{},

		// payments
		&models.StripeUserProfile{},
		&models.StripeSetting{},
		&models.AppleIAPProduct{},
		&models.AppleIAPReceipt{},
		&models.SubscriptionPlan{},
		&models.UserSubscription{},
		&models.UserSubscriptionHistory{},
		&models.SubscriptionInvoice{},
		&models.StripeWebhookLog{},

		// camera
		&models.Image{},
		&models.Video{},

		// social-feed
		&models.Post{},
		&models.PostMedia{},
		&models.PostComment{},
		&models.LikeComment{},
		&models.UpvotePost{},
		&models.DownvotePost{},
		&models.ReportPost{},
		&models.FollowRequest{},
		&models.Chat{},

		// chat
		&models.ChatMessage{},

		// corporate-event
		&models.Session{},
		&models.SessionAttachment{},
		&models.Activity{},
		&models.ActivityAttachment{},
		&models.UserSession{},
		&models.UserActivity{},
		&models.ConnectProfile{},
		&models.UserConnectRequest{},
		&models.TeamMember{},
		&models.Offering{},
	}
}
