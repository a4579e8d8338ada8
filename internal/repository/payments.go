package repository

import (
	"context"
	"encoding/json"

	"modulehub/internal/models"
	"modulehub/internal/observability"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepository persists billing profiles, plans, subscriptions and
// provider audit rows.
type PaymentRepository interface {
	GetStripeProfile(ctx context.Context, userID uint) (*models.StripeUserProfile, error)
	SetCustomerID(ctx context.Context, userID uint, customerID string) error
	FindUserIDByCustomer(ctx context.Context, customerID string) (uint, error)

	GetStripeSetting(ctx context.Context, userID uint) (*models.StripeSetting, error)
	UpsertStripeSetting(ctx context.Context, setting *models.StripeSetting) error

	ListActivePlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	GetActivePlanByPriceID(ctx context.Context, priceID string) (*models.SubscriptionPlan, error)
	GetPlanByPriceID(ctx context.Context, priceID string) (*models.SubscriptionPlan, error)
	GetPlan(ctx context.Context, id uint) (*models.SubscriptionPlan, error)
	SavePlan(ctx context.Context, plan *models.SubscriptionPlan) error

	GetSubscription(ctx context.Context, userID uint) (*models.UserSubscription, error)
	GetSubscriptionByProviderID(ctx context.Context, subscriptionID string) (*models.UserSubscription, error)
	// SaveSubscription persists sub and appends a history row in one transaction.
	SaveSubscription(ctx context.Context, sub *models.UserSubscription, action string, result any) error
	AppendHistory(ctx context.Context, subscriptionID uint, action string, result any) error
	ListHistory(ctx context.Context, subscriptionID uint) ([]models.UserSubscriptionHistory, error)
	// RecordInvoice inserts the invoice once; it reports false when the invoice was already recorded.
	RecordInvoice(ctx context.Context, inv *models.SubscriptionInvoice) (bool, error)
	LogWebhook(ctx context.Context, eventType string, payload []byte) error

	ListActiveAppleProducts(ctx context.Context) ([]models.AppleIAPProduct, error)
	CreateAppleProduct(ctx context.Context, p *models.AppleIAPProduct) error
	CreateAppleReceipt(ctx context.Context, r *models.AppleIAPReceipt) error
}

type paymentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPaymentRepository returns a new PaymentRepository implementation.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db, log: observability.NewRepoLogger("user_subscriptions")}
}

func (r *paymentRepository) GetStripeProfile(ctx context.Context, userID uint) (*models.StripeUserProfile, error) {
	var p models.StripeUserProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) SetCustomerID(ctx context.Context, userID uint, customerID string) error {
	res := r.db.WithContext(ctx).Model(&models.StripeUserProfile{}).
		Where("user_id = ?", userID).
		Update("stripe_cus_id", customerID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *paymentRepository) FindUserIDByCustomer(ctx context.Context, customerID string) (uint, error) {
	var p models.StripeUserProfile
	if err := r.db.WithContext(ctx).Where("stripe_cus_id = ?", customerID).First(&p).Error; err != nil {
		return 0, err
	}
	return p.UserID, nil
}

func (r *paymentRepository) GetStripeSetting(ctx context.Context, userID uint) (*models.StripeSetting, error) {
	var s models.StripeSetting
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *paymentRepository) UpsertStripeSetting(ctx context.Context, setting *models.StripeSetting) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_wallet_connect", "application_fee", "updated_at"}),
	}).Create(setting).Error
}

func (r *paymentRepository) ListActivePlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	defer observability.TrackQuery("list", "subscription_plans")()
	var plans []models.SubscriptionPlan
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("price ASC, id ASC").Find(&plans).Error
	return plans, err
}

func (r *paymentRepository) GetActivePlanByPriceID(ctx context.Context, priceID string) (*models.SubscriptionPlan, error) {
	var p models.SubscriptionPlan
	err := r.db.WithContext(ctx).Where("price_id = ? AND is_active = ?", priceID, true).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) GetPlanByPriceID(ctx context.Context, priceID string) (*models.SubscriptionPlan, error) {
	var p models.SubscriptionPlan
	if err := r.db.WithContext(ctx).Where("price_id = ?", priceID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) GetPlan(ctx context.Context, id uint) (*models.SubscriptionPlan, error) {
	var p models.SubscriptionPlan
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) SavePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

func (r *paymentRepository) GetSubscription(ctx context.Context, userID uint) (*models.UserSubscription, error) {
	var s models.UserSubscription
	if err := r.db.WithContext(ctx).Preload("Tier").Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *paymentRepository) GetSubscriptionByProviderID(ctx context.Context, subscriptionID string) (*models.UserSubscription, error) {
	var s models.UserSubscription
	err := r.db.WithContext(ctx).Preload("Tier").
		Where("subscription_id = ? AND subscription_id <> ''", subscriptionID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *paymentRepository) SaveSubscription(ctx context.Context, sub *models.UserSubscription, action string, result any) error {
	defer observability.TrackQuery("save", "user_subscriptions")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(sub).Error; err != nil {
			return err
		}
		return createHistory(tx, sub.ID, action, result)
	})
	if err != nil {
		r.log.LogError(ctx, err, action)
		return err
	}
	r.log.LogUpdate(ctx, map[string]any{
		"subscription_id": sub.ID,
		"action":          action,
		"is_active":       sub.IsActive,
	})
	return nil
}

func (r *paymentRepository) AppendHistory(ctx context.Context, subscriptionID uint, action string, result any) error {
	return createHistory(r.db.WithContext(ctx), subscriptionID, action, result)
}

func createHistory(tx *gorm.DB, subscriptionID uint, action string, result any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return tx.Create(&models.UserSubscriptionHistory{
		SubscriptionID: subscriptionID,
		Action:         action,
		Result:         datatypes.JSON(raw),
	}).Error
}

func (r *paymentRepository) ListHistory(ctx context.Context, subscriptionID uint) ([]models.UserSubscriptionHistory, error) {
	var rows []models.UserSubscriptionHistory
	err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *paymentRepository) RecordInvoice(ctx context.Context, inv *models.SubscriptionInvoice) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "invoice_id"}}, DoNothing: true}).
		Create(inv)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *paymentRepository) LogWebhook(ctx context.Context, eventType string, payload []byte) error {
	data := datatypes.JSON(payload)
	if !json.Valid(payload) {
		data = datatypes.JSON("null")
	}
	return r.db.WithContext(ctx).Create(&models.StripeWebhookLog{Type: eventType, Data: data}).Error
}

func (r *paymentRepository) ListActiveAppleProducts(ctx context.Context) ([]models.AppleIAPProduct, error) {
	var products []models.AppleIAPProduct
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&products).Error
	return products, err
}

func (r *paymentRepository) CreateAppleProduct(ctx context.Context, p *models.AppleIAPProduct) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *paymentRepository) CreateAppleReceipt(ctx context.Context, rec *models.AppleIAPReceipt) error {
	return r.db.WithContext(ctx).Create(rec).Error
}
