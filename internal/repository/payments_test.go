package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"modulehub/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPaymentRepository_SetCustomerID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPaymentRepository(db)

	tests := []struct {
		name         string
		mockBehavior func()
		wantErr      error
	}{
		{
			name: "Success",
			mockBehavior: func() {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "stripe_user_profiles" SET "stripe_cus_id"=$1,"updated_at"=$2 WHERE user_id = $3`)).
					WithArgs("cus_123", sqlmock.AnyArg(), 1).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "Missing profile",
			mockBehavior: func() {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "stripe_user_profiles" SET "stripe_cus_id"=$1,"updated_at"=$2 WHERE user_id = $3`)).
					WithArgs("cus_123", sqlmock.AnyArg(), 1).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
			wantErr: gorm.ErrRecordNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			err := repo.SetCustomerID(context.Background(), 1, "cus_123")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPaymentRepository_SubscriptionLifecycle(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()
	u := createUser(t, db, "Ada", "ada@example.com")

	plan := &models.SubscriptionPlan{PriceID: "price_basic", Price: 9.99, Name: "Basic", IsActive: true}
	require.NoError(t, repo.SavePlan(ctx, plan))

	_, err := repo.GetSubscription(ctx, u.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	sub := &models.UserSubscription{UserID: u.ID, TierID: &plan.ID, SubscriptionID: "sub_1", IsActive: true}
	require.NoError(t, repo.SaveSubscription(ctx, sub, models.SubscriptionActionCreate, map[string]string{"id": "sub_1"}))

	got, err := repo.GetSubscriptionByProviderID(ctx, "sub_1")
	require.NoError(t, err)
	require.NotNil(t, got.Tier)
	assert.Equal(t, "price_basic", got.Tier.PriceID)

	got.Tier, got.TierID, got.SubscriptionID, got.IsActive = nil, nil, "", false
	require.NoError(t, repo.SaveSubscription(ctx, got, models.SubscriptionActionCancel, nil))

	after, err := repo.GetSubscription(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, after.TierID)
	assert.False(t, after.IsActive)

	history, err := repo.ListHistory(ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.SubscriptionActionCreate, history[0].Action)
	assert.JSONEq(t, `{"id":"sub_1"}`, string(history[0].Result))
	assert.Equal(t, models.SubscriptionActionCancel, history[1].Action)

	_, err = repo.GetSubscriptionByProviderID(ctx, "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPaymentRepository_RecordInvoiceOnce(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()
	u := createUser(t, db, "Ada", "ada@example.com")
	sub := &models.UserSubscription{UserID: u.ID, SubscriptionID: "sub_1", IsActive: true}
	require.NoError(t, repo.SaveSubscription(ctx, sub, models.SubscriptionActionCreate, nil))

	inv := func() *models.SubscriptionInvoice {
		return &models.SubscriptionInvoice{SubscriptionID: sub.ID, InvoiceID: "in_1", AmountPaid: 999, Date: time.Now()}
	}
	created, err := repo.RecordInvoice(ctx, inv())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.RecordInvoice(ctx, inv())
	require.NoError(t, err)
	assert.False(t, created)
}

func TestPaymentRepository_CustomerAndSettings(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()
	u := createUser(t, db, "Ada", "ada@example.com")

	require.NoError(t, repo.SetCustomerID(ctx, u.ID, "cus_9"))
	uid, err := repo.FindUserIDByCustomer(ctx, "cus_9")
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)

	require.NoError(t, repo.UpsertStripeSetting(ctx, &models.StripeSetting{UserID: u.ID, IsWalletConnect: true, ApplicationFee: 10}))
	require.NoError(t, repo.UpsertStripeSetting(ctx, &models.StripeSetting{UserID: u.ID, IsWalletConnect: false, ApplicationFee: 5}))

	s, err := repo.GetStripeSetting(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, s.IsWalletConnect)
	assert.Equal(t, 5, s.ApplicationFee)

	require.NoError(t, repo.LogWebhook(ctx, "ping", []byte(`{"id":"evt_1"}`)))
	var logs []models.StripeWebhookLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "ping", logs[0].Type)
}

func TestPaymentRepository_InactiveCatalogRowsStayInactive(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	hidden := &models.SubscriptionPlan{PriceID: "price_hidden", Name: "Hidden", IsActive: false}
	require.NoError(t, repo.SavePlan(ctx, hidden))
	require.NoError(t, repo.SavePlan(ctx, &models.SubscriptionPlan{PriceID: "price_live", Name: "Live", IsActive: true}))
	require.NoError(t, repo.CreateAppleProduct(ctx, &models.AppleIAPProduct{Name: "Retired", ProductID: "retired", IsActive: false}))
	require.NoError(t, repo.CreateAppleProduct(ctx, &models.AppleIAPProduct{Name: "Gold", ProductID: "gold", IsActive: true}))

	var stored models.SubscriptionPlan
	require.NoError(t, db.First(&stored, hidden.ID).Error)
	assert.False(t, stored.IsActive)

	plans, err := repo.ListActivePlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "price_live", plans[0].PriceID)

	_, err = repo.GetActivePlanByPriceID(ctx, "price_hidden")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	products, err := repo.ListActiveAppleProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "gold", products[0].ProductID)
}
