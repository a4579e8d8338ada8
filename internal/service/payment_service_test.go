package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"modulehub/internal/billing"
	"modulehub/internal/models"
	"modulehub/internal/observability"
	"modulehub/internal/repository"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

// stripeStub is a stub for billing.StripeGateway.
type stripeStub struct {
	createCustomerFn func(context.Context, uint, string, string) (string, error)
	paymentSheetFn   func(context.Context, billing.PaymentIntentInput) (*billing.PaymentSheet, error)
	listIntentsFn    func(context.Context, string) ([]*stripe.PaymentIntent, error)
	listMethodsFn    func(context.Context, string) ([]*stripe.PaymentMethod, error)
	createSubFn      func(context.Context, string, string) (*stripe.Subscription, error)
	changeSubFn      func(context.Context, string, string) (*stripe.Subscription, error)
	cancelSubFn      func(context.Context, string) (*stripe.Subscription, error)
	getPriceFn       func(context.Context, string) (*stripe.Price, error)
	parseWebhookFn   func([]byte, string) (stripe.Event, error)
}

func (s *stripeStub) CreateCustomer(ctx context.Context, userID uint, email, name string) (string, error) {
	return s.createCustomerFn(ctx, userID, email, name)
}
func (s *stripeStub) CreatePaymentSheet(ctx context.Context, in billing.PaymentIntentInput) (*billing.PaymentSheet, error) {
	return s.paymentSheetFn(ctx, in)
}
func (s *stripeStub) ListPaymentIntents(ctx context.Context, customerID string) ([]*stripe.PaymentIntent, error) {
	return s.listIntentsFn(ctx, customerID)
}
func (s *stripeStub) ListCardPaymentMethods(ctx context.Context, customerID string) ([]*stripe.PaymentMethod, error) {
	return s.listMethodsFn(ctx, customerID)
}
func (s *stripeStub) CreateSubscription(ctx context.Context, customerID, priceID string) (*stripe.Subscription, error) {
	return s.createSubFn(ctx, customerID, priceID)
}
func (s *stripeStub) ChangeSubscriptionPrice(ctx context.Context, subID, priceID string) (*stripe.Subscription, error) {
	return s.changeSubFn(ctx, subID, priceID)
}
func (s *stripeStub) CancelSubscription(ctx context.Context, subID string) (*stripe.Subscription, error) {
	return s.cancelSubFn(ctx, subID)
}
func (s *stripeStub) GetPrice(ctx context.Context, priceID string) (*stripe.Price, error) {
	return s.getPriceFn(ctx, priceID)
}
func (s *stripeStub) ParseWebhook(payload []byte, sig string) (stripe.Event, error) {
	return s.parseWebhookFn(payload, sig)
}

func noopStripe() *stripeStub {
	return &stripeStub{
		createCustomerFn: func(_ context.Context, _ uint, _, _ string) (string, error) { return "cus_new", nil },
		paymentSheetFn: func(_ context.Context, in billing.PaymentIntentInput) (*billing.PaymentSheet, error) {
			return &billing.PaymentSheet{PaymentIntent: "pi_secret", EphemeralKey: "ek_secret", Customer: in.CustomerID}, nil
		},
		listIntentsFn: func(_ context.Context, _ string) ([]*stripe.PaymentIntent, error) { return nil, nil },
		listMethodsFn: func(_ context.Context, _ string) ([]*stripe.PaymentMethod, error) { return nil, nil },
		createSubFn: func(_ context.Context, _, _ string) (*stripe.Subscription, error) {
			return &stripe.Subscription{ID: "sub_new", Status: stripe.SubscriptionStatusActive}, nil
		},
		changeSubFn: func(_ context.Context, id, _ string) (*stripe.Subscription, error) {
			return &stripe.Subscription{ID: id, Status: stripe.SubscriptionStatusActive}, nil
		},
		cancelSubFn: func(_ context.Context, id string) (*stripe.Subscription, error) {
			return &stripe.Subscription{ID: id, Status: stripe.SubscriptionStatusCanceled}, nil
		},
		getPriceFn: func(_ context.Context, id string) (*stripe.Price, error) {
			return &stripe.Price{ID: id, UnitAmount: 1999, Type: stripe.PriceTypeRecurring,
				Recurring: &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalMonth}}, nil
		},
		parseWebhookFn: func(payload []byte, _ string) (stripe.Event, error) {
			var ev stripe.Event
			err := json.Unmarshal(payload, &ev)
			return ev, err
		},
	}
}

// appleStub is a stub for billing.AppleVerifier.
type appleStub struct {
	verifyFn func(context.Context, string) (billing.VerifyResult, error)
}

func (s *appleStub) Verify(ctx context.Context, receipt string) (billing.VerifyResult, error) {
	return s.verifyFn(ctx, receipt)
}

type paymentFixture struct {
	db     *gorm.DB
	svc    *PaymentService
	stripe *stripeStub
	apple  *appleStub
	user   *models.User
}

func setupPayments(t *testing.T) *paymentFixture {
	t.Helper()
	db := setupDB(t)
	setupCache(t)
	user := seedUser(t, db, "ada")

	f := &paymentFixture{db: db, stripe: noopStripe(), user: user}
	f.apple = &appleStub{verifyFn: func(_ context.Context, _ string) (billing.VerifyResult, error) {
		return billing.VerifyResult{Verified: true, Sandbox: true, Status: billing.AppleStatusSandboxReceipt}, nil
	}}
	f.svc = NewPaymentService(repository.NewPaymentRepository(db), repository.NewUserRepository(db), f.stripe, f.apple, "acct_connected")
	return f
}

func TestPaymentService_PaymentSheetDefaultsAndFee(t *testing.T) {
	f := setupPayments(t)
	ctx := context.Background()

	var got billing.PaymentIntentInput
	f.stripe.paymentSheetFn = func(_ context.Context, in billing.PaymentIntentInput) (*billing.PaymentSheet, error) {
		got = in
		return &billing.PaymentSheet{Customer: in.CustomerID}, nil
	}

	sheet, err := f.svc.PaymentSheet(ctx, f.user.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "cus_new", sheet.Customer)
	assert.Equal(t, int64(DefaultChargeCents), got.Amount)
	assert.Zero(t, got.ApplicationFee)

	customers := 0
	f.stripe.createCustomerFn = func(_ context.Context, _ uint, _, _ string) (string, error) {
		customers++
		return "cus_other", nil
	}
	require.NoError(t, f.svc.SaveStripeSetting(ctx, &models.StripeSetting{UserID: f.user.ID, IsWalletConnect: true, ApplicationFee: 10}))
	_, err = f.svc.PaymentSheet(ctx, f.user.ID, 2500)
	require.NoError(t, err)
	assert.Zero(t, customers, "customer is created only once")
	assert.Equal(t, "cus_new", got.CustomerID)
	assert.Equal(t, int64(250), got.ApplicationFee)
	assert.Equal(t, "acct_connected", got.Destination)
}

func TestPaymentService_PaymentSheetMissingProfile(t *testing.T) {
	f := setupPayments(t)
	require.NoError(t, f.db.Where("user_id = ?", f.user.ID).Delete(&models.StripeUserProfile{}).Error)

	_, err := f.svc.PaymentSheet(context.Background(), f.user.ID, 100)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Equal(t, "Stripe profile not found", appErr.Message)
}

func TestPaymentService_HistoryWithoutCustomerIsEmpty(t *testing.T) {
	f := setupPayments(t)
	f.stripe.listIntentsFn = func(_ context.Context, _ string) ([]*stripe.PaymentIntent, error) {
		t.Fatal("provider must not be called without a customer")
		return nil, nil
	}
	intents, err := f.svc.PaymentHistory(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, intents)
}

func TestPaymentService_BuyUpdateCancel(t *testing.T) {
	f := setupPayments(t)
	ctx := context.Background()

	basic, err := f.svc.SavePlan(ctx, PlanInput{PriceID: "price_basic", Name: "Basic", IsActive: true})
	require.NoError(t, err)
	assert.InDelta(t, 19.99, basic.Price, 0.001)
	assert.Equal(t, "month", basic.Interval)
	_, err = f.svc.SavePlan(ctx, PlanInput{PriceID: "price_pro", Name: "Pro", IsActive: true})
	require.NoError(t, err)

	_, err = f.svc.BuyPlan(ctx, f.user.ID, "price_unknown")
	assert.Equal(t, models.CodeValidation, err.(*models.AppError).Code)

	sub, err := f.svc.BuyPlan(ctx, f.user.ID, "price_basic")
	require.NoError(t, err)
	assert.Equal(t, "sub_new", sub.ID)

	plans, err := f.svc.Plans(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	subscribed := map[string]bool{}
	for _, p := range plans {
		subscribed[p.PriceID] = p.IsSubscribed
	}
	assert.Equal(t, map[string]bool{"price_basic": true, "price_pro": false}, subscribed)

	changed := ""
	f.stripe.changeSubFn = func(_ context.Context, id, price string) (*stripe.Subscription, error) {
		changed = id + ":" + price
		return &stripe.Subscription{ID: id, Status: stripe.SubscriptionStatusActive}, nil
	}
	_, err = f.svc.BuyPlan(ctx, f.user.ID, "price_pro")
	require.NoError(t, err)
	assert.Equal(t, "sub_new:price_pro", changed)

	require.NoError(t, f.svc.CancelPlan(ctx, f.user.ID))
	var local models.UserSubscription
	require.NoError(t, f.db.Where("user_id = ?", f.user.ID).First(&local).Error)
	assert.Empty(t, local.SubscriptionID)
	assert.Nil(t, local.TierID)
	assert.False(t, local.IsActive)

	var actions []string
	require.NoError(t, f.db.Model(&models.UserSubscriptionHistory{}).Order("id").Pluck("action", &actions).Error)
	assert.Equal(t, []string{"create", "update", "cancel"}, actions)

	err = f.svc.CancelPlan(ctx, f.user.ID)
	assert.Equal(t, models.CodeValidation, err.(*models.AppError).Code)
}

func TestPaymentService_Webhook(t *testing.T) {
	f := setupPayments(t)
	ctx := context.Background()
	_, err := f.svc.SavePlan(ctx, PlanInput{PriceID: "price_basic", Name: "Basic", IsActive: true})
	require.NoError(t, err)
	_, err = f.svc.BuyPlan(ctx, f.user.ID, "price_basic")
	require.NoError(t, err)

	err = f.svc.HandleWebhook(ctx, []byte("not json"), "")
	assert.Equal(t, models.CodeValidation, err.(*models.AppError).Code)

	paid := `{"id":"evt_1","type":"invoice.paid","data":{"object":{"id":"in_1","customer":"cus_new","subscription":"sub_new","amount_paid":1999,"created":1700000000}}}`
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(paid), ""))
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(paid), ""))
	var invoices int64
	require.NoError(t, f.db.Model(&models.SubscriptionInvoice{}).Count(&invoices).Error)
	assert.Equal(t, int64(1), invoices)

	deleted := `{"id":"evt_2","type":"customer.subscription.deleted","data":{"object":{"id":"sub_new","object":"subscription","status":"canceled"}}}`
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(deleted), ""))
	var local models.UserSubscription
	require.NoError(t, f.db.Where("user_id = ?", f.user.ID).First(&local).Error)
	assert.False(t, local.IsActive)
	assert.Empty(t, local.SubscriptionID)

	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{"id":"evt_3","type":"charge.refunded","data":{"object":{}}}`), ""))

	var logged int64
	require.NoError(t, f.db.Model(&models.StripeWebhookLog{}).Count(&logged).Error)
	assert.Equal(t, int64(4), logged)
}

func TestPaymentService_WebhookMetricLabelsAreBounded(t *testing.T) {
	f := setupPayments(t)
	ctx := context.Background()

	other := observability.WebhookEvents.WithLabelValues("other", "ignored")
	before := testutil.ToFloat64(other)
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{"id":"evt_a","type":"made.up.first","data":{"object":{}}}`), ""))
	series := testutil.CollectAndCount(observability.WebhookEvents)

	for i := range 5 {
		body := fmt.Sprintf(`{"id":"evt_%d","type":"made.up.%d","data":{"object":{}}}`, i, i)
		require.NoError(t, f.svc.HandleWebhook(ctx, []byte(body), ""))
	}
	assert.Equal(t, series, testutil.CollectAndCount(observability.WebhookEvents), "unknown types share one series")
	assert.InDelta(t, 6, testutil.ToFloat64(other)-before, 0.001)

	assert.Equal(t, EventInvoicePaid, webhookLabel(EventInvoicePaid))
	assert.Equal(t, "other", webhookLabel("charge.refunded"))
}

func TestPaymentService_WebhookSyncsByCustomer(t *testing.T) {
	f := setupPayments(t)
	ctx := context.Background()
	_, err := f.svc.SavePlan(ctx, PlanInput{PriceID: "price_basic", Name: "Basic", IsActive: true})
	require.NoError(t, err)
	_, err = f.svc.EnsureCustomer(ctx, f.user.ID)
	require.NoError(t, err)

	created := `{"id":"evt_9","type":"customer.subscription.created","data":{"object":{"id":"sub_web","object":"subscription","status":"trialing","customer":"cus_new","items":{"object":"list","data":[{"id":"si_1","price":{"id":"price_basic"}}]}}}}`
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(created), ""))

	var local models.UserSubscription
	require.NoError(t, f.db.Where("user_id = ?", f.user.ID).First(&local).Error)
	assert.Equal(t, "sub_web", local.SubscriptionID)
	assert.True(t, local.IsActive)
	require.NotNil(t, local.TierID)
}

func TestPaymentService_VerifyAppleReceipt(t *testing.T) {
	f := setupPayments(t)
	ctx := context.Background()
	in := AppleReceiptInput{ProductID: "com.app.pro", TransactionDate: "2024-01-01", TransactionID: "t1", Receipt: "abc"}

	result, err := f.svc.VerifyAppleReceipt(ctx, f.user.ID, in)
	require.NoError(t, err)
	assert.Equal(t, AppleResultSuccess, result)

	f.apple.verifyFn = func(_ context.Context, _ string) (billing.VerifyResult, error) {
		return billing.VerifyResult{Status: 21002}, nil
	}
	result, err = f.svc.VerifyAppleReceipt(ctx, f.user.ID, in)
	require.NoError(t, err)
	assert.Equal(t, AppleResultFail, result)

	var receipts []models.AppleIAPReceipt
	require.NoError(t, f.db.Order("id").Find(&receipts).Error)
	require.Len(t, receipts, 2)
	assert.True(t, receipts[0].Verified)
	assert.False(t, receipts[1].Verified)
}

func TestApplicationFee(t *testing.T) {
	assert.Equal(t, int64(10), ApplicationFee(100, 10))
	assert.Equal(t, int64(0), ApplicationFee(100, 0))
	assert.Equal(t, int64(33), ApplicationFee(333, 10))
}
