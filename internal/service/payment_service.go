package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"modulehub/internal/billing"
	"modulehub/internal/cache"
	"modulehub/internal/middleware"
	"modulehub/internal/models"
	"modulehub/internal/observability"
	"modulehub/internal/repository"

	"github.com/stripe/stripe-go/v82"
)

// DefaultChargeCents is the payment sheet amount when the client sends none.
const DefaultChargeCents = 100

// Stripe event types handled by the webhook.
const (
	EventSubscriptionCreated  = "customer.subscription.created"
	EventSubscriptionUpdated  = "customer.subscription.updated"
	EventSubscriptionDeleted  = "customer.subscription.deleted"
	EventInvoicePaid          = "invoice.paid"
	EventInvoicePaymentOK     = "invoice.payment_succeeded"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

// PlanView is a subscription plan as listed to a user.
type PlanView struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	PriceID      string  `json:"price_id"`
	Price        float64 `json:"price"`
	Interval     string  `json:"interval"`
	IsSubscribed bool    `json:"is_subscribed"`
}

// AppleReceiptInput is a receipt submitted by the iOS client.
type AppleReceiptInput struct {
	ProductID       string
	TransactionDate string
	TransactionID   string
	Receipt         string
}

// PlanInput creates or updates a plan. Price fields are pulled from Stripe.
type PlanInput struct {
	PriceID     string
	Name        string
	Description string
	IsActive    bool
}

// Apple verification results returned to clients.
const (
	AppleResultSuccess = "success"
	AppleResultFail    = "fail"
)

type PaymentService struct {
	repo            repository.PaymentRepository
	users           repository.UserRepository
	stripe          billing.StripeGateway
	apple           billing.AppleVerifier
	connectedAcctID string
}

func NewPaymentService(
	repo repository.PaymentRepository,
	users repository.UserRepository,
	stripeGateway billing.StripeGateway,
	apple billing.AppleVerifier,
	connectedAccountID string,
) *PaymentService {
	return &PaymentService{
		repo:            repo,
		users:           users,
		stripe:          stripeGateway,
		apple:           apple,
		connectedAcctID: connectedAccountID,
	}
}

func providerError(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewValidationError(err.Error())
}

// EnsureCustomer returns the user's Stripe customer id, creating the customer on first use.
func (s *PaymentService) EnsureCustomer(ctx context.Context, userID uint) (string, error) {
	profile, err := s.repo.GetStripeProfile(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return "", models.NewValidationError("Stripe profile not found")
		}
		return "", models.NewInternalError(err)
	}
	if id := profile.CustomerID(); id != "" {
		return id, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", translate(err, "User", userID)
	}
	customerID, err := s.stripe.CreateCustomer(ctx, userID, user.Email, user.Name)
	if err != nil {
		return "", providerError(err)
	}
	if err := s.repo.SetCustomerID(ctx, userID, customerID); err != nil {
		return "", models.NewInternalError(err)
	}
	return customerID, nil
}

// customerIfAny returns "" when the user never created a Stripe customer.
func (s *PaymentService) customerIfAny(ctx context.Context, userID uint) (string, error) {
	profile, err := s.repo.GetStripeProfile(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return "", models.NewValidationError("Stripe profile not found")
		}
		return "", models.NewInternalError(err)
	}
	return profile.CustomerID(), nil
}

// PaymentSheet creates the payment intent and ephemeral key for the mobile sheet.
// Wallet-connect users are charged an application fee routed to the connected account.
func (s *PaymentService) PaymentSheet(ctx context.Context, userID uint, cents int64) (*billing.PaymentSheet, error) {
	if cents == 0 {
		cents = DefaultChargeCents
	}
	if cents < 0 {
		return nil, models.NewFieldValidationError(map[string]string{"cents": "Ensure this value is greater than 0."})
	}

	customerID, err := s.EnsureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	in := billing.PaymentIntentInput{CustomerID: customerID, Amount: cents}
	setting, err := s.repo.GetStripeSetting(ctx, userID)
	switch {
	case err == nil && setting.IsWalletConnect:
		in.ApplicationFee = ApplicationFee(cents, setting.ApplicationFee)
		in.Destination = s.connectedAcctID
	case err != nil && !isNotFound(err):
		return nil, models.NewInternalError(err)
	}

	sheet, err := s.stripe.CreatePaymentSheet(ctx, in)
	if err != nil {
		return nil, providerError(err)
	}
	return sheet, nil
}

// ApplicationFee is the platform's cut of cents at percent.
func ApplicationFee(cents int64, percent int) int64 {
	return cents * int64(percent) / 100
}

func (s *PaymentService) PaymentHistory(ctx context.Context, userID uint) ([]*stripe.PaymentIntent, error) {
	customerID, err := s.customerIfAny(ctx, userID)
	if err != nil {
		return nil, err
	}
	if customerID == "" {
		return []*stripe.PaymentIntent{}, nil
	}
	intents, err := s.stripe.ListPaymentIntents(ctx, customerID)
	if err != nil {
		return nil, providerError(err)
	}
	return intents, nil
}

func (s *PaymentService) PaymentMethods(ctx context.Context, userID uint) ([]*stripe.PaymentMethod, error) {
	customerID, err := s.customerIfAny(ctx, userID)
	if err != nil {
		return nil, err
	}
	if customerID == "" {
		return []*stripe.PaymentMethod{}, nil
	}
	methods, err := s.stripe.ListCardPaymentMethods(ctx, customerID)
	if err != nil {
		return nil, providerError(err)
	}
	return methods, nil
}

// Plans lists active plans, flagging the one the user is subscribed to.
func (s *PaymentService) Plans(ctx context.Context, userID uint) ([]PlanView, error) {
	var plans []models.SubscriptionPlan
	err := cache.Aside(ctx, cache.PlansKey, &plans, cache.PlansTTL, func() error {
		var ferr error
		plans, ferr = s.repo.ListActivePlans(ctx)
		return ferr
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	var tierID uint
	if sub, err := s.repo.GetSubscription(ctx, userID); err == nil && sub.TierID != nil {
		tierID = *sub.TierID
	} else if err != nil && !isNotFound(err) {
		return nil, models.NewInternalError(err)
	}

	out := make([]PlanView, 0, len(plans))
	for _, p := range plans {
		out = append(out, PlanView{
			ID:           p.ID,
			Name:         p.Name,
			Description:  p.Description,
			PriceID:      p.PriceID,
			Price:        p.Price,
			Interval:     p.Interval,
			IsSubscribed: tierID != 0 && tierID == p.ID,
		})
	}
	return out, nil
}

// BuyPlan moves the user's existing subscription to the plan or creates a new one.
func (s *PaymentService) BuyPlan(ctx context.Context, userID uint, priceID string) (*stripe.Subscription, error) {
	if priceID == "" {
		return nil, models.NewFieldValidationError(map[string]string{"price_tier": "This field is required."})
	}
	customerID, err := s.EnsureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}
	plan, err := s.repo.GetActivePlanByPriceID(ctx, priceID)
	if err != nil {
		if isNotFound(err) {
			return nil, models.NewValidationError("Subscription plan not found")
		}
		return nil, models.NewInternalError(err)
	}

	local, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		if !isNotFound(err) {
			return nil, models.NewInternalError(err)
		}
		local = &models.UserSubscription{UserID: userID}
	}

	var result *stripe.Subscription
	action := models.SubscriptionActionCreate
	if local.SubscriptionID != "" {
		action = models.SubscriptionActionUpdate
		result, err = s.stripe.ChangeSubscriptionPrice(ctx, local.SubscriptionID, plan.PriceID)
	} else {
		result, err = s.stripe.CreateSubscription(ctx, customerID, plan.PriceID)
	}
	if err != nil {
		return nil, providerError(err)
	}

	local.Tier = nil
	local.TierID = &plan.ID
	local.SubscriptionID = result.ID
	local.IsActive = billing.IsLiveStatus(result.Status)
	if err := s.repo.SaveSubscription(ctx, local, action, result); err != nil {
		return nil, models.NewInternalError(err)
	}
	return result, nil
}

// CancelPlan cancels the provider subscription and clears the local one.
func (s *PaymentService) CancelPlan(ctx context.Context, userID uint) error {
	local, err := s.repo.GetSubscription(ctx, userID)
	if err != nil && !isNotFound(err) {
		return models.NewInternalError(err)
	}
	if local == nil || local.SubscriptionID == "" {
		return models.NewValidationError("No active subscription")
	}

	result, err := s.stripe.CancelSubscription(ctx, local.SubscriptionID)
	if err != nil {
		return providerError(err)
	}

	local.Tier = nil
	local.TierID = nil
	local.SubscriptionID = ""
	local.IsActive = false
	if err := s.repo.SaveSubscription(ctx, local, models.SubscriptionActionCancel, result); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// HandleWebhook verifies and records a Stripe event and applies it to local state.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.stripe.ParseWebhook(payload, signature)
	if err != nil {
		observability.WebhookEvents.WithLabelValues("unknown", "invalid").Inc()
		return models.NewValidationError(err.Error())
	}
	eventType := string(event.Type)
	label := webhookLabel(eventType)

	if err := s.repo.LogWebhook(ctx, eventType, payload); err != nil {
		observability.WebhookEvents.WithLabelValues(label, "error").Inc()
		return models.NewInternalError(err)
	}

	outcome := "handled"
	switch eventType {
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		err = s.syncSubscription(ctx, event)
	case EventSubscriptionDeleted:
		err = s.deleteSubscription(ctx, event)
	case EventInvoicePaid, EventInvoicePaymentOK:
		err = s.recordInvoice(ctx, event)
	case EventInvoicePaymentFailed:
		err = s.recordPaymentFailure(ctx, event)
	default:
		outcome = "ignored"
		middleware.Logger.InfoContext(ctx, "unhandled stripe event", "type", eventType, "event_id", event.ID)
	}
	if err != nil {
		observability.WebhookEvents.WithLabelValues(label, "error").Inc()
		middleware.Logger.ErrorContext(ctx, "stripe event failed", "type", eventType, "event_id", event.ID, "error", err)
		return translate(err, "Subscription", event.ID)
	}
	observability.WebhookEvents.WithLabelValues(label, outcome).Inc()
	return nil
}

// webhookLabel bounds the metric label set to the handled event types.
func webhookLabel(eventType string) string {
	switch eventType {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted,
		EventInvoicePaid, EventInvoicePaymentOK, EventInvoicePaymentFailed:
		return eventType
	}
	return "other"
}

func (s *PaymentService) syncSubscription(ctx context.Context, event stripe.Event) error {
	sub, err := billing.SubscriptionFromEvent(event)
	if err != nil {
		return models.NewValidationError(err.Error())
	}

	local, err := s.repo.GetSubscriptionByProviderID(ctx, sub.ID)
	if err != nil {
		if !isNotFound(err) {
			return err
		}
		local, err = s.subscriptionForCustomer(ctx, sub)
		if err != nil || local == nil {
			return err
		}
	}

	local.Tier = nil
	local.SubscriptionID = sub.ID
	local.IsActive = billing.IsLiveStatus(sub.Status)
	if priceID := subscriptionPriceID(sub); priceID != "" {
		if plan, perr := s.repo.GetPlanByPriceID(ctx, priceID); perr == nil {
			local.TierID = &plan.ID
		} else if !isNotFound(perr) {
			return perr
		}
	}
	return s.repo.SaveSubscription(ctx, local, models.SubscriptionActionSync, json.RawMessage(event.Data.Raw))
}

// subscriptionForCustomer returns the local row of the subscription's
// customer, or nil when the customer is unknown here.
func (s *PaymentService) subscriptionForCustomer(ctx context.Context, sub *stripe.Subscription) (*models.UserSubscription, error) {
	if sub.Customer == nil || sub.Customer.ID == "" {
		return nil, nil
	}
	userID, err := s.repo.FindUserIDByCustomer(ctx, sub.Customer.ID)
	if err != nil {
		if isNotFound(err) {
			middleware.Logger.WarnContext(ctx, "stripe subscription for unknown customer",
				"customer", sub.Customer.ID, "subscription", sub.ID)
			return nil, nil
		}
		return nil, err
	}
	local, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return &models.UserSubscription{UserID: userID}, nil
		}
		return nil, err
	}
	return local, nil
}

func subscriptionPriceID(sub *stripe.Subscription) string {
	if sub.Items == nil {
		return ""
	}
	for _, item := range sub.Items.Data {
		if item != nil && item.Price != nil {
			return item.Price.ID
		}
	}
	return ""
}

func (s *PaymentService) deleteSubscription(ctx context.Context, event stripe.Event) error {
	sub, err := billing.SubscriptionFromEvent(event)
	if err != nil {
		return models.NewValidationError(err.Error())
	}
	local, err := s.repo.GetSubscriptionByProviderID(ctx, sub.ID)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	local.Tier = nil
	local.TierID = nil
	local.SubscriptionID = ""
	local.IsActive = false
	return s.repo.SaveSubscription(ctx, local, models.SubscriptionActionDeleted, json.RawMessage(event.Data.Raw))
}

func (s *PaymentService) recordInvoice(ctx context.Context, event stripe.Event) error {
	inv, err := billing.InvoiceFromEvent(event)
	if err != nil {
		return models.NewValidationError(err.Error())
	}
	if inv.SubscriptionID == "" {
		return nil
	}
	local, err := s.repo.GetSubscriptionByProviderID(ctx, inv.SubscriptionID)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	_, err = s.repo.RecordInvoice(ctx, &models.SubscriptionInvoice{
		SubscriptionID: local.ID,
		InvoiceID:      inv.ID,
		AmountPaid:     inv.AmountPaid,
		Date:           inv.Date,
	})
	return err
}

func (s *PaymentService) recordPaymentFailure(ctx context.Context, event stripe.Event) error {
	inv, err := billing.InvoiceFromEvent(event)
	if err != nil {
		return models.NewValidationError(err.Error())
	}
	local, err := s.repo.GetSubscriptionByProviderID(ctx, inv.SubscriptionID)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	return s.repo.AppendHistory(ctx, local.ID, models.SubscriptionActionPaymentFailed, json.RawMessage(event.Data.Raw))
}

func (s *PaymentService) AppleProducts(ctx context.Context) ([]models.AppleIAPProduct, error) {
	var products []models.AppleIAPProduct
	err := cache.Aside(ctx, cache.AppleProductsKey, &products, cache.ProductsTTL, func() error {
		var ferr error
		products, ferr = s.repo.ListActiveAppleProducts(ctx)
		return ferr
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return products, nil
}

// VerifyAppleReceipt checks the receipt with Apple and stores the attempt.
func (s *PaymentService) VerifyAppleReceipt(ctx context.Context, userID uint, in AppleReceiptInput) (string, error) {
	res, verr := s.apple.Verify(ctx, in.Receipt)

	rec := &models.AppleIAPReceipt{
		UserID:          userID,
		ProductID:       in.ProductID,
		TransactionID:   in.TransactionID,
		TransactionDate: in.TransactionDate,
		Sandbox:         res.Sandbox,
		Verified:        verr == nil && res.Verified,
	}
	if err := s.repo.CreateAppleReceipt(ctx, rec); err != nil {
		return "", models.NewInternalError(err)
	}
	if verr != nil {
		return "", providerError(verr)
	}
	if res.Verified {
		return AppleResultSuccess, nil
	}
	return AppleResultFail, nil
}

// SavePlan creates or updates the plan for in.PriceID with price data from Stripe.
func (s *PaymentService) SavePlan(ctx context.Context, in PlanInput) (*models.SubscriptionPlan, error) {
	if in.PriceID == "" {
		return nil, models.NewFieldValidationError(map[string]string{"price_id": "This field is required."})
	}
	plan, err := s.repo.GetPlanByPriceID(ctx, in.PriceID)
	if err != nil {
		if !isNotFound(err) {
			return nil, models.NewInternalError(err)
		}
		plan = &models.SubscriptionPlan{PriceID: in.PriceID}
	}

	price, err := s.stripe.GetPrice(ctx, in.PriceID)
	if err != nil {
		return nil, providerError(err)
	}
	meta := billing.MetadataFromPrice(price)
	plan.Name = in.Name
	plan.Description = in.Description
	plan.IsActive = in.IsActive
	plan.Price = meta.Price
	plan.PlanType = meta.PlanType
	plan.Interval = meta.Interval

	if err := s.repo.SavePlan(ctx, plan); err != nil {
		return nil, translate(err, "Subscription plan", in.PriceID)
	}
	cache.Invalidate(ctx, cache.PlansKey)
	return plan, nil
}

func (s *PaymentService) SaveStripeSetting(ctx context.Context, setting *models.StripeSetting) error {
	if setting.ApplicationFee < 0 || setting.ApplicationFee > 100 {
		return models.NewFieldValidationError(map[string]string{
			"application_fee": fmt.Sprintf("%d is not a valid percentage.", setting.ApplicationFee),
		})
	}
	if _, err := s.users.GetByID(ctx, setting.UserID); err != nil {
		return translate(err, "User", setting.UserID)
	}
	if err := s.repo.UpsertStripeSetting(ctx, setting); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *PaymentService) CreateAppleProduct(ctx context.Context, p *models.AppleIAPProduct) error {
	if p.ProductID == "" || p.Name == "" {
		return models.NewValidationError("name and product_id are required")
	}
	if err := s.repo.CreateAppleProduct(ctx, p); err != nil {
		return translate(err, "Apple product", p.ProductID)
	}
	cache.Invalidate(ctx, cache.AppleProductsKey)
	return nil
}
