// Package billing talks to the payment providers: Stripe for cards and
// subscriptions, Apple for in-app purchase receipts.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"modulehub/internal/observability"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/ephemeralkey"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/paymentmethod"
	"github.com/stripe/stripe-go/v82/price"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

const providerStripe = "stripe"

// ErrNotConfigured is returned when no Stripe secret key was provided.
var ErrNotConfigured = errors.New("stripe is not configured")

// PaymentIntentInput describes a payment sheet charge.
type PaymentIntentInput struct {
	CustomerID string
	Amount     int64
	// ApplicationFee and Destination route the charge to a connected account.
	ApplicationFee int64
	Destination    string
}

// PaymentSheet carries the secrets the mobile payment sheet needs.
type PaymentSheet struct {
	PaymentIntent string `json:"paymentIntent"`
	EphemeralKey  string `json:"ephemeralKey"`
	Customer      string `json:"customer"`
}

// StripeGateway is the Stripe surface used by the payments module.
type StripeGateway interface {
	CreateCustomer(ctx context.Context, userID uint, email, name string) (string, error)
	CreatePaymentSheet(ctx context.Context, in PaymentIntentInput) (*PaymentSheet, error)
	ListPaymentIntents(ctx context.Context, customerID string) ([]*stripe.PaymentIntent, error)
	ListCardPaymentMethods(ctx context.Context, customerID string) ([]*stripe.PaymentMethod, error)
	CreateSubscription(ctx context.Context, customerID, priceID string) (*stripe.Subscription, error)
	ChangeSubscriptionPrice(ctx context.Context, subscriptionID, priceID string) (*stripe.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	GetPrice(ctx context.Context, priceID string) (*stripe.Price, error)
	ParseWebhook(payload []byte, signature string) (stripe.Event, error)
}

type stripeGateway struct {
	webhookSecret string
	configured    bool
}

// NewStripeGateway configures the global Stripe client with secretKey.
func NewStripeGateway(secretKey, webhookSecret string) StripeGateway {
	if secretKey != "" {
		stripe.Key = secretKey
	}
	return &stripeGateway{webhookSecret: webhookSecret, configured: secretKey != ""}
}

// call wraps a provider request in a client span and records its outcome.
func (g *stripeGateway) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if !g.configured {
		return ErrNotConfigured
	}
	ctx, span := observability.StartClientSpan(ctx, providerStripe, op)
	done := observability.TrackProviderCall(providerStripe, op)
	err := fn(ctx)
	done(err)
	observability.EndSpan(span, err)
	return err
}

func (g *stripeGateway) CreateCustomer(ctx context.Context, userID uint, email, name string) (string, error) {
	var id string
	err := g.call(ctx, "customer.create", func(ctx context.Context) error {
		params := &stripe.CustomerParams{
			Email: stripe.String(email),
			Name:  stripe.String(name),
		}
		params.Context = ctx
		params.AddMetadata("user_id", strconv.FormatUint(uint64(userID), 10))
		c, err := customer.New(params)
		if err != nil {
			return err
		}
		id = c.ID
		return nil
	})
	return id, err
}

func (g *stripeGateway) CreatePaymentSheet(ctx context.Context, in PaymentIntentInput) (*PaymentSheet, error) {
	sheet := &PaymentSheet{Customer: in.CustomerID}
	err := g.call(ctx, "payment_sheet.create", func(ctx context.Context) error {
		keyParams := &stripe.EphemeralKeyParams{
			Customer:      stripe.String(in.CustomerID),
			StripeVersion: stripe.String(stripe.APIVersion),
		}
		keyParams.Context = ctx
		key, err := ephemeralkey.New(keyParams)
		if err != nil {
			return err
		}
		sheet.EphemeralKey = key.Secret

		piParams := &stripe.PaymentIntentParams{
			Amount:   stripe.Int64(in.Amount),
			Currency: stripe.String(string(stripe.CurrencyUSD)),
			Customer: stripe.String(in.CustomerID),
			AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
				Enabled: stripe.Bool(true),
			},
		}
		if in.Destination != "" {
			piParams.ApplicationFeeAmount = stripe.Int64(in.ApplicationFee)
			piParams.TransferData = &stripe.PaymentIntentTransferDataParams{
				Destination: stripe.String(in.Destination),
			}
		}
		piParams.Context = ctx
		pi, err := paymentintent.New(piParams)
		if err != nil {
			return err
		}
		sheet.PaymentIntent = pi.ClientSecret
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

func (g *stripeGateway) ListPaymentIntents(ctx context.Context, customerID string) ([]*stripe.PaymentIntent, error) {
	var out []*stripe.PaymentIntent
	err := g.call(ctx, "payment_intent.list", func(ctx context.Context) error {
		params := &stripe.PaymentIntentListParams{Customer: stripe.String(customerID)}
		params.Context = ctx
		it := paymentintent.List(params)
		for it.Next() {
			out = append(out, it.PaymentIntent())
		}
		return it.Err()
	})
	return out, err
}

func (g *stripeGateway) ListCardPaymentMethods(ctx context.Context, customerID string) ([]*stripe.PaymentMethod, error) {
	var out []*stripe.PaymentMethod
	err := g.call(ctx, "payment_method.list", func(ctx context.Context) error {
		params := &stripe.PaymentMethodListParams{
			Customer: stripe.String(customerID),
			Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
		}
		params.Context = ctx
		it := paymentmethod.List(params)
		for it.Next() {
			out = append(out, it.PaymentMethod())
		}
		return it.Err()
	})
	return out, err
}

func (g *stripeGateway) CreateSubscription(ctx context.Context, customerID, priceID string) (*stripe.Subscription, error) {
	var sub *stripe.Subscription
	err := g.call(ctx, "subscription.create", func(ctx context.Context) error {
		params := &stripe.SubscriptionParams{
			Customer: stripe.String(customerID),
			Items: []*stripe.SubscriptionItemsParams{
				{Price: stripe.String(priceID)},
			},
		}
		params.Context = ctx
		var err error
		sub, err = subscription.New(params)
		return err
	})
	return sub, err
}

// ChangeSubscriptionPrice swaps the price of the subscription's single item.
func (g *stripeGateway) ChangeSubscriptionPrice(ctx context.Context, subscriptionID, priceID string) (*stripe.Subscription, error) {
	var sub *stripe.Subscription
	err := g.call(ctx, "subscription.update", func(ctx context.Context) error {
		getParams := &stripe.SubscriptionParams{}
		getParams.Context = ctx
		current, err := subscription.Get(subscriptionID, getParams)
		if err != nil {
			return err
		}
		if current.Items == nil || len(current.Items.Data) == 0 {
			return errors.New("subscription has no items")
		}

		params := &stripe.SubscriptionParams{
			Items: []*stripe.SubscriptionItemsParams{
				{
					ID:    stripe.String(current.Items.Data[0].ID),
					Price: stripe.String(priceID),
				},
			},
			ProrationBehavior: stripe.String("create_prorations"),
		}
		params.Context = ctx
		sub, err = subscription.Update(subscriptionID, params)
		return err
	})
	return sub, err
}

func (g *stripeGateway) CancelSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	var sub *stripe.Subscription
	err := g.call(ctx, "subscription.cancel", func(ctx context.Context) error {
		params := &stripe.SubscriptionCancelParams{}
		params.Context = ctx
		var err error
		sub, err = subscription.Cancel(subscriptionID, params)
		return err
	})
	return sub, err
}

func (g *stripeGateway) GetPrice(ctx context.Context, priceID string) (*stripe.Price, error) {
	var p *stripe.Price
	err := g.call(ctx, "price.get", func(ctx context.Context) error {
		params := &stripe.PriceParams{}
		params.Context = ctx
		var err error
		p, err = price.Get(priceID, params)
		return err
	})
	return p, err
}

// ParseWebhook verifies the Stripe-Signature header when a webhook secret is
// configured and otherwise decodes the event envelope as-is.
func (g *stripeGateway) ParseWebhook(payload []byte, signature string) (stripe.Event, error) {
	return parseEvent(payload, signature, g.webhookSecret)
}

func parseEvent(payload []byte, signature, secret string) (stripe.Event, error) {
	if secret != "" {
		return webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return stripe.Event{}, err
	}
	if event.Type == "" {
		return stripe.Event{}, errors.New("missing event type")
	}
	return event, nil
}

// PriceMetadata is the plan information pulled from a provider price.
type PriceMetadata struct {
	Price    float64
	PlanType string
	Interval string
}

// MetadataFromPrice converts a Stripe price into plan fields. Amounts are in cents.
func MetadataFromPrice(p *stripe.Price) PriceMetadata {
	if p == nil {
		return PriceMetadata{}
	}
	meta := PriceMetadata{
		Price:    float64(p.UnitAmount) / 100,
		PlanType: string(p.Type),
	}
	if p.Recurring != nil {
		meta.Interval = string(p.Recurring.Interval)
	}
	return meta
}

// IsLiveStatus reports whether a subscription status grants access.
func IsLiveStatus(status stripe.SubscriptionStatus) bool {
	return status == stripe.SubscriptionStatusActive || status == stripe.SubscriptionStatusTrialing
}
