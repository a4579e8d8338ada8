package billing

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v82"
)

var errNoEventData = errors.New("event has no data object")

// SubscriptionFromEvent decodes the subscription carried by a customer.subscription.* event.
func SubscriptionFromEvent(event stripe.Event) (*stripe.Subscription, error) {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, errNoEventData
	}
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// InvoiceSummary is the part of an invoice the payments module records.
type InvoiceSummary struct {
	ID             string
	CustomerID     string
	SubscriptionID string
	AmountPaid     int64
	Date           time.Time
}

// invoicePayload decodes both the legacy top-level subscription field and
// the parent.subscription_details location used by newer API versions.
type invoicePayload struct {
	ID           string          `json:"id"`
	Customer     json.RawMessage `json:"customer"`
	Subscription json.RawMessage `json:"subscription"`
	AmountPaid   int64           `json:"amount_paid"`
	Created      int64           `json:"created"`
	Parent       *struct {
		SubscriptionDetails *struct {
			Subscription json.RawMessage `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

// InvoiceFromEvent decodes the invoice carried by an invoice.* event.
func InvoiceFromEvent(event stripe.Event) (*InvoiceSummary, error) {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, errNoEventData
	}
	var p invoicePayload
	if err := json.Unmarshal(event.Data.Raw, &p); err != nil {
		return nil, err
	}

	out := &InvoiceSummary{
		ID:             p.ID,
		CustomerID:     expandableID(p.Customer),
		SubscriptionID: expandableID(p.Subscription),
		AmountPaid:     p.AmountPaid,
		Date:           time.Unix(p.Created, 0).UTC(),
	}
	if out.SubscriptionID == "" && p.Parent != nil && p.Parent.SubscriptionDetails != nil {
		out.SubscriptionID = expandableID(p.Parent.SubscriptionDetails.Subscription)
	}
	return out, nil
}

// expandableID reads a Stripe field that is either an id string or an expanded object.
func expandableID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return ""
}
