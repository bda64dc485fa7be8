package stripe

import (
	"encoding/json"
	"errors"
	"fmt"

	stripego "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"

	"movie-app/internal/subscription"
)

var ErrInvalidSignature = errors.New("stripe: webhook signature verification failed")

// Verifier checks webhook signatures against the endpoint secret.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Verify authenticates payload and returns the raw event. API version
// mismatches are tolerated; only the fields decoded below are relied on.
func (v *Verifier) Verify(payload []byte, sigHeader string) (stripego.Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return stripego.Event{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return ev, nil
}

// Decode turns a verified event into the reconciler's sum type. Event types the
// app does not act on decode to subscription.Unknown.
func Decode(ev stripego.Event) (subscription.Event, error) {
	meta := subscription.Meta{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil {
		return subscription.Unknown{Meta: meta}, nil
	}
	raw := ev.Data.Raw

	switch meta.Type {
	case subscription.TypeCheckoutCompleted:
		var s stripego.CheckoutSession
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("stripe: decode checkout session: %w", err)
		}
		return subscription.CheckoutCompleted{Meta: meta, Session: *toCheckoutSession(&s)}, nil

	case subscription.TypeSubscriptionUpdated, subscription.TypeSubscriptionDeleted:
		var s stripego.Subscription
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("stripe: decode subscription: %w", err)
		}
		sub := *toSubscription(&s)
		if meta.Type == subscription.TypeSubscriptionDeleted {
			return subscription.SubscriptionDeleted{Meta: meta, Subscription: sub}, nil
		}
		return subscription.SubscriptionUpdated{Meta: meta, Subscription: sub}, nil

	case subscription.TypeInvoicePaid, subscription.TypeInvoicePaidAlt:
		var inv stripego.Invoice
		if err := json.Unmarshal(raw, &inv); err != nil {
			return nil, fmt.Errorf("stripe: decode invoice: %w", err)
		}
		out := subscription.InvoicePaid{Meta: meta, InvoiceID: inv.ID}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
		return out, nil

	case subscription.TypeInvoiceFailed:
		var inv stripego.Invoice
		if err := json.Unmarshal(raw, &inv); err != nil {
			return nil, fmt.Errorf("stripe: decode invoice: %w", err)
		}
		return subscription.InvoiceFailed{Meta: meta, InvoiceID: inv.ID}, nil
	}
	return subscription.Unknown{Meta: meta}, nil
}
