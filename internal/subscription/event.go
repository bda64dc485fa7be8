package subscription

import (
	"strings"

	"movie-app/internal/domain/users"
)

// Provider-neutral views of the billing objects the reconciler reads.

type CheckoutSession struct {
	ID                string
	PaymentStatus     string
	Mode              string
	CustomerEmail     string
	CustomerID        string
	SubscriptionID    string
	ClientReferenceID string
}

// BelongsTo reports whether the session was opened for u. The client reference
// set at checkout creation wins; older sessions fall back to the email.
func (s *CheckoutSession) BelongsTo(u *users.User) bool {
	if s.ClientReferenceID != "" {
		return s.ClientReferenceID == u.ID
	}
	return s.CustomerEmail != "" && strings.EqualFold(strings.TrimSpace(s.CustomerEmail), u.Email)
}

// Paid reports whether the checkout collected payment.
func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus == "paid"
}

func (s *CheckoutSession) IsSubscription() bool {
	return s.Mode == "subscription"
}

type Subscription struct {
	ID         string
	CustomerID string
	Status     string
	PriceID    string
}

// Event is a decoded, signature-verified provider event. The variants below are
// the complete set; HandleEvent switches over them exhaustively.
type Event interface {
	EventID() string
	EventType() string
	isEvent()
}

// Meta is the id/type header shared by every variant.
type Meta struct {
	ID   string
	Type string
}

func (m Meta) EventID() string   { return m.ID }
func (m Meta) EventType() string { return m.Type }
func (Meta) isEvent()            {}

type CheckoutCompleted struct {
	Meta
	Session CheckoutSession
}

type SubscriptionUpdated struct {
	Meta
	Subscription Subscription
}

type SubscriptionDeleted struct {
	Meta
	Subscription Subscription
}

// InvoicePaid carries the subscription id when the invoice belongs to one.
type InvoicePaid struct {
	Meta
	InvoiceID      string
	SubscriptionID string
}

type InvoiceFailed struct {
	Meta
	InvoiceID string
}

type Unknown struct {
	Meta
}

// Event type names as sent by the provider.
const (
	TypeCheckoutCompleted   = "checkout.session.completed"
	TypeSubscriptionUpdated = "customer.subscription.updated"
	TypeSubscriptionDeleted = "customer.subscription.deleted"
	TypeInvoicePaid         = "invoice.payment_succeeded"
	TypeInvoicePaidAlt      = "invoice.paid"
	TypeInvoiceFailed       = "invoice.payment_failed"
)
