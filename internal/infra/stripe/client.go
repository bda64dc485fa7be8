// Package stripe adapts stripe-go to the provider-neutral types the
// subscription reconciler and billing handlers consume.
package stripe

import (
	"context"
	"fmt"

	stripego "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"

	"movie-app/internal/subscription"
)

// Client wraps a per-instance stripe-go API client. It never touches the
// package-level stripe.Key.
type Client struct {
	api *client.API
}

func New(secretKey string) *Client {
	return &Client{api: client.New(secretKey, nil)}
}

// NewWithBackends is used by tests to point the client at a local server.
func NewWithBackends(secretKey string, backends *stripego.Backends) *Client {
	return &Client{api: client.New(secretKey, backends)}
}

func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*subscription.CheckoutSession, error) {
	params := &stripego.CheckoutSessionParams{}
	params.Context = ctx
	s, err := c.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get checkout session %s: %w", id, err)
	}
	return toCheckoutSession(s), nil
}

func (c *Client) GetSubscription(ctx context.Context, id string) (*subscription.Subscription, error) {
	params := &stripego.SubscriptionParams{}
	params.Context = ctx
	s, err := c.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get subscription %s: %w", id, err)
	}
	return toSubscription(s), nil
}

type CheckoutRequest struct {
	PriceID           string
	CustomerID        string
	CustomerEmail     string
	ClientReferenceID string
	SuccessURL        string
	CancelURL         string
}

type CheckoutResult struct {
	SessionID string
	URL       string
}

// CreateCheckoutSession starts a hosted subscription checkout. An existing
// customer id takes precedence over the e-mail prefill.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	params := &stripego.CheckoutSessionParams{
		Mode:       stripego.String(string(stripego.CheckoutSessionModeSubscription)),
		SuccessURL: stripego.String(req.SuccessURL),
		CancelURL:  stripego.String(req.CancelURL),
		LineItems: []*stripego.CheckoutSessionLineItemParams{
			{Price: stripego.String(req.PriceID), Quantity: stripego.Int64(1)},
		},
	}
	if req.CustomerID != "" {
		params.Customer = stripego.String(req.CustomerID)
	} else if req.CustomerEmail != "" {
		params.CustomerEmail = stripego.String(req.CustomerEmail)
	}
	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripego.String(req.ClientReferenceID)
		params.SubscriptionData = &stripego.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"user_id": req.ClientReferenceID},
		}
	}
	params.Context = ctx

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return &CheckoutResult{SessionID: s.ID, URL: s.URL}, nil
}

func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripego.BillingPortalSessionParams{
		Customer:  stripego.String(customerID),
		ReturnURL: stripego.String(returnURL),
	}
	params.Context = ctx
	s, err := c.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create billing portal session: %w", err)
	}
	return s.URL, nil
}

func toCheckoutSession(s *stripego.CheckoutSession) *subscription.CheckoutSession {
	out := &subscription.CheckoutSession{
		ID:                s.ID,
		PaymentStatus:     string(s.PaymentStatus),
		Mode:              string(s.Mode),
		CustomerEmail:     s.CustomerEmail,
		CustomerID:        customerID(s.Customer),
		ClientReferenceID: s.ClientReferenceID,
	}
	if out.CustomerEmail == "" && s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	if s.Subscription != nil {
		out.SubscriptionID = s.Subscription.ID
	}
	return out
}

func toSubscription(s *stripego.Subscription) *subscription.Subscription {
	return &subscription.Subscription{
		ID:         s.ID,
		CustomerID: customerID(s.Customer),
		Status:     subscriptionStatus(s.Status),
		PriceID:    firstPriceID(s),
	}
}
