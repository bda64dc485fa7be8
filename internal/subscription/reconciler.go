// Package subscription mirrors the billing provider's subscription state onto
// user records. Both the client-confirmed checkout and the webhook feed go
// through the same plan table, and neither invents transitions.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"movie-app/internal/apperror"
	"movie-app/internal/domain/plans"
	"movie-app/internal/domain/users"
	"movie-app/internal/infra/store"
)

// Provider is the read side of the billing API the reconciler needs.
type Provider interface {
	GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
}

type Store interface {
	FindByID(ctx context.Context, id string) (*users.User, error)
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	FindByCustomerID(ctx context.Context, customerID string) (*users.User, error)
	UpdateSubscription(ctx context.Context, id string, upd store.SubscriptionUpdate) (*users.User, error)
}

// Outcome classifies how a webhook event was handled. It feeds metrics and
// the event ledger; it never changes the HTTP response.
type Outcome string

const (
	OutcomeApplied      Outcome = "applied"
	OutcomeIgnored      Outcome = "ignored"
	OutcomeUserNotFound Outcome = "user_not_found"
	OutcomeSkipped      Outcome = "skipped"
	OutcomeFailed       Outcome = "failed"
)

type Reconciler struct {
	store    Store
	provider Provider
	plans    plans.Table
	log      zerolog.Logger
}

func NewReconciler(s Store, p Provider, table plans.Table, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:    s,
		provider: p,
		plans:    table,
		log:      log.With().Str("component", "subscription").Logger(),
	}
}

// ConfirmCheckout applies a completed checkout to the authenticated user.
func (r *Reconciler) ConfirmCheckout(ctx context.Context, sessionID, userID string) (*users.User, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperror.Validation(apperror.FieldError{Field: "sessionId", Message: "Session ID required"})
	}

	sess, err := r.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, apperror.Upstream("retrieving checkout session", err)
	}
	if !sess.Paid() {
		return nil, apperror.PaymentIncomplete()
	}

	owner, err := r.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !sess.BelongsTo(owner) {
		r.log.Warn().Str("user_id", userID).Str("session_id", sessionID).Msg("checkout session belongs to another account")
		return nil, apperror.NotFound("Checkout session")
	}
	if sess.SubscriptionID == "" {
		return nil, apperror.Upstream("checkout session has no subscription", nil)
	}

	sub, err := r.provider.GetSubscription(ctx, sess.SubscriptionID)
	if err != nil {
		return nil, apperror.Upstream("retrieving subscription", err)
	}
	status, ok := users.ParseStatus(sub.Status)
	if !ok {
		return nil, apperror.Upstream(fmt.Sprintf("unrecognized subscription status %q", sub.Status), nil)
	}

	customerID := firstNonEmpty(sub.CustomerID, sess.CustomerID)
	u, err := r.store.UpdateSubscription(ctx, userID, store.SubscriptionUpdate{
		CustomerID: optional(customerID),
		Status:     status,
		Plan:       r.plans.PlanFor(sub.PriceID),
	})
	if err != nil {
		return nil, err
	}

	r.log.Info().
		Str("user_id", u.ID).
		Str("session_id", sessionID).
		Str("status", string(u.SubscriptionStatus)).
		Str("plan", string(u.SubscriptionPlan)).
		Msg("checkout confirmed")
	return u, nil
}

// HandleEvent applies one verified event. The returned error is only for the
// event ledger; callers acknowledge the delivery regardless.
func (r *Reconciler) HandleEvent(ctx context.Context, ev Event) (Outcome, error) {
	log := r.log.With().Str("event_id", ev.EventID()).Str("event_type", ev.EventType()).Logger()

	var (
		outcome Outcome
		err     error
	)
	switch e := ev.(type) {
	case CheckoutCompleted:
		outcome, err = r.checkoutCompleted(ctx, e.Session)
	case SubscriptionUpdated:
		outcome, err = r.subscriptionUpdated(ctx, e.Subscription)
	case SubscriptionDeleted:
		outcome, err = r.subscriptionDeleted(ctx, e.Subscription)
	case InvoicePaid:
		outcome, err = r.invoicePaid(ctx, e)
	case InvoiceFailed:
		log.Info().Str("invoice_id", e.InvoiceID).Msg("invoice payment failed")
		outcome = OutcomeIgnored
	case Unknown:
		log.Debug().Msg("unhandled event type")
		outcome = OutcomeIgnored
	default:
		log.Warn().Msgf("unexpected event variant %T", ev)
		outcome = OutcomeIgnored
	}

	switch {
	case err != nil:
		log.Error().Err(err).Str("outcome", string(outcome)).Msg("webhook event not applied")
	case outcome == OutcomeUserNotFound:
		log.Warn().Msg("no user for webhook event")
	case outcome == OutcomeSkipped:
		log.Warn().Msg("webhook event skipped")
	}
	return outcome, err
}

func (r *Reconciler) checkoutCompleted(ctx context.Context, sess CheckoutSession) (Outcome, error) {
	if !sess.IsSubscription() {
		return OutcomeIgnored, nil
	}
	if sess.CustomerEmail == "" {
		return OutcomeUserNotFound, nil
	}
	u, err := r.store.FindByEmail(ctx, sess.CustomerEmail)
	if err != nil {
		return lookupOutcome(err)
	}
	if sess.SubscriptionID == "" {
		return OutcomeSkipped, nil
	}

	sub, err := r.provider.GetSubscription(ctx, sess.SubscriptionID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("subscription: fetch %s: %w", sess.SubscriptionID, err)
	}
	status, ok := users.ParseStatus(sub.Status)
	if !ok {
		return OutcomeSkipped, nil
	}

	customerID := firstNonEmpty(sub.CustomerID, sess.CustomerID)
	return r.persist(ctx, u.ID, store.SubscriptionUpdate{
		CustomerID: optional(customerID),
		Status:     status,
		Plan:       r.plans.PlanFor(sub.PriceID),
	})
}

func (r *Reconciler) subscriptionUpdated(ctx context.Context, sub Subscription) (Outcome, error) {
	u, err := r.store.FindByCustomerID(ctx, sub.CustomerID)
	if err != nil {
		return lookupOutcome(err)
	}
	status, ok := users.ParseStatus(sub.Status)
	if !ok {
		return OutcomeSkipped, nil
	}
	return r.persist(ctx, u.ID, store.SubscriptionUpdate{
		Status: status,
		Plan:   r.plans.PlanFor(sub.PriceID),
	})
}

func (r *Reconciler) subscriptionDeleted(ctx context.Context, sub Subscription) (Outcome, error) {
	u, err := r.store.FindByCustomerID(ctx, sub.CustomerID)
	if err != nil {
		return lookupOutcome(err)
	}
	return r.persist(ctx, u.ID, store.SubscriptionUpdate{
		Status: users.StatusCanceled,
		Plan:   users.PlanBasic,
	})
}

// invoicePaid re-syncs the subscription in case its update event was missed.
func (r *Reconciler) invoicePaid(ctx context.Context, inv InvoicePaid) (Outcome, error) {
	if inv.SubscriptionID == "" {
		r.log.Info().Str("invoice_id", inv.InvoiceID).Msg("invoice paid without subscription")
		return OutcomeIgnored, nil
	}
	sub, err := r.provider.GetSubscription(ctx, inv.SubscriptionID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("subscription: fetch %s: %w", inv.SubscriptionID, err)
	}
	return r.subscriptionUpdated(ctx, *sub)
}

func (r *Reconciler) persist(ctx context.Context, userID string, upd store.SubscriptionUpdate) (Outcome, error) {
	if _, err := r.store.UpdateSubscription(ctx, userID, upd); err != nil {
		return lookupOutcome(err)
	}
	return OutcomeApplied, nil
}

func lookupOutcome(err error) (Outcome, error) {
	if errors.Is(err, apperror.ErrNotFound) {
		return OutcomeUserNotFound, nil
	}
	return OutcomeFailed, err
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
