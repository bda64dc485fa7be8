package stripewebhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	stripego "github.com/stripe/stripe-go/v75"

	stripeinfra "movie-app/internal/infra/stripe"
	"movie-app/internal/subscription"
)

const maxBodyBytes = 65536

type Verifier interface {
	Verify(payload []byte, sigHeader string) (stripego.Event, error)
}

type EventHandler interface {
	HandleEvent(ctx context.Context, ev subscription.Event) (subscription.Outcome, error)
}

// Ledger deduplicates deliveries by event id.
type Ledger interface {
	BeginWebhookEvent(ctx context.Context, eventID, eventType string) (bool, error)
	FinishWebhookEvent(ctx context.Context, eventID string, procErr error) error
}

type EventRecorder interface {
	WebhookEvent(eventType, outcome string)
}

type Handler struct {
	verifier Verifier
	events   EventHandler
	ledger   Ledger
	metrics  EventRecorder
	log      zerolog.Logger
}

func NewHandler(v Verifier, e EventHandler, l Ledger, m EventRecorder, log zerolog.Logger) *Handler {
	return &Handler{
		verifier: v,
		events:   e,
		ledger:   l,
		metrics:  m,
		log:      log.With().Str("component", "stripe_webhook").Logger(),
	}
}

// POST /stripe/webhook
//
// Only a bad signature is rejected. Once the event is authentic the delivery
// is acknowledged whatever happens next, so the provider does not retry
// business-level misses.
func (h *Handler) Handle(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Error reading request body"})
		return
	}

	raw, err := h.verifier.Verify(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.log.Warn().Err(err).Msg("rejected webhook")
		h.metrics.WebhookEvent("unknown", "bad_signature")
		c.JSON(http.StatusBadRequest, gin.H{"message": "Webhook signature verification failed"})
		return
	}

	ctx := c.Request.Context()
	eventType := string(raw.Type)
	log := h.log.With().Str("event_id", raw.ID).Str("event_type", eventType).Logger()

	seen, err := h.ledger.BeginWebhookEvent(ctx, raw.ID, eventType)
	if err != nil {
		log.Warn().Err(err).Msg("webhook ledger unavailable; processing anyway")
	}
	if seen {
		log.Info().Msg("duplicate webhook delivery")
		h.metrics.WebhookEvent(eventType, "duplicate")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	outcome, procErr := h.process(ctx, raw)

	if err == nil {
		if ferr := h.ledger.FinishWebhookEvent(ctx, raw.ID, procErr); ferr != nil {
			log.Warn().Err(ferr).Msg("failed to record webhook outcome")
		}
	}
	h.metrics.WebhookEvent(eventType, string(outcome))
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) process(ctx context.Context, raw stripego.Event) (subscription.Outcome, error) {
	ev, err := stripeinfra.Decode(raw)
	if err != nil {
		h.log.Error().Err(err).Str("event_id", raw.ID).Msg("malformed webhook event")
		return subscription.OutcomeFailed, err
	}
	return h.events.HandleEvent(ctx, ev)
}

