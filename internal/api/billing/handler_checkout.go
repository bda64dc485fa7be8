package billing

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"movie-app/internal/api/httputil"
	"movie-app/internal/apperror"
	"movie-app/internal/domain/plans"
	"movie-app/internal/domain/users"
	stripeinfra "movie-app/internal/infra/stripe"
)

type CheckoutConfirmer interface {
	ConfirmCheckout(ctx context.Context, sessionID, userID string) (*users.User, error)
}

type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, req stripeinfra.CheckoutRequest) (*stripeinfra.CheckoutResult, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

type Handler struct {
	confirmer CheckoutConfirmer
	sessions  SessionCreator
	plans     plans.Table
	appURL    string
	validate  httputil.StructValidator
	log       zerolog.Logger
}

func NewHandler(cc CheckoutConfirmer, sc SessionCreator, table plans.Table, appURL string, v httputil.StructValidator, log zerolog.Logger) *Handler {
	return &Handler{confirmer: cc, sessions: sc, plans: table, appURL: appURL, validate: v, log: log}
}

type checkoutSuccessRequest struct {
	SessionID string `json:"sessionId"`
}

// POST /stripe/checkout-success
func (h *Handler) CheckoutSuccess(c *gin.Context) {
	u, ok := httputil.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var req checkoutSuccessRequest
	if err := httputil.BindJSON(c, h.validate, &req); err != nil {
		httputil.Error(c, h.log, err)
		return
	}

	updated, err := h.confirmer.ConfirmCheckout(c.Request.Context(), req.SessionID, u.ID)
	if err != nil {
		httputil.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": updated.View()})
}

type createCheckoutRequest struct {
	PriceID string `json:"priceId" validate:"required"`
}

// POST /stripe/create-checkout-session
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	u, ok := httputil.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var req createCheckoutRequest
	if err := httputil.BindJSON(c, h.validate, &req); err != nil {
		httputil.Error(c, h.log, err)
		return
	}
	if !h.plans.Allowed(req.PriceID) {
		httputil.Error(c, h.log, apperror.Validation(apperror.FieldError{Field: "priceId", Message: "Unknown price"}))
		return
	}

	checkout := stripeinfra.CheckoutRequest{
		PriceID:           req.PriceID,
		CustomerEmail:     u.Email,
		ClientReferenceID: u.ID,
		SuccessURL:        h.appURL + "/subscription/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         h.appURL + "/subscription/pricing",
	}
	if u.StripeCustomerID != nil {
		checkout.CustomerID = *u.StripeCustomerID
	}

	res, err := h.sessions.CreateCheckoutSession(c.Request.Context(), checkout)
	if err != nil {
		httputil.Error(c, h.log, apperror.Upstream("creating checkout session", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": res.SessionID, "url": res.URL})
}

// POST /stripe/billing-portal
func (h *Handler) BillingPortal(c *gin.Context) {
	u, ok := httputil.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	if u.StripeCustomerID == nil || *u.StripeCustomerID == "" {
		httputil.Error(c, h.log, apperror.Conflict("No billing account yet (subscribe first)"))
		return
	}

	url, err := h.sessions.CreatePortalSession(c.Request.Context(), *u.StripeCustomerID, h.appURL+"/profile")
	if err != nil {
		httputil.Error(c, h.log, apperror.Upstream("creating billing portal session", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
