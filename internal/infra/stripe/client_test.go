package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripego "github.com/stripe/stripe-go/v75"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	backend := stripego.GetBackendWithConfig(stripego.APIBackend, &stripego.BackendConfig{
		URL:               stripego.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripego.Int64(0),
		LeveledLogger:     &stripego.LeveledLogger{Level: stripego.LevelNull},
	})
	return NewWithBackends("sk_test_123", &stripego.Backends{API: backend, Connect: backend, Uploads: backend})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_GetCheckoutSessionAndSubscription(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/checkout/sessions/cs_1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		writeJSON(w, map[string]any{
			"id": "cs_1", "object": "checkout.session", "mode": "subscription",
			"payment_status": "paid", "customer": "cus_1", "customer_email": "a@x.com",
			"subscription": "sub_1", "client_reference_id": "user-1",
		})
	})
	mux.HandleFunc("/v1/subscriptions/sub_1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"id": "sub_1", "object": "subscription", "status": "active", "customer": "cus_1",
			"items": map[string]any{"object": "list", "data": []any{
				map[string]any{"id": "si_1", "object": "subscription_item", "price": map[string]any{"id": "price_premium", "object": "price"}},
			}},
		})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	sess, err := c.GetCheckoutSession(ctx, "cs_1")
	require.NoError(t, err)
	assert.True(t, sess.Paid())
	assert.Equal(t, "a@x.com", sess.CustomerEmail)
	assert.Equal(t, "sub_1", sess.SubscriptionID)
	assert.Equal(t, "user-1", sess.ClientReferenceID)

	sub, err := c.GetSubscription(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, "active", sub.Status)
	assert.Equal(t, "cus_1", sub.CustomerID)
	assert.Equal(t, "price_premium", sub.PriceID)
}

func TestClient_ErrorsAreWrapped(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/subscriptions/sub_missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]any{"error": map[string]any{"type": "invalid_request_error", "code": "resource_missing", "message": "No such subscription"}})
	})
	c := newTestClient(t, mux)

	_, err := c.GetSubscription(context.Background(), "sub_missing")
	require.Error(t, err)

	var stripeErr *stripego.Error
	require.ErrorAs(t, err, &stripeErr)
	assert.Equal(t, stripego.ErrorCodeResourceMissing, stripeErr.Code)
}

func TestClient_CreateCheckoutSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/checkout/sessions", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "subscription", r.PostForm.Get("mode"))
		assert.Equal(t, "price_pro", r.PostForm.Get("line_items[0][price]"))
		assert.Equal(t, "a@x.com", r.PostForm.Get("customer_email"))
		assert.Equal(t, "user-1", r.PostForm.Get("client_reference_id"))
		writeJSON(w, map[string]any{"id": "cs_new", "object": "checkout.session", "url": "https://checkout.example/cs_new"})
	})
	c := newTestClient(t, mux)

	res, err := c.CreateCheckoutSession(context.Background(), CheckoutRequest{
		PriceID:           "price_pro",
		CustomerEmail:     "a@x.com",
		ClientReferenceID: "user-1",
		SuccessURL:        "http://localhost:3000/subscription/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         "http://localhost:3000/subscription/pricing",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_new", res.SessionID)
	assert.Equal(t, "https://checkout.example/cs_new", res.URL)
}
