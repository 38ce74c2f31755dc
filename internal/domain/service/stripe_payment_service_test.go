package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripeCreatePaymentIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "checkout-l1", r.Header.Get("Idempotency-Key"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "4500", r.PostForm.Get("amount"))
		assert.Equal(t, "gbp", r.PostForm.Get("currency"))
		assert.Equal(t, "l1", r.PostForm.Get("metadata[listing_id]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret","amount":4500,"currency":"gbp","status":"requires_payment_method","metadata":{"listing_id":"l1"}}`))
	}))
	defer srv.Close()

	svc := NewStripePaymentService("sk_test", srv.URL)
	intent, err := svc.CreatePaymentIntent(context.Background(), PaymentIntentRequest{
		AmountMinor:    4500,
		Currency:       "GBP",
		Metadata:       map[string]string{"listing_id": "l1"},
		IdempotencyKey: "checkout-l1",
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
}

func TestStripeErrorIsSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	}))
	defer srv.Close()

	svc := NewStripePaymentService("sk_test", srv.URL)
	_, err := svc.GetPaymentIntent(context.Background(), "pi_1")

	var stripeErr *StripeError
	require.ErrorAs(t, err, &stripeErr)
	assert.Equal(t, http.StatusPaymentRequired, stripeErr.StatusCode)
	assert.Equal(t, "card_declined", stripeErr.Code)
}

func TestStripeCreateRefund(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/refunds", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "pi_9", r.PostForm.Get("payment_intent"))
		_, _ = w.Write([]byte(`{"id":"re_1","payment_intent":"pi_9","amount":4500,"status":"succeeded"}`))
	}))
	defer srv.Close()

	refund, err := NewStripePaymentService("sk_test", srv.URL).CreateRefund(context.Background(), "pi_9")
	require.NoError(t, err)
	assert.Equal(t, "re_1", refund.ID)
	assert.Equal(t, "pi_9", refund.PaymentIntentID)
}
