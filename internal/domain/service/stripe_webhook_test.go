package service

import (
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_test"

var webhookPayload = []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":4500,"currency":"gbp","status":"succeeded","metadata":{"listing_id":"l1"}}}}`)

func signedHeader(t time.Time, payload []byte, secret string) string {
	ts := strconv.FormatInt(t.Unix(), 10)
	return fmt.Sprintf("t=%s,v1=%s", ts, ComputeWebhookSignature(payload, secret, ts))
}

func TestConstructWebhookEvent(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)

	event, err := ConstructWebhookEvent(webhookPayload, signedHeader(now, webhookPayload, webhookSecret), webhookSecret, DefaultWebhookTolerance, now)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentIntentSucceeded, event.Type)

	intent, err := event.PaymentIntent()
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, int64(4500), intent.Amount)
	assert.Equal(t, "l1", intent.Metadata["listing_id"])
}

func TestConstructWebhookEventAcceptsAnyMatchingSignature(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)
	header := "t=" + ts + ",v1=deadbeef,v1=" + ComputeWebhookSignature(webhookPayload, webhookSecret, ts)

	_, err := ConstructWebhookEvent(webhookPayload, header, webhookSecret, DefaultWebhookTolerance, now)
	assert.NoError(t, err)
}

func TestConstructWebhookEventRejects(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)

	cases := []struct {
		name   string
		header string
		body   []byte
		want   error
	}{
		{"missing header", "", webhookPayload, ErrMissingSignature},
		{"no v1", "t=1760000000", webhookPayload, ErrMissingSignature},
		{"wrong secret", signedHeader(now, webhookPayload, "other"), webhookPayload, ErrInvalidSignature},
		{"tampered body", signedHeader(now, webhookPayload, webhookSecret), []byte(`{"id":"evt_2"}`), ErrInvalidSignature},
		{"stale", signedHeader(now.Add(-10*time.Minute), webhookPayload, webhookSecret), webhookPayload, ErrStaleSignature},
		{"from the future", signedHeader(now.Add(10*time.Minute), webhookPayload, webhookSecret), webhookPayload, ErrStaleSignature},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ConstructWebhookEvent(tc.body, tc.header, webhookSecret, DefaultWebhookTolerance, now)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
