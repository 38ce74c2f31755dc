package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"

	// DefaultWebhookTolerance bounds how old a signed timestamp may be.
	DefaultWebhookTolerance = 5 * time.Minute
)

var (
	ErrMissingSignature = errors.New("webhook: missing signature header")
	ErrInvalidSignature = errors.New("webhook: signature mismatch")
	ErrStaleSignature   = errors.New("webhook: timestamp outside tolerance")
)

type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// PaymentIntent decodes the event object as a payment intent.
func (e *WebhookEvent) PaymentIntent() (*PaymentIntent, error) {
	var intent PaymentIntent
	if err := json.Unmarshal(e.Data.Object, &intent); err != nil {
		return nil, fmt.Errorf("webhook: decode payment intent: %w", err)
	}
	return &intent, nil
}

// ConstructWebhookEvent checks the Stripe-Signature header against secret and
// decodes payload. The header has the form "t=<unix>,v1=<hex>[,v1=<hex>...]"
// where each v1 is HMAC-SHA256(secret, "<t>.<payload>").
func ConstructWebhookEvent(payload []byte, header, secret string, tolerance time.Duration, now time.Time) (*WebhookEvent, error) {
	if header == "" {
		return nil, ErrMissingSignature
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return nil, ErrMissingSignature
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return nil, ErrInvalidSignature
	}
	if tolerance > 0 {
		age := now.Sub(time.Unix(unix, 0))
		if age > tolerance || age < -tolerance {
			return nil, ErrStaleSignature
		}
	}

	expected := ComputeWebhookSignature(payload, secret, timestamp)
	valid := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrInvalidSignature
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("webhook: decode event: %w", err)
	}
	return &event, nil
}

func ComputeWebhookSignature(payload []byte, secret, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
