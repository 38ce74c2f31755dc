package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"skipped/pkg/logger"
)

const defaultStripeAPIBase = "https://api.stripe.com"

// StripePaymentService talks to the Stripe REST API directly.
type StripePaymentService struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewStripePaymentService(secretKey, baseURL string) *StripePaymentService {
	if baseURL == "" {
		baseURL = defaultStripeAPIBase
	}
	return &StripePaymentService{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type stripeErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// StripeError is a non-2xx answer from the API.
type StripeError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *StripeError) Error() string {
	return fmt.Sprintf("stripe: %d %s: %s", e.StatusCode, e.Type, e.Message)
}

func (s *StripePaymentService) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountMinor, 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("automatic_payment_methods[enabled]", "true")

	keys := make([]string, 0, len(req.Metadata))
	for k := range req.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		form.Set("metadata["+k+"]", req.Metadata[k])
	}

	var intent PaymentIntent
	if err := s.do(ctx, http.MethodPost, "/v1/payment_intents", form, req.IdempotencyKey, &intent); err != nil {
		return nil, err
	}

	logger.Info("Stripe payment intent created: %s amount=%d %s", intent.ID, intent.Amount, intent.Currency)
	return &intent, nil
}

func (s *StripePaymentService) GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	var intent PaymentIntent
	if err := s.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(id), nil, "", &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (s *StripePaymentService) CreateRefund(ctx context.Context, paymentIntentID string) (*Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", paymentIntentID)

	var refund Refund
	if err := s.do(ctx, http.MethodPost, "/v1/refunds", form, "refund-"+paymentIntentID, &refund); err != nil {
		return nil, err
	}

	logger.Info("Stripe refund created: %s for %s", refund.ID, paymentIntentID)
	return &refund, nil
}

func (s *StripePaymentService) do(ctx context.Context, method, path string, form url.Values, idempotencyKey string, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.secretKey)
	httpReq.Header.Set("Accept", "application/json")
	if form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody stripeErrorBody
		_ = json.Unmarshal(raw, &errBody)
		logger.Warn("Stripe API error: %s %s status=%d body=%s", method, path, resp.StatusCode, string(raw))
		return &StripeError{
			StatusCode: resp.StatusCode,
			Type:       errBody.Error.Type,
			Code:       errBody.Error.Code,
			Message:    errBody.Error.Message,
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
