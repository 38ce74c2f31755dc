package service

import (
	"context"
)

const (
	PaymentIntentSucceeded = "succeeded"
	PaymentIntentCanceled  = "canceled"
)

// PaymentIntentRequest carries an amount already converted to minor units.
type PaymentIntentRequest struct {
	AmountMinor    int64
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

type PaymentIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
}

type Refund struct {
	ID              string `json:"id"`
	PaymentIntentID string `json:"payment_intent"`
	Amount          int64  `json:"amount"`
	Status          string `json:"status"`
}

// PaymentGateway is the card payment provider used at checkout.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)
	CreateRefund(ctx context.Context, paymentIntentID string) (*Refund, error)
}
