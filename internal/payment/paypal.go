package payment

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ybt-digital/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayPal drives the client-side Buttons flow: the session carries the
// purchase-unit parameters, and webhook authenticity is a shared-token check.
// PayPal reports amounts as decimal strings ("95.00"), converted to cents here.
type PayPal struct {
	clientID     string
	webhookToken string
}

func NewPayPal(clientID, webhookToken string) *PayPal {
	return &PayPal{clientID: clientID, webhookToken: webhookToken}
}

func (g *PayPal) Name() string { return "paypal" }

func (g *PayPal) Initiate(_ context.Context, req InitiateRequest) (*ProviderSession, error) {
	if g.clientID == "" {
		return nil, &ProviderError{Provider: g.Name(), Retryable: false, Err: errors.New("paypal client id not configured")}
	}

	reference := uuid.NewString()
	value := decimal.NewFromInt(req.AmountCents).Div(decimal.NewFromInt(100)).StringFixed(2)
	return &ProviderSession{
		Provider:  g.Name(),
		Reference: reference,
		ClientParams: map[string]string{
			"client_id":     g.clientID,
			"currency_code": req.Currency,
			"value":         value,
			"description":   "Digital Products Purchase",
			"custom_id":     reference,
		},
	}, nil
}

type paypalCapture struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	CustomID string `json:"custom_id"`
	Amount   struct {
		Value        string `json:"value"`
		CurrencyCode string `json:"currency_code"`
	} `json:"amount"`
}

func (g *PayPal) VerifyCallback(payload []byte, token string) (*Result, error) {
	if g.webhookToken == "" || !hmac.Equal([]byte(g.webhookToken), []byte(token)) {
		return nil, domain.ErrInvalidSignature
	}

	var cb paypalCapture
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, fmt.Errorf("decode paypal callback: %w", err)
	}
	if cb.CustomID == "" {
		return nil, errors.New("paypal callback missing custom_id")
	}

	amount, err := decimal.NewFromString(cb.Amount.Value)
	if err != nil {
		return nil, fmt.Errorf("parse paypal amount %q: %w", cb.Amount.Value, err)
	}

	var status ResultStatus
	switch strings.ToUpper(cb.Status) {
	case "COMPLETED":
		status = ResultSucceeded
	case "CANCELLED", "VOIDED":
		status = ResultCancelled
	default:
		status = ResultFailed
	}

	return &Result{
		Provider:    g.Name(),
		Reference:   cb.CustomID,
		AmountCents: amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:    strings.ToUpper(cb.Amount.CurrencyCode),
		Status:      status,
	}, nil
}
