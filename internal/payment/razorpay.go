package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ybt-digital/internal/domain"
	"github.com/google/uuid"
)

// Razorpay opens checkout sessions for the hosted Razorpay widget and
// verifies callback signatures (HMAC-SHA256 over "orderRef|paymentID").
type Razorpay struct {
	keyID     string
	keySecret string
}

func NewRazorpay(keyID, keySecret string) *Razorpay {
	return &Razorpay{keyID: keyID, keySecret: keySecret}
}

func (g *Razorpay) Name() string { return "razorpay" }

func (g *Razorpay) Initiate(_ context.Context, req InitiateRequest) (*ProviderSession, error) {
	if g.keyID == "" || g.keySecret == "" {
		return nil, &ProviderError{Provider: g.Name(), Retryable: false, Err: errors.New("razorpay keys not configured")}
	}

	reference := "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	return &ProviderSession{
		Provider:  g.Name(),
		Reference: reference,
		ClientParams: map[string]string{
			"key":             g.keyID,
			"amount":          strconv.FormatInt(req.AmountCents, 10),
			"currency":        req.Currency,
			"order_id":        reference,
			"name":            "YBT Digital",
			"description":     "Digital Products Purchase",
			"prefill_name":    req.CustomerName,
			"prefill_email":   req.CustomerEmail,
			"prefill_contact": req.CustomerPhone,
		},
	}, nil
}

type razorpayCallback struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

func (g *Razorpay) VerifyCallback(payload []byte, signature string) (*Result, error) {
	var cb razorpayCallback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, fmt.Errorf("decode razorpay callback: %w", err)
	}
	if cb.OrderID == "" || cb.PaymentID == "" {
		return nil, fmt.Errorf("razorpay callback missing identifiers: %w", domain.ErrInvalidSignature)
	}

	expected := razorpaySignature(g.keySecret, cb.OrderID, cb.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, domain.ErrInvalidSignature
	}

	var status ResultStatus
	switch cb.Status {
	case "captured":
		status = ResultSucceeded
	case "cancelled", "dismissed":
		status = ResultCancelled
	default:
		status = ResultFailed
	}

	return &Result{
		Provider:    g.Name(),
		Reference:   cb.OrderID,
		AmountCents: cb.Amount,
		Currency:    strings.ToUpper(cb.Currency),
		Status:      status,
	}, nil
}

func razorpaySignature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
