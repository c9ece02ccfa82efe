// Package payment adapts external payment providers behind one capability
// set: initiate a provider session, verify an inbound callback. Callers never
// see provider-specific shapes.
package payment

import (
	"context"
	"errors"
	"fmt"
)

type ResultStatus string

const (
	ResultSucceeded ResultStatus = "succeeded"
	ResultFailed    ResultStatus = "failed"
	ResultCancelled ResultStatus = "cancelled"
)

// Result is a verified, provider-reported payment outcome. Only results that
// passed callback verification may be handed to the reconciliation ledger.
type Result struct {
	Provider    string
	Reference   string
	AmountCents int64
	Currency    string
	Status      ResultStatus
}

// InitiateRequest opens a payment session for a pending order.
type InitiateRequest struct {
	OrderID       string
	AmountCents   int64
	Currency      string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

// ProviderSession carries whatever parameters the provider's client-side flow
// needs to complete payment, plus the reference later echoed by callbacks.
type ProviderSession struct {
	Provider     string            `json:"provider"`
	Reference    string            `json:"reference"`
	ClientParams map[string]string `json:"clientParams"`
}

type Gateway interface {
	Name() string
	Initiate(ctx context.Context, req InitiateRequest) (*ProviderSession, error)
	VerifyCallback(payload []byte, signature string) (*Result, error)
}

// ProviderError classifies initiate failures. Retryable means the caller may
// retry or let the user pick another provider; either way the order stays
// pending.
type ProviderError struct {
	Provider  string
	Retryable bool
	Err       error
}

func (e *ProviderError) Error() string {
	kind := "fatal"
	if e.Retryable {
		kind = "retryable"
	}
	return fmt.Sprintf("%s: %s provider error: %v", e.Provider, kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a retryable provider error.
func IsRetryable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Retryable
}

// ErrUnsupportedGateway is returned for provider keys no variant claims.
var ErrUnsupportedGateway = errors.New("unsupported payment gateway")

// Registry maps provider selection keys to gateway variants.
type Registry map[string]Gateway

func NewRegistry(gateways ...Gateway) Registry {
	r := make(Registry, len(gateways))
	for _, gw := range gateways {
		r[gw.Name()] = gw
	}
	return r
}

func (r Registry) Get(name string) (Gateway, error) {
	gw, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedGateway, name)
	}
	return gw, nil
}
