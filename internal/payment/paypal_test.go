package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ybt-digital/internal/domain"
)

func TestPayPalInitiateFormatsDecimalAmount(t *testing.T) {
	gw := NewPayPal("client-1", "hook-token")
	session, err := gw.Initiate(context.Background(), InitiateRequest{
		OrderID:     "o1",
		AmountCents: 9500,
		Currency:    "USD",
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if session.ClientParams["value"] != "95.00" || session.ClientParams["currency_code"] != "USD" {
		t.Fatalf("unexpected client params %+v", session.ClientParams)
	}
	if session.ClientParams["custom_id"] != session.Reference {
		t.Fatal("custom_id must carry the session reference")
	}
}

func TestPayPalVerifyCallback(t *testing.T) {
	gw := NewPayPal("client-1", "hook-token")
	payload := []byte(`{"id":"cap-9","status":"COMPLETED","custom_id":"ref-1","amount":{"value":"95.00","currency_code":"USD"}}`)

	result, err := gw.VerifyCallback(payload, "hook-token")
	if err != nil {
		t.Fatalf("VerifyCallback: %v", err)
	}
	if result.Reference != "ref-1" || result.AmountCents != 9500 || result.Status != ResultSucceeded {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestPayPalVerifyCallbackBadToken(t *testing.T) {
	gw := NewPayPal("client-1", "hook-token")
	payload := []byte(`{"id":"cap-9","status":"COMPLETED","custom_id":"ref-1","amount":{"value":"95.00","currency_code":"USD"}}`)

	if _, err := gw.VerifyCallback(payload, "wrong"); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestPayPalVerifyCallbackStatuses(t *testing.T) {
	gw := NewPayPal("client-1", "hook-token")
	cases := []struct {
		status string
		want   ResultStatus
	}{
		{"COMPLETED", ResultSucceeded},
		{"DECLINED", ResultFailed},
		{"VOIDED", ResultCancelled},
	}
	for _, tc := range cases {
		payload := fmt.Appendf(nil, `{"status":%q,"custom_id":"ref-1","amount":{"value":"1.00","currency_code":"USD"}}`, tc.status)
		result, err := gw.VerifyCallback(payload, "hook-token")
		if err != nil {
			t.Fatalf("VerifyCallback(%s): %v", tc.status, err)
		}
		if result.Status != tc.want {
			t.Fatalf("status %s: expected %s, got %s", tc.status, tc.want, result.Status)
		}
	}
}

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry(NewRazorpay("k", "s"), NewPayPal("c", "t"))

	if _, err := registry.Get("razorpay"); err != nil {
		t.Fatalf("expected razorpay gateway, got %v", err)
	}
	if _, err := registry.Get("bitcoin"); !errors.Is(err, ErrUnsupportedGateway) {
		t.Fatalf("expected unsupported gateway error, got %v", err)
	}
}
