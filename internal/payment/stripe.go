package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ybt-digital/internal/domain"
)

// Stripe creates payment intents server-side and verifies webhook events
// using the "t=...,v1=..." signed-header scheme.
type Stripe struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	client        *http.Client
	now           func() time.Time
}

const stripeSignatureTolerance = 5 * time.Minute

func NewStripe(secretKey, webhookSecret, baseURL string) *Stripe {
	return &Stripe{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		client:        &http.Client{Timeout: 10 * time.Second},
		now:           time.Now,
	}
}

func (g *Stripe) Name() string { return "stripe" }

type stripeIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

func (g *Stripe) Initiate(ctx context.Context, req InitiateRequest) (*ProviderSession, error) {
	if g.secretKey == "" {
		return nil, &ProviderError{Provider: g.Name(), Retryable: false, Err: errors.New("stripe secret key not configured")}
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountCents, 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("receipt_email", req.CustomerEmail)
	form.Set("metadata[order_id]", req.OrderID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &ProviderError{Provider: g.Name(), Retryable: false, Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.secretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		// Network errors and timeouts are retryable; the order stays pending.
		return nil, &ProviderError{Provider: g.Name(), Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &ProviderError{Provider: g.Name(), Retryable: true, Err: err}
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, &ProviderError{Provider: g.Name(), Retryable: true, Err: fmt.Errorf("stripe responded %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return nil, &ProviderError{Provider: g.Name(), Retryable: false, Err: fmt.Errorf("stripe rejected intent: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var intent stripeIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, &ProviderError{Provider: g.Name(), Retryable: false, Err: fmt.Errorf("decode intent: %w", err)}
	}

	return &ProviderSession{
		Provider:  g.Name(),
		Reference: intent.ID,
		ClientParams: map[string]string{
			"client_secret": intent.ClientSecret,
		},
	}, nil
}

type stripeEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string `json:"id"`
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
		} `json:"object"`
	} `json:"data"`
}

func (g *Stripe) VerifyCallback(payload []byte, signature string) (*Result, error) {
	ts, v1, err := parseStripeSignature(signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	if g.now().Sub(time.Unix(ts, 0)).Abs() > stripeSignatureTolerance {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", domain.ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return nil, domain.ErrInvalidSignature
	}

	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode stripe event: %w", err)
	}

	var status ResultStatus
	switch event.Type {
	case "payment_intent.succeeded":
		status = ResultSucceeded
	case "payment_intent.payment_failed":
		status = ResultFailed
	case "payment_intent.canceled":
		status = ResultCancelled
	default:
		return nil, fmt.Errorf("unsupported stripe event type %q", event.Type)
	}

	return &Result{
		Provider:    g.Name(),
		Reference:   event.Data.Object.ID,
		AmountCents: event.Data.Object.Amount,
		Currency:    strings.ToUpper(event.Data.Object.Currency),
		Status:      status,
	}, nil
}

func parseStripeSignature(header string) (ts int64, v1 string, err error) {
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err = strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, "", fmt.Errorf("bad timestamp: %w", err)
			}
		case "v1":
			v1 = value
		}
	}
	if ts == 0 || v1 == "" {
		return 0, "", errors.New("missing t or v1 element")
	}
	return ts, v1, nil
}
