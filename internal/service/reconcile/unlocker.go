package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"ybt-digital/internal/domain"
)

// LogUnlocker records the unlock instead of calling out. Used when no
// entitlement endpoint is configured.
func LogUnlocker(logger *log.Logger) Unlocker {
	return UnlockerFunc(func(_ context.Context, order domain.Order) error {
		logger.Printf("entitlement: unlock order_id=%s lines=%d", order.ID, len(order.Lines))
		return nil
	})
}

// HTTPUnlocker posts the completed order's line items to the entitlement
// service that grants download access.
type HTTPUnlocker struct {
	url    string
	client *http.Client
}

func NewHTTPUnlocker(url string, client *http.Client) *HTTPUnlocker {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPUnlocker{url: url, client: client}
}

type unlockPayload struct {
	OrderID  string       `json:"order_id"`
	Email    string       `json:"email"`
	Products []unlockLine `json:"products"`
}

type unlockLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (u *HTTPUnlocker) Unlock(ctx context.Context, order domain.Order) error {
	payload := unlockPayload{
		OrderID: order.ID,
		Email:   order.Shipping.Email,
	}
	for _, line := range order.Lines {
		payload.Products = append(payload.Products, unlockLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal unlock payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build unlock request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("unlock order %s: %w", order.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unlock order %s: entitlement service returned %d", order.ID, resp.StatusCode)
	}
	return nil
}
