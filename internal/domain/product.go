package domain

import "time"

// Product is a digital good from the catalog. Its PriceCents is the only
// price the order builder trusts; client-echoed prices are ignored.
type Product struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"priceCents"`
	Currency    string    `json:"currency"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}
