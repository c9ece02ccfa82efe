package domain

import "strings"

// CartItem references a catalog product by ID; the price is resolved
// server-side at order build time.
type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CartSnapshot is the ephemeral, session-scoped cart. It is discarded once
// converted into an Order.
type CartSnapshot struct {
	Items []CartItem `json:"items"`
}

func (c CartSnapshot) Validate() error {
	if len(c.Items) == 0 {
		return ErrEmptyCart
	}
	for _, item := range c.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return ErrNotFound
		}
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// ShippingInfo is the billing/delivery form for a digital-goods order.
// Phone is optional; everything else is mandatory.
type ShippingInfo struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
}

func (s ShippingInfo) Validate() error {
	required := []struct {
		field, value string
	}{
		{"name", s.Name},
		{"email", s.Email},
		{"address", s.Address},
		{"city", s.City},
		{"country", s.Country},
		{"postalCode", s.PostalCode},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.field)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// MissingFieldsError reports which mandatory shipping fields were absent so
// the storefront can surface them inline.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}
