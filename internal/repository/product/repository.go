package product

import (
	"context"

	"ybt-digital/internal/domain"
)

type Repository interface {
	ListActive(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetByIDs resolves authoritative prices for the order builder. The
	// result is keyed by product ID; missing or inactive IDs are absent.
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}
