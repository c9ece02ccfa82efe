package order

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"ybt-digital/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const orderColumns = `
id::text, status, subtotal_cents, tax_cents, discount_cents, total_cents, currency, coupon_code,
customer_name, customer_email, COALESCE(customer_phone, ''), ship_address, ship_city, ship_country, ship_postal_code,
flagged, created_at`

func (r *postgresRepo) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertOrder = `
INSERT INTO orders (status, subtotal_cents, tax_cents, discount_cents, total_cents, currency, coupon_code,
                    customer_name, customer_email, customer_phone, ship_address, ship_city, ship_country, ship_postal_code)
VALUES ('pending', $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING id::text
`
	var orderID string
	if err := tx.QueryRow(ctx, insertOrder,
		in.SubtotalCents, in.TaxCents, in.DiscountCents, in.TotalCents, in.Currency, in.CouponCode,
		in.Shipping.Name, in.Shipping.Email, nilIfEmpty(in.Shipping.Phone),
		in.Shipping.Address, in.Shipping.City, in.Shipping.Country, in.Shipping.PostalCode,
	).Scan(&orderID); err != nil {
		return nil, err
	}

	const insertLine = `
INSERT INTO order_lines (order_id, product_id, title, quantity, unit_price_cents, total_cents)
VALUES ($1, $2, $3, $4, $5, $6)
`
	for _, line := range in.Lines {
		total := line.UnitPriceCents * int64(line.Quantity)
		if _, err := tx.Exec(ctx, insertLine, orderID, line.ProductID, line.Title, line.Quantity, line.UnitPriceCents, total); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	r.logger.Printf("order repo: created order_id=%s total_cents=%d", orderID, in.TotalCents)
	return r.GetByID(ctx, orderID)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order, err := r.fetchOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}

	const linesQuery = `
SELECT id::text, order_id::text, product_id::text, title, quantity, unit_price_cents, total_cents
FROM order_lines
WHERE order_id = $1
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, order.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.Title, &line.Quantity, &line.UnitPriceCents, &line.TotalCents); err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *postgresRepo) ListFlagged(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE flagged ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, rows.Err()
}

func (r *postgresRepo) TransitionStatus(ctx context.Context, id string, from []domain.OrderStatus, to domain.OrderStatus) (bool, error) {
	const q = `
UPDATE orders
SET status = $2
WHERE id = $1 AND status = ANY($3)
`
	fromStrs := lo.Map(from, func(s domain.OrderStatus, _ int) string { return string(s) })
	cmd, err := r.pool.Exec(ctx, q, id, string(to), fromStrs)
	if err != nil {
		return false, err
	}
	applied := cmd.RowsAffected() == 1
	if applied {
		r.logger.Printf("order repo: transition order_id=%s to=%s", id, to)
	}
	return applied, nil
}

func (r *postgresRepo) Flag(ctx context.Context, id, reason string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE orders SET flagged = TRUE, flag_reason = $2 WHERE id = $1`, id, reason)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("order repo: flagged order_id=%s reason=%q", id, reason)
	return nil
}

func (r *postgresRepo) CreateAttempt(ctx context.Context, attempt domain.PaymentAttempt) error {
	const q = `
INSERT INTO payment_attempts (id, order_id, provider, provider_reference, amount_cents, currency, status)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := r.pool.Exec(ctx, q,
		attempt.ID, attempt.OrderID, attempt.Provider, attempt.ProviderReference,
		attempt.AmountCents, attempt.Currency, string(attempt.Status),
	)
	return err
}

func (r *postgresRepo) GetAttemptByReference(ctx context.Context, provider, reference string) (*domain.PaymentAttempt, error) {
	const q = `
SELECT id::text, order_id::text, provider, provider_reference, amount_cents, currency, status, created_at, confirmed_at
FROM payment_attempts
WHERE provider = $1 AND provider_reference = $2
`
	var a domain.PaymentAttempt
	var status string
	err := r.pool.QueryRow(ctx, q, provider, reference).Scan(
		&a.ID, &a.OrderID, &a.Provider, &a.ProviderReference,
		&a.AmountCents, &a.Currency, &status, &a.CreatedAt, &a.ConfirmedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	a.Status = domain.PaymentStatus(status)
	return &a, nil
}

func (r *postgresRepo) ListAttempts(ctx context.Context, orderID string) ([]domain.PaymentAttempt, error) {
	const q = `
SELECT id::text, order_id::text, provider, provider_reference, amount_cents, currency, status, created_at, confirmed_at
FROM payment_attempts
WHERE order_id = $1
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PaymentAttempt
	for rows.Next() {
		var a domain.PaymentAttempt
		var status string
		if err := rows.Scan(&a.ID, &a.OrderID, &a.Provider, &a.ProviderReference, &a.AmountCents, &a.Currency, &status, &a.CreatedAt, &a.ConfirmedAt); err != nil {
			return nil, err
		}
		a.Status = domain.PaymentStatus(status)
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *postgresRepo) FinalizeAttempt(ctx context.Context, attemptID string, status domain.PaymentStatus, confirmedAt time.Time) (bool, error) {
	const q = `
UPDATE payment_attempts
SET status = $2, confirmed_at = $3
WHERE id = $1 AND status = 'initiated'
`
	cmd, err := r.pool.Exec(ctx, q, attemptID, string(status), confirmedAt)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *postgresRepo) fetchOrder(ctx context.Context, query string, args ...interface{}) (*domain.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var status string
	err := row.Scan(
		&o.ID, &status, &o.SubtotalCents, &o.TaxCents, &o.DiscountCents, &o.TotalCents, &o.Currency, &o.CouponCode,
		&o.Shipping.Name, &o.Shipping.Email, &o.Shipping.Phone,
		&o.Shipping.Address, &o.Shipping.City, &o.Shipping.Country, &o.Shipping.PostalCode,
		&o.Flagged, &o.CreatedAt,
	)
	o.Status = domain.OrderStatus(status)
	return o, err
}

func nilIfEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return lo.ToPtr(v)
}
