package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-importa/internal/money"
	"github.com/noah-isme/backend-importa/internal/purchase"
)

// InsertPayment persists one disbursement with its precomputed home figures.
func (s *Store) InsertPayment(ctx context.Context, p purchase.Payment) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO payments (id, order_id, paid_at, category, method, currency, amount, fee, rate, gross_home, net_home, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.OrderID, p.PaidAt, p.Category, p.Method, string(p.Currency),
		p.Amount, p.Fee, p.Rate.String(), p.GrossHome, p.NetHome, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repo: insert payment: %w", err)
	}
	return nil
}

// ListPaymentsByOrder returns an order's payments oldest first.
func (s *Store) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]purchase.Payment, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, order_id, paid_at, category, method, currency, amount, fee, rate::text, gross_home, net_home, created_at
		FROM payments WHERE order_id = $1 ORDER BY paid_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("repo: list payments: %w", err)
	}
	defer rows.Close()

	var payments []purchase.Payment
	for rows.Next() {
		var p purchase.Payment
		var currency, rate string
		if err := rows.Scan(&p.ID, &p.OrderID, &p.PaidAt, &p.Category, &p.Method, &currency,
			&p.Amount, &p.Fee, &rate, &p.GrossHome, &p.NetHome, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("repo: scan payment: %w", err)
		}
		p.Currency = money.Currency(currency)
		if p.Rate, err = parseDecimal(rate); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
