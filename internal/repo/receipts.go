package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-importa/internal/purchase"
)

// InsertReceipt persists one arrival event.
func (s *Store) InsertReceipt(ctx context.Context, r purchase.Receipt) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO receipts (id, order_id, line_item_id, arrived_at, warehouse, qty, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.OrderID, r.LineItemID, r.ArrivedAt, r.Warehouse, r.Qty, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repo: insert receipt: %w", err)
	}
	return nil
}

// ListReceiptsByOrder returns an order's receipts oldest first.
func (s *Store) ListReceiptsByOrder(ctx context.Context, orderID uuid.UUID) ([]purchase.Receipt, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, order_id, line_item_id, arrived_at, warehouse, qty, created_at
		FROM receipts WHERE order_id = $1 ORDER BY arrived_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("repo: list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []purchase.Receipt
	for rows.Next() {
		var r purchase.Receipt
		if err := rows.Scan(&r.ID, &r.OrderID, &r.LineItemID, &r.ArrivedAt, &r.Warehouse, &r.Qty, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("repo: scan receipt: %w", err)
		}
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}
