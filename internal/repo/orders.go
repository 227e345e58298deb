package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-importa/internal/money"
	"github.com/noah-isme/backend-importa/internal/purchase"
)

// InsertOrder persists an order header together with its line items in one
// transaction.
func (s *Store) InsertOrder(ctx context.Context, order purchase.PurchaseOrder) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO purchase_orders (id, code, supplier, category, order_date, currency, fob_total, ordered_qty, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
			order.ID, order.Code, order.Supplier, order.Category, order.OrderDate,
			string(order.Currency), order.FOBTotal, order.OrderedQty, order.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("repo: insert order: %w", err)
		}
		for _, item := range order.Items {
			_, err := tx.Exec(ctx, `
				INSERT INTO line_items (id, order_id, sku, name, qty, boxes, unit_weight, unit_volume, unit_price, fob_subtotal, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				item.ID, order.ID, item.SKU, item.Name, item.Qty, item.Boxes,
				item.UnitWeight.String(), item.UnitVolume.String(), item.UnitPrice, item.FOBSubtotal, item.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("repo: insert line item %s: %w", item.SKU, err)
			}
		}
		return nil
	})
}

// GetOrder loads an order header with its line items.
func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (purchase.PurchaseOrder, error) {
	var order purchase.PurchaseOrder
	var currency string
	err := s.Pool.QueryRow(ctx, `
		SELECT id, code, supplier, category, order_date, currency, fob_total, ordered_qty, created_at, updated_at
		FROM purchase_orders WHERE id = $1`, id).
		Scan(&order.ID, &order.Code, &order.Supplier, &order.Category, &order.OrderDate,
			&currency, &order.FOBTotal, &order.OrderedQty, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return purchase.PurchaseOrder{}, purchase.ErrNotFound
		}
		return purchase.PurchaseOrder{}, fmt.Errorf("repo: get order: %w", err)
	}
	order.Currency = money.Currency(currency)
	items, err := s.listItems(ctx, id)
	if err != nil {
		return purchase.PurchaseOrder{}, err
	}
	order.Items = items
	return order, nil
}

// ListOrders returns order headers newest first, without line items.
func (s *Store) ListOrders(ctx context.Context, limit, offset int32) ([]purchase.PurchaseOrder, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, code, supplier, category, order_date, currency, fob_total, ordered_qty, created_at, updated_at
		FROM purchase_orders ORDER BY order_date DESC, code DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("repo: list orders: %w", err)
	}
	defer rows.Close()

	var orders []purchase.PurchaseOrder
	for rows.Next() {
		var order purchase.PurchaseOrder
		var currency string
		if err := rows.Scan(&order.ID, &order.Code, &order.Supplier, &order.Category, &order.OrderDate,
			&currency, &order.FOBTotal, &order.OrderedQty, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repo: scan order: %w", err)
		}
		order.Currency = money.Currency(currency)
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// ListOrderIDs returns every order id, used by the portfolio fold.
func (s *Store) ListOrderIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id FROM purchase_orders ORDER BY order_date DESC, code DESC`)
	if err != nil {
		return nil, fmt.Errorf("repo: list order ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repo: scan order id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AmendOrder updates clerical header fields only. Quantities and FOB figures
// are immutable after creation.
func (s *Store) AmendOrder(ctx context.Context, id uuid.UUID, supplier, category string, orderDate time.Time) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE purchase_orders SET supplier = $2, category = $3, order_date = $4, updated_at = now()
		WHERE id = $1`, id, supplier, category, orderDate)
	if err != nil {
		return fmt.Errorf("repo: amend order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return purchase.ErrNotFound
	}
	return nil
}

func (s *Store) listItems(ctx context.Context, orderID uuid.UUID) ([]purchase.LineItem, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, order_id, sku, name, qty, boxes, unit_weight::text, unit_volume::text, unit_price, fob_subtotal, created_at
		FROM line_items WHERE order_id = $1 ORDER BY sku`, orderID)
	if err != nil {
		return nil, fmt.Errorf("repo: list items: %w", err)
	}
	defer rows.Close()

	var items []purchase.LineItem
	for rows.Next() {
		var item purchase.LineItem
		var weight, volume string
		if err := rows.Scan(&item.ID, &item.OrderID, &item.SKU, &item.Name, &item.Qty, &item.Boxes,
			&weight, &volume, &item.UnitPrice, &item.FOBSubtotal, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("repo: scan item: %w", err)
		}
		if item.UnitWeight, err = parseDecimal(weight); err != nil {
			return nil, err
		}
		if item.UnitVolume, err = parseDecimal(volume); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
