package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-importa/internal/allocation"
	"github.com/noah-isme/backend-importa/internal/purchase"
)

// InsertExpense persists one logistics expense with its snapshotted
// distribution method.
func (s *Store) InsertExpense(ctx context.Context, e purchase.Expense) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO expenses (id, order_id, incurred_at, type, provider, amount, allocation_method, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.OrderID, e.IncurredAt, e.Type, e.Provider, e.Amount,
		string(e.AllocationMethod), e.Notes, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repo: insert expense: %w", err)
	}
	return nil
}

// ListExpensesByOrder returns an order's expenses oldest first.
func (s *Store) ListExpensesByOrder(ctx context.Context, orderID uuid.UUID) ([]purchase.Expense, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, order_id, incurred_at, type, provider, amount, allocation_method, notes, created_at
		FROM expenses WHERE order_id = $1 ORDER BY incurred_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("repo: list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []purchase.Expense
	for rows.Next() {
		var e purchase.Expense
		var method string
		if err := rows.Scan(&e.ID, &e.OrderID, &e.IncurredAt, &e.Type, &e.Provider,
			&e.Amount, &method, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("repo: scan expense: %w", err)
		}
		e.AllocationMethod = allocation.Method(method)
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}
