package repo

import (
	"context"
	"fmt"

	"github.com/noah-isme/backend-importa/internal/purchase"
)

// RecentTransactions merges payments and expenses into one feed sorted by
// date, newest first. Payments contribute their net home amount; expenses are
// already home currency.
func (s *Store) RecentTransactions(ctx context.Context, limit int32) ([]purchase.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT kind, record_id, order_id, order_code, occurred_at, label, amount_home FROM (
			SELECT 'payment' AS kind, p.id AS record_id, p.order_id, o.code AS order_code,
			       p.paid_at AS occurred_at, p.category AS label, p.net_home AS amount_home
			FROM payments p JOIN purchase_orders o ON o.id = p.order_id
			UNION ALL
			SELECT 'expense' AS kind, e.id AS record_id, e.order_id, o.code AS order_code,
			       e.incurred_at AS occurred_at, e.type AS label, e.amount AS amount_home
			FROM expenses e JOIN purchase_orders o ON o.id = e.order_id
		) feed
		ORDER BY occurred_at DESC, record_id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("repo: recent transactions: %w", err)
	}
	defer rows.Close()

	var feed []purchase.Transaction
	for rows.Next() {
		var tx purchase.Transaction
		if err := rows.Scan(&tx.Kind, &tx.RecordID, &tx.OrderID, &tx.OrderCode,
			&tx.OccurredAt, &tx.Label, &tx.AmountHome); err != nil {
			return nil, fmt.Errorf("repo: scan transaction: %w", err)
		}
		feed = append(feed, tx)
	}
	return feed, rows.Err()
}
