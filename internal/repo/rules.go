package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/backend-importa/internal/allocation"
	"github.com/noah-isme/backend-importa/internal/purchase"
)

// ListDistributionRules returns the live expense-type to method mapping.
func (s *Store) ListDistributionRules(ctx context.Context) ([]purchase.DistributionRule, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT expense_type, method, updated_at FROM distribution_rules ORDER BY expense_type`)
	if err != nil {
		return nil, fmt.Errorf("repo: list distribution rules: %w", err)
	}
	defer rows.Close()

	var rules []purchase.DistributionRule
	for rows.Next() {
		var rule purchase.DistributionRule
		var method string
		if err := rows.Scan(&rule.ExpenseType, &method, &rule.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repo: scan distribution rule: %w", err)
		}
		rule.Method = allocation.Method(method)
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// UpsertDistributionRule sets the method for one expense type. Existing
// expenses keep their snapshotted method; only future recordings see this.
func (s *Store) UpsertDistributionRule(ctx context.Context, expenseType string, method allocation.Method) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO distribution_rules (expense_type, method, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (expense_type) DO UPDATE SET method = EXCLUDED.method, updated_at = EXCLUDED.updated_at`,
		expenseType, string(method), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("repo: upsert distribution rule: %w", err)
	}
	return nil
}
