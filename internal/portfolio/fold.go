// Package portfolio aggregates per-order landed-cost reports into the KPIs
// shown on the dashboard. Like the cost engine it is a pure fold: every number
// is derived from the input reports, nothing is read or stored here.
package portfolio

import (
	"sort"

	"github.com/noah-isme/backend-importa/internal/landedcost"
	"github.com/noah-isme/backend-importa/internal/money"
)

// SupplierStat summarizes all orders placed with one supplier.
type SupplierStat struct {
	Supplier        string       `json:"supplier"`
	Orders          int          `json:"orders"`
	TotalInvestment money.Amount `json:"total_investment"`
	UnitsReceived   int64        `json:"units_received"`
}

// ExpenseTypeStat totals one expense type across the whole portfolio.
type ExpenseTypeStat struct {
	Type  string       `json:"type"`
	Count int          `json:"count"`
	Total money.Amount `json:"total"`
}

// OrderStat is one row of the top-investment ranking.
type OrderStat struct {
	OrderID         string       `json:"order_id"`
	Code            string       `json:"code"`
	Supplier        string       `json:"supplier"`
	TotalInvestment money.Amount `json:"total_investment"`
	Complete        bool         `json:"complete"`
}

// Overview is the portfolio-wide KPI set.
type Overview struct {
	Home            money.Currency    `json:"home"`
	Orders          int               `json:"orders"`
	ActiveOrders    int               `json:"active_orders"`
	CompletedOrders int               `json:"completed_orders"`
	TotalInvestment money.Amount      `json:"total_investment"`
	TotalPayments   money.Amount      `json:"total_payments_net"`
	TotalExpenses   money.Amount      `json:"total_expenses"`
	UnitsOrdered    int64             `json:"units_ordered"`
	UnitsReceived   int64             `json:"units_received"`
	UnitsVariance   int64             `json:"units_variance"`
	AvgUnitCost     *money.Amount     `json:"avg_unit_cost,omitempty"`
	Warnings        int               `json:"warnings"`
	Issues          int               `json:"issues"`
	BySupplier      []SupplierStat    `json:"by_supplier"`
	ByExpenseType   []ExpenseTypeStat `json:"by_expense_type"`
	TopOrders       []OrderStat       `json:"top_orders"`
}

// Fold aggregates the given reports into one Overview. topN bounds the
// top-orders ranking; non-positive values default to 5.
func Fold(home money.Currency, reports []landedcost.OrderCostReport, topN int) Overview {
	if topN <= 0 {
		topN = 5
	}
	overview := Overview{
		Home:            home,
		Orders:          len(reports),
		TotalInvestment: money.Zero(home),
		TotalPayments:   money.Zero(home),
		TotalExpenses:   money.Zero(home),
		BySupplier:      []SupplierStat{},
		ByExpenseType:   []ExpenseTypeStat{},
		TopOrders:       []OrderStat{},
	}

	suppliers := map[string]*SupplierStat{}
	expenseTypes := map[string]*ExpenseTypeStat{}

	for _, report := range reports {
		if report.Complete {
			overview.CompletedOrders++
		} else {
			overview.ActiveOrders++
		}
		overview.TotalInvestment.Units += report.TotalInvestment.Units
		overview.TotalPayments.Units += report.TotalPaymentsNet.Units
		overview.TotalExpenses.Units += report.TotalExpenses.Units
		overview.UnitsOrdered += report.OrderedQty
		overview.UnitsReceived += report.ReceivedQty
		overview.Warnings += len(report.Warnings)
		overview.Issues += len(report.Issues)

		stat := suppliers[report.Supplier]
		if stat == nil {
			stat = &SupplierStat{Supplier: report.Supplier, TotalInvestment: money.Zero(home)}
			suppliers[report.Supplier] = stat
		}
		stat.Orders++
		stat.TotalInvestment.Units += report.TotalInvestment.Units
		stat.UnitsReceived += report.ReceivedQty

		for _, expense := range report.Expenses {
			ts := expenseTypes[expense.Type]
			if ts == nil {
				ts = &ExpenseTypeStat{Type: expense.Type, Total: money.Zero(home)}
				expenseTypes[expense.Type] = ts
			}
			ts.Count++
			ts.Total.Units += expense.Amount.Units
		}

		overview.TopOrders = append(overview.TopOrders, OrderStat{
			OrderID:         report.OrderID.String(),
			Code:            report.Code,
			Supplier:        report.Supplier,
			TotalInvestment: report.TotalInvestment,
			Complete:        report.Complete,
		})
	}

	overview.UnitsVariance = overview.UnitsOrdered - overview.UnitsReceived
	if overview.UnitsReceived > 0 {
		if avg, err := overview.TotalInvestment.DivInt(overview.UnitsReceived); err == nil {
			overview.AvgUnitCost = &avg
		}
	}

	for _, stat := range suppliers {
		overview.BySupplier = append(overview.BySupplier, *stat)
	}
	sort.Slice(overview.BySupplier, func(i, j int) bool {
		a, b := overview.BySupplier[i], overview.BySupplier[j]
		if a.TotalInvestment.Units != b.TotalInvestment.Units {
			return a.TotalInvestment.Units > b.TotalInvestment.Units
		}
		return a.Supplier < b.Supplier
	})

	for _, stat := range expenseTypes {
		overview.ByExpenseType = append(overview.ByExpenseType, *stat)
	}
	sort.Slice(overview.ByExpenseType, func(i, j int) bool {
		a, b := overview.ByExpenseType[i], overview.ByExpenseType[j]
		if a.Total.Units != b.Total.Units {
			return a.Total.Units > b.Total.Units
		}
		return a.Type < b.Type
	})

	sort.Slice(overview.TopOrders, func(i, j int) bool {
		a, b := overview.TopOrders[i], overview.TopOrders[j]
		if a.TotalInvestment.Units != b.TotalInvestment.Units {
			return a.TotalInvestment.Units > b.TotalInvestment.Units
		}
		return a.Code < b.Code
	})
	if len(overview.TopOrders) > topN {
		overview.TopOrders = overview.TopOrders[:topN]
	}

	return overview
}
