package purchase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-importa/internal/allocation"
	"github.com/noah-isme/backend-importa/internal/events"
	"github.com/noah-isme/backend-importa/internal/money"
	"github.com/noah-isme/backend-importa/internal/obs"
)

// Store captures the persistence operations the purchase service needs.
type Store interface {
	InsertOrder(ctx context.Context, order PurchaseOrder) error
	GetOrder(ctx context.Context, id uuid.UUID) (PurchaseOrder, error)
	ListOrders(ctx context.Context, limit, offset int32) ([]PurchaseOrder, error)
	AmendOrder(ctx context.Context, id uuid.UUID, supplier, category string, orderDate time.Time) error
	InsertPayment(ctx context.Context, p Payment) error
	InsertExpense(ctx context.Context, e Expense) error
	InsertReceipt(ctx context.Context, r Receipt) error
	ListDistributionRules(ctx context.Context) ([]DistributionRule, error)
	UpsertDistributionRule(ctx context.Context, expenseType string, method allocation.Method) error
}

// Service implements order intake and the append-only transaction log.
// Home-currency payment figures are computed once, at write time, the same
// two-step gross/net calculation the engine later trusts.
type Service struct {
	Store Store
	Bus   *events.Bus
	Home  money.Currency
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// CreateOrderInput is the write payload for a new purchase order.
type CreateOrderInput struct {
	Code       string            `json:"code" validate:"required"`
	Supplier   string            `json:"supplier" validate:"required"`
	Category   string            `json:"category"`
	OrderDate  time.Time         `json:"order_date" validate:"required"`
	OrderedQty int64             `json:"ordered_qty" validate:"gte=0"`
	Items      []CreateItemInput `json:"items" validate:"required,min=1,dive"`
}

// CreateItemInput is one line on a new order. Monetary and physical measures
// arrive as decimal strings to avoid binary-float drift in transit.
type CreateItemInput struct {
	SKU        string `json:"sku" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Qty        int64  `json:"qty" validate:"gt=0"`
	Boxes      int64  `json:"boxes" validate:"gte=0"`
	UnitWeight string `json:"unit_weight"`
	UnitVolume string `json:"unit_volume"`
	UnitPrice  string `json:"unit_price" validate:"required"`
}

// CreateOrder validates and persists a new order with its items. The FOB
// subtotals and header total are derived from the lines, never trusted from
// the client.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (PurchaseOrder, error) {
	now := s.now()
	order := PurchaseOrder{
		ID:         uuid.New(),
		Code:       in.Code,
		Supplier:   in.Supplier,
		Category:   in.Category,
		OrderDate:  in.OrderDate,
		Currency:   money.USD,
		OrderedQty: in.OrderedQty,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	var fobTotal, totalQty int64
	for _, itemIn := range in.Items {
		unitPrice, err := money.Parse(itemIn.UnitPrice, money.USD)
		if err != nil {
			return PurchaseOrder{}, fmt.Errorf("item %s: unit price: %w", itemIn.SKU, err)
		}
		weight, err := parseMeasure(itemIn.UnitWeight)
		if err != nil {
			return PurchaseOrder{}, fmt.Errorf("item %s: unit weight: %w", itemIn.SKU, err)
		}
		volume, err := parseMeasure(itemIn.UnitVolume)
		if err != nil {
			return PurchaseOrder{}, fmt.Errorf("item %s: unit volume: %w", itemIn.SKU, err)
		}
		item := LineItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			SKU:         itemIn.SKU,
			Name:        itemIn.Name,
			Qty:         itemIn.Qty,
			Boxes:       itemIn.Boxes,
			UnitWeight:  weight,
			UnitVolume:  volume,
			UnitPrice:   unitPrice.Units,
			FOBSubtotal: itemIn.Qty * unitPrice.Units,
			CreatedAt:   now,
		}
		fobTotal += item.FOBSubtotal
		totalQty += item.Qty
		order.Items = append(order.Items, item)
	}
	order.FOBTotal = fobTotal
	if order.OrderedQty == 0 {
		order.OrderedQty = totalQty
	}
	if err := s.Store.InsertOrder(ctx, order); err != nil {
		return PurchaseOrder{}, err
	}
	s.emit(ctx, events.TopicOrderCreated, order.ID, map[string]any{"code": order.Code})
	return order, nil
}

// AmendOrderInput covers the clerical fields that may change after creation.
type AmendOrderInput struct {
	Supplier  string    `json:"supplier" validate:"required"`
	Category  string    `json:"category"`
	OrderDate time.Time `json:"order_date" validate:"required"`
}

// AmendOrder updates clerical fields; pricing and quantities stay frozen.
func (s *Service) AmendOrder(ctx context.Context, id uuid.UUID, in AmendOrderInput) error {
	if err := s.Store.AmendOrder(ctx, id, in.Supplier, in.Category, in.OrderDate); err != nil {
		return err
	}
	s.emit(ctx, events.TopicOrderAmended, id, nil)
	return nil
}

// RecordPaymentInput is the write payload for one disbursement.
type RecordPaymentInput struct {
	PaidAt   time.Time `json:"paid_at" validate:"required"`
	Category string    `json:"category" validate:"required"`
	Method   string    `json:"method"`
	Currency string    `json:"currency" validate:"required,len=3"`
	Amount   string    `json:"amount" validate:"required"`
	Fee      string    `json:"fee"`
	Rate     string    `json:"rate"`
}

// RecordPayment converts the disbursement to home currency and appends it.
func (s *Service) RecordPayment(ctx context.Context, orderID uuid.UUID, in RecordPaymentInput) (Payment, error) {
	currency := money.Currency(in.Currency)
	amount, err := money.Parse(in.Amount, currency)
	if err != nil {
		return Payment{}, err
	}
	fee := money.Zero(currency)
	if in.Fee != "" {
		if fee, err = money.Parse(in.Fee, currency); err != nil {
			return Payment{}, err
		}
	}
	rate := decimal.Zero
	if in.Rate != "" {
		if rate, err = decimal.NewFromString(in.Rate); err != nil {
			return Payment{}, fmt.Errorf("%w: rate %q", money.ErrInvalidExchangeRate, in.Rate)
		}
	}
	if currency == s.Home && rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	conv, err := money.ToHome(amount, fee, rate, s.Home)
	if err != nil {
		return Payment{}, err
	}
	payment := Payment{
		ID:        uuid.New(),
		OrderID:   orderID,
		PaidAt:    in.PaidAt,
		Category:  in.Category,
		Method:    in.Method,
		Currency:  currency,
		Amount:    amount.Units,
		Fee:       fee.Units,
		Rate:      rate,
		GrossHome: conv.Gross.Units,
		NetHome:   conv.Net.Units,
		CreatedAt: s.now(),
	}
	if err := s.Store.InsertPayment(ctx, payment); err != nil {
		return Payment{}, err
	}
	if obs.TransactionsRecordedTotal != nil {
		obs.TransactionsRecordedTotal.WithLabelValues("payment").Inc()
	}
	s.emit(ctx, events.TopicPaymentRecorded, orderID, map[string]any{"payment_id": payment.ID, "net_home": payment.NetHome})
	return payment, nil
}

// RecordExpenseInput is the write payload for one logistics expense.
type RecordExpenseInput struct {
	IncurredAt time.Time `json:"incurred_at" validate:"required"`
	Type       string    `json:"type" validate:"required"`
	Provider   string    `json:"provider"`
	Amount     string    `json:"amount" validate:"required"`
	Method     string    `json:"method"`
	Notes      string    `json:"notes"`
}

// RecordExpense appends an expense, snapshotting the distribution method in
// force so later config changes never rewrite already-recorded history.
func (s *Service) RecordExpense(ctx context.Context, orderID uuid.UUID, in RecordExpenseInput) (Expense, error) {
	amount, err := money.Parse(in.Amount, s.Home)
	if err != nil {
		return Expense{}, err
	}
	method, err := s.snapshotMethod(ctx, in.Type, in.Method)
	if err != nil {
		return Expense{}, err
	}
	expense := Expense{
		ID:               uuid.New(),
		OrderID:          orderID,
		IncurredAt:       in.IncurredAt,
		Type:             in.Type,
		Provider:         in.Provider,
		Amount:           amount.Units,
		AllocationMethod: method,
		Notes:            in.Notes,
		CreatedAt:        s.now(),
	}
	if err := s.Store.InsertExpense(ctx, expense); err != nil {
		return Expense{}, err
	}
	if obs.TransactionsRecordedTotal != nil {
		obs.TransactionsRecordedTotal.WithLabelValues("expense").Inc()
	}
	s.emit(ctx, events.TopicExpenseRecorded, orderID, map[string]any{"expense_id": expense.ID, "type": expense.Type})
	return expense, nil
}

// snapshotMethod picks the method stored on the expense: an explicit override
// wins, then the live rule for the type. An empty result defers to the
// engine's config defaults at compute time.
func (s *Service) snapshotMethod(ctx context.Context, expenseType, override string) (allocation.Method, error) {
	if override != "" {
		return allocation.ParseMethod(override)
	}
	rules, err := s.Store.ListDistributionRules(ctx)
	if err != nil {
		return "", err
	}
	for _, rule := range rules {
		if rule.ExpenseType == expenseType {
			return rule.Method, nil
		}
	}
	return "", nil
}

// RecordReceiptInput is the write payload for one arrival event.
type RecordReceiptInput struct {
	ArrivedAt  time.Time `json:"arrived_at" validate:"required"`
	Warehouse  string    `json:"warehouse" validate:"required"`
	LineItemID *string   `json:"line_item_id"`
	Qty        int64     `json:"qty" validate:"gt=0"`
}

// RecordReceipt appends a receipt, optionally linked to a line item.
func (s *Service) RecordReceipt(ctx context.Context, orderID uuid.UUID, in RecordReceiptInput) (Receipt, error) {
	receipt := Receipt{
		ID:        uuid.New(),
		OrderID:   orderID,
		ArrivedAt: in.ArrivedAt,
		Warehouse: in.Warehouse,
		Qty:       in.Qty,
		CreatedAt: s.now(),
	}
	if in.LineItemID != nil && *in.LineItemID != "" {
		itemID, err := uuid.Parse(*in.LineItemID)
		if err != nil {
			return Receipt{}, fmt.Errorf("invalid line item id: %w", err)
		}
		receipt.LineItemID = &itemID
	}
	if err := s.Store.InsertReceipt(ctx, receipt); err != nil {
		return Receipt{}, err
	}
	if obs.TransactionsRecordedTotal != nil {
		obs.TransactionsRecordedTotal.WithLabelValues("receipt").Inc()
	}
	s.emit(ctx, events.TopicReceiptRecorded, orderID, map[string]any{"receipt_id": receipt.ID, "qty": receipt.Qty})
	return receipt, nil
}

// SetDistributionRule updates the live mapping for one expense type.
func (s *Service) SetDistributionRule(ctx context.Context, expenseType, methodName string) (DistributionRule, error) {
	method, err := allocation.ParseMethod(methodName)
	if err != nil {
		return DistributionRule{}, err
	}
	if err := s.Store.UpsertDistributionRule(ctx, expenseType, method); err != nil {
		return DistributionRule{}, err
	}
	// Config changes only affect future snapshots, but cached reports for
	// legacy expenses without a snapshot must be recomputed.
	s.emit(ctx, events.TopicConfigChanged, uuid.NewSHA1(uuid.NameSpaceOID, []byte(expenseType)), map[string]any{"expense_type": expenseType, "method": method})
	return DistributionRule{ExpenseType: expenseType, Method: method, UpdatedAt: s.now()}, nil
}

// emit publishes a domain event; delivery problems never fail the write that
// already committed.
func (s *Service) emit(ctx context.Context, topic string, aggregateID uuid.UUID, payload any) {
	if s.Bus == nil {
		return
	}
	_, _ = s.Bus.Emit(ctx, topic, aggregateID, payload)
}

// parseMeasure reads an optional decimal string; empty means zero, negatives
// are rejected.
func parseMeasure(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("measure %q must not be negative", s)
	}
	return d, nil
}
