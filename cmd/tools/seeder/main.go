package main

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-importa/internal/config"
	"github.com/noah-isme/backend-importa/internal/db"
	"github.com/noah-isme/backend-importa/internal/events"
	"github.com/noah-isme/backend-importa/internal/purchase"
	"github.com/noah-isme/backend-importa/internal/repo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	store := repo.New(pool)
	svc := &purchase.Service{
		Store: store,
		Bus:   &events.Bus{Store: store},
		Home:  cfg.HomeCurrency,
	}

	seedDistributionRules(ctx, svc)
	seedOrders(ctx, svc)

	log.Println("Seeding completed successfully!")
}

func seedDistributionRules(ctx context.Context, svc *purchase.Service) {
	rules := map[string]string{
		"freight":   "by_weight",
		"customs":   "by_fob_value",
		"insurance": "by_fob_value",
		"handling":  "by_boxes",
		"storage":   "by_volume",
	}
	log.Println("Seeding distribution rules...")
	for expenseType, method := range rules {
		if _, err := svc.SetDistributionRule(ctx, expenseType, method); err != nil {
			log.Printf("seed rule %s: %v", expenseType, err)
		}
	}
}

func seedOrders(ctx context.Context, svc *purchase.Service) {
	log.Println("Seeding purchase orders...")

	order, err := svc.CreateOrder(ctx, purchase.CreateOrderInput{
		Code:      "PO-2024-001",
		Supplier:  "Shenzhen Trading Co",
		Category:  "electronics",
		OrderDate: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
		Items: []purchase.CreateItemInput{
			{SKU: "WID-A", Name: "Widget A", Qty: 100, Boxes: 4, UnitWeight: "0.50", UnitVolume: "0.002", UnitPrice: "2.00"},
			{SKU: "WID-B", Name: "Widget B", Qty: 300, Boxes: 6, UnitWeight: "0.20", UnitVolume: "0.001", UnitPrice: "1.00"},
		},
	})
	if err != nil {
		log.Printf("seed order PO-2024-001: %v", err)
		return
	}

	if _, err := svc.RecordPayment(ctx, order.ID, purchase.RecordPaymentInput{
		PaidAt:   time.Date(2024, 2, 25, 0, 0, 0, 0, time.UTC),
		Category: "deposit",
		Method:   "wire",
		Currency: "USD",
		Amount:   "500.00",
		Fee:      "10.00",
		Rate:     "58",
	}); err != nil {
		log.Printf("seed payment: %v", err)
	}

	if _, err := svc.RecordExpense(ctx, order.ID, purchase.RecordExpenseInput{
		IncurredAt: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Type:       "freight",
		Provider:   "Maersk",
		Amount:     "5000.00",
	}); err != nil {
		log.Printf("seed expense: %v", err)
	}

	for _, item := range order.Items {
		itemID := item.ID.String()
		if _, err := svc.RecordReceipt(ctx, order.ID, purchase.RecordReceiptInput{
			ArrivedAt:  time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
			Warehouse:  "SDQ-01",
			LineItemID: &itemID,
			Qty:        item.Qty,
		}); err != nil {
			log.Printf("seed receipt for %s: %v", item.SKU, err)
		}
	}

	second, err := svc.CreateOrder(ctx, purchase.CreateOrderInput{
		Code:      "PO-2024-002",
		Supplier:  "Guangzhou Exports",
		Category:  "tools",
		OrderDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Items: []purchase.CreateItemInput{
			{SKU: "TLK-1", Name: "Tool Kit", Qty: 50, Boxes: 10, UnitWeight: "3.00", UnitVolume: "0.010", UnitPrice: "12.50"},
		},
	})
	if err != nil {
		log.Printf("seed order PO-2024-002: %v", err)
		return
	}
	if _, err := svc.RecordPayment(ctx, second.ID, purchase.RecordPaymentInput{
		PaidAt:   time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		Category: "balance",
		Method:   "wire",
		Currency: "USD",
		Amount:   "625.00",
		Fee:      "8.00",
		Rate:     "58.25",
	}); err != nil {
		log.Printf("seed payment: %v", err)
	}
}
