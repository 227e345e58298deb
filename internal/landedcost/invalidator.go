package landedcost

import (
	"context"

	"github.com/noah-isme/backend-importa/internal/events"
)

// Invalidator evicts cached reports when the underlying order changes. Config
// changes can affect any legacy expense without a snapshotted method, so they
// clear the whole report keyspace.
type Invalidator struct {
	Svc *Service
}

// Notify implements events.Notifier.
func (i *Invalidator) Notify(ctx context.Context, event events.Event) error {
	if i == nil || i.Svc == nil {
		return nil
	}
	switch event.Topic {
	case events.TopicOrderCreated, events.TopicOrderAmended,
		events.TopicPaymentRecorded, events.TopicExpenseRecorded,
		events.TopicReceiptRecorded:
		i.Svc.Invalidate(ctx, event.AggregateID)
	case events.TopicConfigChanged:
		i.Svc.InvalidateAll(ctx)
	}
	return nil
}
