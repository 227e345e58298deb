package portfolio

import (
	"context"
	"strings"

	"github.com/noah-isme/backend-importa/internal/events"
)

// Invalidator evicts the cached overview whenever any purchase-order event
// lands; every KPI can shift when an order changes.
type Invalidator struct {
	Svc *Service
}

// Notify implements events.Notifier.
func (i *Invalidator) Notify(ctx context.Context, event events.Event) error {
	if i == nil || i.Svc == nil {
		return nil
	}
	if strings.HasPrefix(event.Topic, "po.") {
		i.Svc.Invalidate(ctx)
	}
	return nil
}
