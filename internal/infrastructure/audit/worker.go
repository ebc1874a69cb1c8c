package audit

import (
	"context"

	domorder "github.com/tidemill/storefront/internal/domain/order"
	"github.com/tidemill/storefront/internal/domain/outbox"
	"github.com/tidemill/storefront/internal/pkg/logging"
	"go.uber.org/zap"
)

// Worker writes one structured audit line per committed purchase or
// cancellation. It is the only subscriber of the order events; losing a line
// never affects the stores themselves.
type Worker struct {
	subscriber outbox.Subscriber
}

func New(subscriber outbox.Subscriber) *Worker {
	return &Worker{subscriber: subscriber}
}

func (w *Worker) Start() {
	w.subscriber.Subscribe(domorder.OrderPlacedEvent{}.EventName(), w.handleOrderPlaced)
	w.subscriber.Subscribe(domorder.OrderCancelledEvent{}.EventName(), w.handleOrderCancelled)
}

func (w *Worker) handleOrderPlaced(ctx context.Context, e outbox.Event) error {
	evt, ok := e.(domorder.OrderPlacedEvent)
	if !ok {
		return nil
	}

	logging.FromContext(ctx).Info("audit_order_placed",
		zap.String("component", "audit_worker"),
		zap.Int("order_id", evt.OrderID),
		zap.String("username", evt.Username),
		zap.String("product", evt.Product),
		zap.Int("quantity", evt.Quantity),
		zap.Time("occurred_at", evt.OccurredAt),
	)
	return nil
}

func (w *Worker) handleOrderCancelled(ctx context.Context, e outbox.Event) error {
	evt, ok := e.(domorder.OrderCancelledEvent)
	if !ok {
		return nil
	}

	logging.FromContext(ctx).Info("audit_order_cancelled",
		zap.String("component", "audit_worker"),
		zap.Int("order_id", evt.OrderID),
		zap.String("username", evt.Username),
		zap.String("product", evt.Product),
		zap.Int("quantity", evt.Quantity),
		zap.Time("occurred_at", evt.OccurredAt),
	)
	return nil
}
