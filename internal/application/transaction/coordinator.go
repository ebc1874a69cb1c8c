package transaction

import (
	"context"
	"fmt"

	dominv "github.com/tidemill/storefront/internal/domain/inventory"
	domorder "github.com/tidemill/storefront/internal/domain/order"
	"github.com/tidemill/storefront/internal/domain/outbox"
	"github.com/tidemill/storefront/internal/pkg/logging"
	"go.uber.org/zap"
)

// Coordinator mediates every cross-store mutation. It owns no domain state;
// it enforces the joint invariant that every unit of a product is either in
// inventory or in exactly one ACTIVE order.
//
// Lock order is fixed for both operations: the per-product lock first, then
// whatever lock the store method takes internally. Holding the product lock
// across the combined check-and-mutate is what keeps concurrent purchases and
// cancellations for the same product from interleaving; different products
// never contend.
type Coordinator struct {
	inv       dominv.Store
	ledger    domorder.Ledger
	products  *productLocks
	publisher outbox.Publisher
}

func NewCoordinator(inv dominv.Store, ledger domorder.Ledger, publisher outbox.Publisher) *Coordinator {
	return &Coordinator{
		inv:       inv,
		ledger:    ledger,
		products:  newProductLocks(),
		publisher: publisher,
	}
}

// Purchase reserves quantity units of product and records an ACTIVE order for
// username as one atomic unit. On ErrInsufficientStock nothing has changed;
// on any failure after the reservation the stock is released before the error
// surfaces, so inventory is never left debited without a matching order.
func (c *Coordinator) Purchase(ctx context.Context, username, product string, quantity int) (*domorder.Order, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "coordinator"))

	if quantity <= 0 {
		return nil, dominv.ErrInvalidQuantity
	}

	lock := c.products.lock(product)
	defer lock.Unlock()

	if err := c.inv.TryReserve(ctx, product, quantity); err != nil {
		return nil, err
	}

	order, err := c.ledger.Record(ctx, username, product, quantity)
	if err != nil {
		// Recording cannot fail under correct id allocation, but if it
		// ever does the reservation must not survive it.
		if relErr := c.inv.Release(ctx, product, quantity); relErr != nil {
			logger.Error("reservation_rollback_failed",
				zap.String("product", product),
				zap.Int("quantity", quantity),
				zap.Error(relErr),
			)
		}
		return nil, fmt.Errorf("transaction: record order: %w", err)
	}

	c.publish(ctx, domorder.NewOrderPlacedEvent(order))
	logger.Info("purchase_committed",
		zap.Int("order_id", order.ID),
		zap.String("username", username),
		zap.String("product", product),
		zap.Int("quantity", quantity),
	)
	return order, nil
}

// Cancel transitions the order to CANCELLED and returns the reserved units to
// inventory. The product lock is resolved from the order before the status
// transition so the restore happens under the same serialization as Purchase.
func (c *Coordinator) Cancel(ctx context.Context, orderID int) (*domorder.Order, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "coordinator"))

	existing, err := c.ledger.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	lock := c.products.lock(existing.Product)
	defer lock.Unlock()

	// Cancel re-checks the status under the ledger lock, so a concurrent
	// cancel that won the race surfaces as ErrAlreadyCancelled here.
	order, err := c.ledger.Cancel(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := c.inv.Release(ctx, order.Product, order.Quantity); err != nil {
		// The order is cancelled but its units are unaccounted for; this
		// is a programming fault, not a recoverable business condition.
		logger.Error("restore_failed",
			zap.Int("order_id", order.ID),
			zap.String("product", order.Product),
			zap.Int("quantity", order.Quantity),
			zap.Error(err),
		)
		return nil, fmt.Errorf("transaction: restore stock: %w", err)
	}

	c.publish(ctx, domorder.NewOrderCancelledEvent(order))
	logger.Info("cancel_committed",
		zap.Int("order_id", order.ID),
		zap.String("product", order.Product),
		zap.Int("quantity", order.Quantity),
	)
	return order, nil
}

func (c *Coordinator) publish(ctx context.Context, e outbox.Event) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed",
			zap.String("event", e.EventName()),
			zap.Error(err),
		)
	}
}
