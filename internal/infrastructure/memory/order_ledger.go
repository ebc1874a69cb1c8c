package memory

import (
	"context"
	"sync"

	domain "github.com/tidemill/storefront/internal/domain/order"
)

// OrderLedger keeps every order ever recorded, indexed by id and by
// username. Records are append-only; cancellation mutates status in place and
// the two indices always reference the same set of orders.
type OrderLedger struct {
	mu     sync.RWMutex
	orders map[int]*domain.Order
	byUser map[string][]int
	nextID int
}

func NewOrderLedger() *OrderLedger {
	return &OrderLedger{
		orders: make(map[int]*domain.Order),
		byUser: make(map[string][]int),
		nextID: 1,
	}
}

func (l *OrderLedger) Record(ctx context.Context, username, product string, quantity int) (*domain.Order, error) {
	_ = ctx

	l.mu.Lock()
	defer l.mu.Unlock()

	order, err := domain.New(l.nextID, username, product, quantity)
	if err != nil {
		return nil, err
	}
	l.nextID++

	l.orders[order.ID] = order
	l.byUser[username] = append(l.byUser[username], order.ID)
	return order.Clone(), nil
}

func (l *OrderLedger) Get(ctx context.Context, id int) (*domain.Order, error) {
	_ = ctx

	l.mu.RLock()
	defer l.mu.RUnlock()

	order, ok := l.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return order.Clone(), nil
}

func (l *OrderLedger) Cancel(ctx context.Context, id int) (*domain.Order, error) {
	_ = ctx

	l.mu.Lock()
	defer l.mu.Unlock()

	order, ok := l.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := order.Cancel(); err != nil {
		return nil, err
	}
	return order.Clone(), nil
}

func (l *OrderLedger) ForUser(ctx context.Context, username string) []*domain.Order {
	_ = ctx

	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := l.byUser[username]
	orders := make([]*domain.Order, 0, len(ids))
	for _, id := range ids {
		orders = append(orders, l.orders[id].Clone())
	}
	return orders
}
