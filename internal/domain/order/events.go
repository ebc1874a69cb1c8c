package order

import "time"

// OrderPlacedEvent is emitted after a purchase committed both the inventory
// reservation and the ledger record.
type OrderPlacedEvent struct {
	OrderID    int
	Username   string
	Product    string
	Quantity   int
	OccurredAt time.Time
}

func (OrderPlacedEvent) EventName() string { return "order.placed" }

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:    o.ID,
		Username:   o.Username,
		Product:    o.Product,
		Quantity:   o.Quantity,
		OccurredAt: time.Now().UTC(),
	}
}

// OrderCancelledEvent is emitted after a cancellation restored the reserved
// stock.
type OrderCancelledEvent struct {
	OrderID    int
	Username   string
	Product    string
	Quantity   int
	OccurredAt time.Time
}

func (OrderCancelledEvent) EventName() string { return "order.cancelled" }

func NewOrderCancelledEvent(o *Order) OrderCancelledEvent {
	return OrderCancelledEvent{
		OrderID:    o.ID,
		Username:   o.Username,
		Product:    o.Product,
		Quantity:   o.Quantity,
		OccurredAt: time.Now().UTC(),
	}
}
