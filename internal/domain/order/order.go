package order

import (
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("order: not found")
	ErrAlreadyCancelled = errors.New("order: already cancelled")
	ErrInvalidQuantity  = errors.New("order: quantity must be greater than zero")
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCancelled Status = "CANCELLED"
)

// Order is a single purchase record. Orders are never deleted; cancellation
// only transitions Status so the record stays searchable.
type Order struct {
	ID        int
	Username  string
	Product   string
	Quantity  int
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id int, username, product string, quantity int) (*Order, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now().UTC()
	return &Order{
		ID:        id,
		Username:  username,
		Product:   product,
		Quantity:  quantity,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Cancel transitions ACTIVE to CANCELLED. Cancelling twice is rejected so a
// client can detect duplicate requests.
func (o *Order) Cancel() error {
	if o.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	o.Status = StatusCancelled
	o.touch()
	return nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
