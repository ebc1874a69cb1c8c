package inventory

import (
	"errors"
)

var (
	ErrInvalidQuantity   = errors.New("inventory: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	ErrUnknownProduct    = errors.New("inventory: unknown product")
	ErrMalformedFeed     = errors.New("inventory: malformed feed")
)

// Item is a catalog entry. A product absent from the store behaves as an
// Item with Quantity 0 and cannot be purchased.
type Item struct {
	Name     string
	Quantity int
}

func NewItem(name string, quantity int) (Item, error) {
	if name == "" {
		return Item{}, errors.New("inventory: product name is required")
	}
	if quantity < 0 {
		return Item{}, ErrInvalidQuantity
	}
	return Item{Name: name, Quantity: quantity}, nil
}
