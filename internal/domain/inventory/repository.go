package inventory

import (
	"context"
	"io"
)

// Store holds authoritative product quantities.
type Store interface {
	// Load consumes a feed of whitespace-delimited (name, quantity) pairs.
	// A malformed feed aborts the whole load with ErrMalformedFeed; no
	// partial state becomes visible to concurrent readers.
	Load(ctx context.Context, feed io.Reader) error

	// AvailableQuantity reports the stock for name. Unknown products
	// report 0, not an error.
	AvailableQuantity(ctx context.Context, name string) int

	// TryReserve atomically decrements the stock of name by quantity.
	// It returns ErrInsufficientStock without mutating anything when the
	// current stock is below quantity (unknown products count as 0).
	TryReserve(ctx context.Context, name string, quantity int) error

	// Release returns quantity units to name. A release always follows a
	// prior successful reservation, so an unknown name is a programming
	// fault reported as ErrUnknownProduct.
	Release(ctx context.Context, name string, quantity int) error

	// RenderListing returns a point-in-time snapshot of the catalog as
	// "name quantity" lines sorted by product name.
	RenderListing(ctx context.Context) string
}
