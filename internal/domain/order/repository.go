package order

import "context"

// Ledger is the authoritative record of all orders, indexed by id and by
// username. Ids are strictly increasing and never reused.
type Ledger interface {
	// Record creates an ACTIVE order under a freshly allocated id and
	// inserts it into both indices.
	Record(ctx context.Context, username, product string, quantity int) (*Order, error)

	// Get returns the order with the given id or ErrNotFound.
	Get(ctx context.Context, id int) (*Order, error)

	// Cancel transitions the order to CANCELLED and returns the updated
	// record. ErrNotFound for unknown ids, ErrAlreadyCancelled when the
	// transition already happened.
	Cancel(ctx context.Context, id int) (*Order, error)

	// ForUser returns every order placed by username, ACTIVE and
	// CANCELLED alike, in creation order. Unknown users yield an empty
	// slice.
	ForUser(ctx context.Context, username string) []*Order
}
