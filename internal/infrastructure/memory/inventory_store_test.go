package memory

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domain "github.com/tidemill/storefront/internal/domain/inventory"
)

func TestInventoryStore_Load(t *testing.T) {
	ctx := context.Background()

	store := NewInventoryStore()
	err := store.Load(ctx, strings.NewReader("widget 10\ngadget 5\n"))
	require.NoError(t, err)

	assert.Equal(t, 10, store.AvailableQuantity(ctx, "widget"))
	assert.Equal(t, 5, store.AvailableQuantity(ctx, "gadget"))
}

func TestInventoryStore_LoadMergesOverExisting(t *testing.T) {
	ctx := context.Background()

	store := NewInventoryStore()
	require.NoError(t, store.Load(ctx, strings.NewReader("widget 10 gadget 5")))
	require.NoError(t, store.Load(ctx, strings.NewReader("widget 3 gizmo 7")))

	assert.Equal(t, 3, store.AvailableQuantity(ctx, "widget"))
	assert.Equal(t, 5, store.AvailableQuantity(ctx, "gadget"))
	assert.Equal(t, 7, store.AvailableQuantity(ctx, "gizmo"))
}

func TestInventoryStore_LoadMalformed(t *testing.T) {
	tests := []struct {
		name string
		feed string
	}{
		{name: "odd token count", feed: "widget 10 gadget"},
		{name: "non-integer quantity", feed: "widget ten"},
		{name: "negative quantity", feed: "widget -3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			store := NewInventoryStore()
			require.NoError(t, store.Load(ctx, strings.NewReader("existing 1")))

			err := store.Load(ctx, strings.NewReader(tt.feed))
			require.ErrorIs(t, err, domain.ErrMalformedFeed)

			// The failed load must not leave partial state behind.
			assert.Equal(t, 1, store.AvailableQuantity(ctx, "existing"))
			assert.Equal(t, 0, store.AvailableQuantity(ctx, "widget"))
		})
	}
}

func TestInventoryStore_AvailableQuantityUnknown(t *testing.T) {
	store := NewInventoryStore()
	assert.Equal(t, 0, store.AvailableQuantity(context.Background(), "unobtainium"))
}

func TestInventoryStore_TryReserve(t *testing.T) {
	ctx := context.Background()

	store := NewInventoryStore()
	require.NoError(t, store.Load(ctx, strings.NewReader("widget 5")))

	require.NoError(t, store.TryReserve(ctx, "widget", 3))
	assert.Equal(t, 2, store.AvailableQuantity(ctx, "widget"))

	err := store.TryReserve(ctx, "widget", 3)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 2, store.AvailableQuantity(ctx, "widget"), "failed reserve must not mutate")
}

func TestInventoryStore_TryReserveUnknownProduct(t *testing.T) {
	store := NewInventoryStore()
	err := store.TryReserve(context.Background(), "unobtainium", 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestInventoryStore_TryReserveInvalidQuantity(t *testing.T) {
	ctx := context.Background()

	store := NewInventoryStore()
	require.NoError(t, store.Load(ctx, strings.NewReader("widget 5")))

	assert.ErrorIs(t, store.TryReserve(ctx, "widget", 0), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, store.TryReserve(ctx, "widget", -1), domain.ErrInvalidQuantity)
}

func TestInventoryStore_Release(t *testing.T) {
	ctx := context.Background()

	store := NewInventoryStore()
	require.NoError(t, store.Load(ctx, strings.NewReader("widget 5")))
	require.NoError(t, store.TryReserve(ctx, "widget", 5))

	require.NoError(t, store.Release(ctx, "widget", 5))
	assert.Equal(t, 5, store.AvailableQuantity(ctx, "widget"))
}

func TestInventoryStore_ReleaseWithoutReservation(t *testing.T) {
	store := NewInventoryStore()
	err := store.Release(context.Background(), "ghost", 1)
	assert.ErrorIs(t, err, domain.ErrUnknownProduct)
}

func TestInventoryStore_RenderListing(t *testing.T) {
	ctx := context.Background()

	store := NewInventoryStore()
	require.NoError(t, store.Load(ctx, strings.NewReader("zebra 1 apple 4 mango 0")))

	assert.Equal(t, "apple 4\nmango 0\nzebra 1\n", store.RenderListing(ctx))
}

func TestInventoryStore_RenderListingEmpty(t *testing.T) {
	store := NewInventoryStore()
	assert.Equal(t, "", store.RenderListing(context.Background()))
}

func TestInventoryStore_ConcurrentReserveNoOversell(t *testing.T) {
	ctx := context.Background()

	store := NewInventoryStore()
	require.NoError(t, store.Load(ctx, strings.NewReader("widget 100")))

	const workers = 50
	var wg sync.WaitGroup
	successes := make(chan struct{}, workers)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.TryReserve(ctx, "widget", 3) == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	won := 0
	for range successes {
		won++
	}
	assert.Equal(t, 33, won, "exactly floor(100/3) reservations can win")
	assert.Equal(t, 1, store.AvailableQuantity(ctx, "widget"))
}
