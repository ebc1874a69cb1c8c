package memory

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	domain "github.com/tidemill/storefront/internal/domain/inventory"
)

// InventoryStore is an in-memory product→quantity map. All methods are safe
// for concurrent use; TryReserve and Release are atomic per call so direct
// readers never observe a partially applied mutation.
type InventoryStore struct {
	mu    sync.RWMutex
	items map[string]int
}

func NewInventoryStore() *InventoryStore {
	return &InventoryStore{
		items: make(map[string]int),
	}
}

// Load parses the feed into a staging map first, so a malformed entry aborts
// the whole load and concurrent readers keep seeing the previous state.
func (s *InventoryStore) Load(ctx context.Context, feed io.Reader) error {
	_ = ctx

	staged := make(map[string]int)
	scanner := bufio.NewScanner(feed)
	scanner.Split(bufio.ScanWords)

	for scanner.Scan() {
		name := scanner.Text()
		if !scanner.Scan() {
			return fmt.Errorf("%w: product %q has no quantity", domain.ErrMalformedFeed, name)
		}
		quantity, err := strconv.Atoi(scanner.Text())
		if err != nil {
			return fmt.Errorf("%w: product %q quantity %q is not an integer", domain.ErrMalformedFeed, name, scanner.Text())
		}
		item, err := domain.NewItem(name, quantity)
		if err != nil {
			return fmt.Errorf("%w: product %q: %v", domain.ErrMalformedFeed, name, err)
		}
		staged[item.Name] = item.Quantity
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedFeed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name, quantity := range staged {
		s.items[name] = quantity
	}
	return nil
}

func (s *InventoryStore) AvailableQuantity(ctx context.Context, name string) int {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[name]
}

func (s *InventoryStore) TryReserve(ctx context.Context, name string, quantity int) error {
	_ = ctx
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// An unknown product reads as quantity 0 and fails the same check.
	if s.items[name] < quantity {
		return domain.ErrInsufficientStock
	}
	s.items[name] -= quantity
	return nil
}

func (s *InventoryStore) Release(ctx context.Context, name string, quantity int) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	// Release always follows a successful reservation of the same name, so
	// a missing entry is a caller defect, not a user-facing condition.
	if _, ok := s.items[name]; !ok {
		return fmt.Errorf("%w: release of %q without prior reservation", domain.ErrUnknownProduct, name)
	}
	s.items[name] += quantity
	return nil
}

func (s *InventoryStore) RenderListing(ctx context.Context) string {
	_ = ctx

	s.mu.RLock()
	names := make([]string, 0, len(s.items))
	quantities := make(map[string]int, len(s.items))
	for name, quantity := range s.items {
		names = append(names, name)
		quantities[name] = quantity
	}
	s.mu.RUnlock()

	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "%s %d\n", name, quantities[name])
	}
	return sb.String()
}
