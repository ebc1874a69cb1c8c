package transaction

import "sync"

// productLocks hands out one mutex per product name so purchases and
// cancellations for the same product are serialized while different products
// proceed in parallel. Entries are never evicted; the catalog is small and
// bounded by the startup feed.
type productLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newProductLocks() *productLocks {
	return &productLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

func (p *productLocks) lock(name string) *sync.Mutex {
	p.mu.Lock()
	l, ok := p.locks[name]
	if !ok {
		l = &sync.Mutex{}
		p.locks[name] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l
}
