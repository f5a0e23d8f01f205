// Package dedupe tracks already-processed webhook event ids so provider
// redeliveries stay idempotent.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen event ids to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an id, allowing a redelivery to be processed again.
	// Used when an event was recorded but its processing failed.
	Unrecord(ctx context.Context, id string)

	// Size returns the number of ids currently tracked.
	Size() int
}

// inMemoryDeduper implements Deduper with a bounded map plus a FIFO ring
// of insertion order; when full, the oldest id is evicted.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	head    int
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50_000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, d.maxSize)
	d.order = make([]string, 0, d.maxSize)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if len(d.seen) >= d.maxSize {
		// Evict the oldest surviving id. Unrecorded ids leave holes in the
		// ring, so skip entries no longer present in the map.
		for len(d.order) > 0 {
			oldest := d.order[d.head]
			d.head++
			if d.head == len(d.order) {
				d.order = d.order[:0]
				d.head = 0
			}
			if _, ok := d.seen[oldest]; ok {
				delete(d.seen, oldest)
				break
			}
		}
	}

	d.seen[id] = struct{}{}
	d.order = append(d.order, id)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
