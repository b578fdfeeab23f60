package crawler

import "sync"

// DedupStore is the set of review texts accepted so far. The zero value is
// not usable; use NewDedupStore.
type DedupStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDedupStore builds a store seeded with previously accepted texts.
func NewDedupStore(seed map[string]struct{}) *DedupStore {
	seen := make(map[string]struct{}, len(seed))
	for text := range seed {
		seen[text] = struct{}{}
	}
	return &DedupStore{seen: seen}
}

// Claim records text and returns true if it had not been seen before.
// Check and insert happen under one lock, so concurrent callers with the
// same text get exactly one true.
func (d *DedupStore) Claim(text string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[text]; ok {
		return false
	}
	d.seen[text] = struct{}{}
	return true
}

// Contains reports whether text was already accepted.
func (d *DedupStore) Contains(text string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[text]
	return ok
}

// Len returns the number of distinct texts.
func (d *DedupStore) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
