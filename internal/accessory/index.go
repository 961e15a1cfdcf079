package accessory

import "sync"

// Index is the in-memory set of managed accessories keyed by UUID.
//
// The reconcile loop treats the index as the single source of truth for
// "is this device already managed": Add is a test-and-set, so two
// passes racing on the same device resolve to exactly one winner.
type Index struct {
	mu      sync.RWMutex
	entries map[string]Accessory
}

// NewIndex returns an empty accessory index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]Accessory)}
}

// Add records an accessory unless one with the same UUID is already
// present. Returns false when the accessory was already indexed.
func (i *Index) Add(acc Accessory) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, exists := i.entries[acc.UUID]; exists {
		return false
	}
	i.entries[acc.UUID] = acc
	return true
}

// Has reports whether an accessory with the UUID is indexed.
func (i *Index) Has(uuid string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.entries[uuid]
	return ok
}

// Get returns the indexed accessory for a UUID.
func (i *Index) Get(uuid string) (Accessory, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	acc, ok := i.entries[uuid]
	return acc, ok
}

// Len returns the number of indexed accessories.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// All returns a snapshot of every indexed accessory.
func (i *Index) All() []Accessory {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]Accessory, 0, len(i.entries))
	for _, acc := range i.entries {
		out = append(out, acc)
	}
	return out
}
