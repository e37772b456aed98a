package audit

import (
	"sync"

	"github.com/darmiel/callsign/internal/core"
)

// DefaultMemoryCapacity bounds the number of entries kept by an InMemoryAuditor.
const DefaultMemoryCapacity = 10_000

var _ core.Auditor = (*InMemoryAuditor)(nil)

// InMemoryAuditor is an auditor that keeps the most recent audit entries in
// memory. Older entries are dropped once the capacity is reached.
type InMemoryAuditor struct {
	mu       sync.Mutex
	entries  []core.AuditEntry
	capacity int
}

func NewInMemoryAuditor() *InMemoryAuditor {
	return NewInMemoryAuditorWithCapacity(DefaultMemoryCapacity)
}

func NewInMemoryAuditorWithCapacity(capacity int) *InMemoryAuditor {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &InMemoryAuditor{
		entries:  make([]core.AuditEntry, 0),
		capacity: capacity,
	}
}

func (i *InMemoryAuditor) Log(entry core.AuditEntry) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.entries = append(i.entries, entry)
	if over := len(i.entries) - i.capacity; over > 0 {
		i.entries = append(i.entries[:0:0], i.entries[over:]...)
	}
	return nil
}

func (i *InMemoryAuditor) GetRecent(limit int) ([]core.AuditEntry, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	return lastN(i.entries, limit), nil
}

func (i *InMemoryAuditor) Find(filter func(entry core.AuditEntry) bool, limit int) ([]core.AuditEntry, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	matches := make([]core.AuditEntry, 0)
	for _, entry := range i.entries {
		if filter(entry) {
			matches = append(matches, entry)
		}
	}
	return lastN(matches, limit), nil
}

func (i *InMemoryAuditor) Close() error {
	return nil // nothing to close :)
}

// lastN returns a copy of the last limit entries. A non-positive limit
// returns all entries.
func lastN(entries []core.AuditEntry, limit int) []core.AuditEntry {
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}
	out := make([]core.AuditEntry, limit)
	copy(out, entries[len(entries)-limit:])
	return out
}
