package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/darmiel/callsign/internal/core"
)

var _ core.CredentialStore = (*InMemoryCredentialStore)(nil)

// InMemoryCredentialStore keeps credential records in memory. Records are lost
// on restart, which is fine since they are only bookkeeping.
type InMemoryCredentialStore struct {
	mu      sync.RWMutex
	records []core.CredentialRecord
	now     func() time.Time
}

func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{
		records: make([]core.CredentialRecord, 0),
		now:     time.Now,
	}
}

// WithClock replaces the clock used to decide whether a record expired.
func (s *InMemoryCredentialStore) WithClock(now func() time.Time) *InMemoryCredentialStore {
	s.now = now
	return s
}

func (s *InMemoryCredentialStore) Save(_ context.Context, rec core.CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	return nil
}

// ListActive returns all unexpired records, newest first.
func (s *InMemoryCredentialStore) ListActive(_ context.Context) ([]core.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]core.CredentialRecord, 0)
	now := s.now()

	for _, r := range s.records {
		if r.ExpiresAt.After(now) {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].IssuedAt.After(active[j].IssuedAt)
	})

	return active, nil
}

func (s *InMemoryCredentialStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	active := make([]core.CredentialRecord, 0, len(s.records))
	var deletedCount int64

	for _, r := range s.records {
		if r.ExpiresAt.After(now) {
			active = append(active, r)
		} else {
			deletedCount++
		}
	}

	s.records = active
	return deletedCount, nil
}
