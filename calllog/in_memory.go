package calllog

import (
	"context"
	"sync"

	"github.com/hupe1980/lamina/core"
)

// InMemoryStore is a process-local CallLogStore protected by a mutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []core.CallRecord
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append stores rec.
func (s *InMemoryStore) Append(_ context.Context, rec core.CallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Records returns a copy of all records in append order.
func (s *InMemoryStore) Records() []core.CallRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.CallRecord(nil), s.records...)
}

// Len returns the number of stored records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
