package tracking

import (
	"context"
	"sync"

	"github.com/jhornung97/ETPApprover/internal/domain"
	"github.com/jhornung97/ETPApprover/internal/ports"
)

// MemoryStore is a non-durable ledger for tests and dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	entries []domain.TrackingEntry
}

var _ ports.TrackingStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) IsProcessed(_ context.Context, recordID, author string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.Matches(recordID, author) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Record(_ context.Context, entry domain.TrackingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryStore) Entries(_ context.Context) ([]domain.TrackingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TrackingEntry(nil), s.entries...), nil
}

func (s *MemoryStore) Remove(_ context.Context, recordID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	removed := false
	for _, entry := range s.entries {
		if entry.RecordID == recordID {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	s.entries = kept
	return removed, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}
