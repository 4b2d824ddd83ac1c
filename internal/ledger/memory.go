package ledger

import (
	"context"
	"sync"

	"github.com/dvloznov/vibeledger/internal/domain"
)

// MemoryStore is the session-scoped in-process ledger. It is safe for
// concurrent use; data is lost on process exit.
type MemoryStore struct {
	mu      sync.RWMutex
	records []domain.TransactionRecord
}

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append implements Store.
func (s *MemoryStore) Append(ctx context.Context, record domain.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// All implements Store. It returns a copy so callers cannot mutate the
// backing slice.
func (s *MemoryStore) All(ctx context.Context) ([]domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TransactionRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Recent implements Store.
func (s *MemoryStore) Recent(ctx context.Context, n int) ([]domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > len(s.records) {
		n = len(s.records)
	}
	if n <= 0 {
		return []domain.TransactionRecord{}, nil
	}
	out := make([]domain.TransactionRecord, n)
	copy(out, s.records[len(s.records)-n:])
	return out, nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
