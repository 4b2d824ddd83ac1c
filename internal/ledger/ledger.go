// Package ledger defines the append-only transaction store. Records arrive
// already normalized; no schema enforcement happens here.
package ledger

import (
	"context"

	"github.com/dvloznov/vibeledger/internal/domain"
)

// Store is the query surface over the transaction log. Implementations keep
// insertion order and never mutate or delete appended records.
type Store interface {
	// Append adds one record to the end of the ledger. Appends are
	// serialized; two concurrent appends must not corrupt the backing
	// collection.
	Append(ctx context.Context, record domain.TransactionRecord) error

	// All returns every record in insertion order.
	All(ctx context.Context) ([]domain.TransactionRecord, error)

	// Recent returns the last n records in insertion order. n larger than
	// the ledger returns everything.
	Recent(ctx context.Context, n int) ([]domain.TransactionRecord, error)
}
