package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/vibeledger/internal/domain"
)

func testRecord(desc string) domain.TransactionRecord {
	return domain.TransactionRecord{
		Date:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Amount:      10,
		Description: desc,
		Category:    domain.CategoryFood,
		Type:        domain.TypeShared,
	}
}

func TestMemoryStoreAppendThenRead(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	before, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}

	r := testRecord("sushi")
	if err := store.Append(ctx, r); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	after, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}

	if len(after) != len(before)+1 {
		t.Errorf("ledger length = %d, want %d", len(after), len(before)+1)
	}
	if after[len(after)-1].Description != "sushi" {
		t.Errorf("last record = %q, want the appended one", after[len(after)-1].Description)
	}
}

func TestMemoryStoreInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i := 0; i < 5; i++ {
		if err := store.Append(ctx, testRecord(fmt.Sprintf("r%d", i))); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	for i, r := range all {
		if r.Description != fmt.Sprintf("r%d", i) {
			t.Errorf("record %d = %q, out of insertion order", i, r.Description)
		}
	}
}

func TestMemoryStoreRecent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i := 0; i < 5; i++ {
		if err := store.Append(ctx, testRecord(fmt.Sprintf("r%d", i))); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	tests := []struct {
		name      string
		n         int
		wantLen   int
		wantFirst string
	}{
		{name: "last two", n: 2, wantLen: 2, wantFirst: "r3"},
		{name: "more than stored", n: 10, wantLen: 5, wantFirst: "r0"},
		{name: "zero", n: 0, wantLen: 0},
		{name: "negative", n: -1, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Recent(ctx, tt.n)
			if err != nil {
				t.Fatalf("Recent failed: %v", err)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("Recent(%d) len = %d, want %d", tt.n, len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].Description != tt.wantFirst {
				t.Errorf("Recent(%d)[0] = %q, want %q", tt.n, got[0].Description, tt.wantFirst)
			}
		})
	}
}

func TestMemoryStoreReadIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Append(ctx, testRecord("original")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	snapshot, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	snapshot[0].Description = "tampered"

	fresh, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if fresh[0].Description != "original" {
		t.Error("mutating a snapshot must not affect the store")
	}
}

func TestMemoryStoreConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	const writers = 20
	const perWriter = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_ = store.Append(ctx, testRecord(fmt.Sprintf("w%d-%d", w, i)))
			}
		}(w)
	}
	wg.Wait()

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != writers*perWriter {
		t.Errorf("ledger length = %d, want %d (lost appends)", len(all), writers*perWriter)
	}
}
