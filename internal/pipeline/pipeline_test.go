package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/vibeledger/internal/domain"
	"github.com/dvloznov/vibeledger/internal/extract"
	"github.com/dvloznov/vibeledger/internal/ledger"
	"github.com/dvloznov/vibeledger/internal/pipeline"
)

// MockExtractor is a mock implementation of pipeline.Extractor.
type MockExtractor struct {
	ExtractFunc func(ctx context.Context, in extract.Input, pctx extract.Context) (extract.RawFields, error)
}

func (m *MockExtractor) Extract(ctx context.Context, in extract.Input, pctx extract.Context) (extract.RawFields, error) {
	return m.ExtractFunc(ctx, in, pctx)
}

// MockArchiver is a mock implementation of pipeline.ReceiptArchiver.
type MockArchiver struct {
	ArchiveFunc func(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

func (m *MockArchiver) Archive(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	return m.ArchiveFunc(ctx, objectName, data, contentType)
}

func strPtr(s string) *string   { return &s }
func numPtr(f float64) *float64 { return &f }

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func validExtractor() *MockExtractor {
	return &MockExtractor{
		ExtractFunc: func(ctx context.Context, in extract.Input, pctx extract.Context) (extract.RawFields, error) {
			return extract.RawFields{
				Date:        strPtr("2024-06-01"),
				Amount:      numPtr(45),
				Description: strPtr("Sushi dinner"),
				Category:    strPtr("Food"),
				Type:        strPtr("Shared"),
			}, nil
		},
	}
}

func TestLogEntrySuccess(t *testing.T) {
	store := ledger.NewMemoryStore()
	deps := pipeline.Deps{
		Extractor: validExtractor(),
		Ledger:    store,
		Now:       fixedNow,
	}

	rec, err := pipeline.LogEntry(context.Background(), deps, pipeline.Input{Text: "$45 on sushi"})
	if err != nil {
		t.Fatalf("LogEntry failed: %v", err)
	}

	if rec.ID == "" {
		t.Error("appended record should have an ID")
	}
	if rec.Category != domain.CategoryFood {
		t.Errorf("Category = %q, want Food", rec.Category)
	}

	all, err := store.All(context.Background())
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("ledger length = %d, want 1", len(all))
	}
	if all[0].ID != rec.ID {
		t.Error("ledger should end with the returned record")
	}
}

func TestLogEntryEmptyInput(t *testing.T) {
	called := false
	deps := pipeline.Deps{
		Extractor: &MockExtractor{
			ExtractFunc: func(ctx context.Context, in extract.Input, pctx extract.Context) (extract.RawFields, error) {
				called = true
				return extract.RawFields{}, nil
			},
		},
		Ledger: ledger.NewMemoryStore(),
	}

	_, err := pipeline.LogEntry(context.Background(), deps, pipeline.Input{})
	if err == nil {
		t.Fatal("expected error for empty input")
	}
	if called {
		t.Error("extractor must not be invoked for empty input")
	}
}

func TestLogEntryExtractionFailureLeavesLedgerUntouched(t *testing.T) {
	store := ledger.NewMemoryStore()
	wantErr := &extract.ExtractionError{Kind: extract.KindTransport, Err: errors.New("timeout")}

	deps := pipeline.Deps{
		Extractor: &MockExtractor{
			ExtractFunc: func(ctx context.Context, in extract.Input, pctx extract.Context) (extract.RawFields, error) {
				return extract.RawFields{}, wantErr
			},
		},
		Ledger: store,
	}

	_, err := pipeline.LogEntry(context.Background(), deps, pipeline.Input{Text: "sushi"})
	if err == nil {
		t.Fatal("expected extraction error")
	}
	var eerr *extract.ExtractionError
	if !errors.As(err, &eerr) {
		t.Errorf("error type = %T, want *extract.ExtractionError", err)
	}

	all, _ := store.All(context.Background())
	if len(all) != 0 {
		t.Errorf("ledger length = %d, want 0 after failed extraction", len(all))
	}
}

func TestLogEntryNormalizationFailureLeavesLedgerUntouched(t *testing.T) {
	store := ledger.NewMemoryStore()
	deps := pipeline.Deps{
		Extractor: &MockExtractor{
			ExtractFunc: func(ctx context.Context, in extract.Input, pctx extract.Context) (extract.RawFields, error) {
				// Amount missing: hard normalization failure.
				return extract.RawFields{
					Description: strPtr("mystery"),
					Category:    strPtr("Food"),
					Type:        strPtr("Shared"),
				}, nil
			},
		},
		Ledger: store,
	}

	_, err := pipeline.LogEntry(context.Background(), deps, pipeline.Input{Text: "something"})
	if err == nil {
		t.Fatal("expected normalization error")
	}

	all, _ := store.All(context.Background())
	if len(all) != 0 {
		t.Errorf("ledger length = %d, want 0 after failed normalization", len(all))
	}
}

func TestLogEntryTripMode(t *testing.T) {
	deps := pipeline.Deps{
		Extractor: &MockExtractor{
			ExtractFunc: func(ctx context.Context, in extract.Input, pctx extract.Context) (extract.RawFields, error) {
				if !pctx.TripMode {
					t.Error("trip mode should propagate to the extraction context")
				}
				return extract.RawFields{
					Amount:      numPtr(12),
					Description: strPtr("Tacos"),
					Category:    strPtr("Food"),
					Type:        strPtr("Shared"),
				}, nil
			},
		},
		Ledger: ledger.NewMemoryStore(),
		Now:    fixedNow,
	}

	rec, err := pipeline.LogEntry(context.Background(), deps, pipeline.Input{Text: "tacos", TripMode: true})
	if err != nil {
		t.Fatalf("LogEntry failed: %v", err)
	}
	if !strings.HasPrefix(rec.Description, extract.TripMarker) {
		t.Errorf("Description = %q, want trip marker prefix", rec.Description)
	}
}

func TestLogEntryReceiptArchival(t *testing.T) {
	t.Run("image archived", func(t *testing.T) {
		var gotObject string
		deps := pipeline.Deps{
			Extractor: validExtractor(),
			Ledger:    ledger.NewMemoryStore(),
			Archiver: &MockArchiver{
				ArchiveFunc: func(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
					gotObject = objectName
					return "gs://bucket/" + objectName, nil
				},
			},
		}

		rec, err := pipeline.LogEntry(context.Background(), deps, pipeline.Input{
			Image:     []byte("fake image"),
			ImageMIME: "image/jpeg",
		})
		if err != nil {
			t.Fatalf("LogEntry failed: %v", err)
		}
		if !strings.Contains(gotObject, rec.ID) {
			t.Errorf("object name %q should contain record ID %q", gotObject, rec.ID)
		}
	})

	t.Run("archival failure does not block the ledger", func(t *testing.T) {
		store := ledger.NewMemoryStore()
		deps := pipeline.Deps{
			Extractor: validExtractor(),
			Ledger:    store,
			Archiver: &MockArchiver{
				ArchiveFunc: func(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
					return "", errors.New("bucket unavailable")
				},
			},
		}

		_, err := pipeline.LogEntry(context.Background(), deps, pipeline.Input{
			Image:     []byte("fake image"),
			ImageMIME: "image/jpeg",
		})
		if err != nil {
			t.Fatalf("LogEntry failed: %v", err)
		}

		all, _ := store.All(context.Background())
		if len(all) != 1 {
			t.Errorf("ledger length = %d, want 1 despite archive failure", len(all))
		}
	})

	t.Run("no archiver configured", func(t *testing.T) {
		deps := pipeline.Deps{
			Extractor: validExtractor(),
			Ledger:    ledger.NewMemoryStore(),
		}

		_, err := pipeline.LogEntry(context.Background(), deps, pipeline.Input{
			Image:     []byte("fake image"),
			ImageMIME: "image/jpeg",
		})
		if err != nil {
			t.Fatalf("LogEntry should tolerate a nil archiver: %v", err)
		}
	})
}

func TestLogEntryFelineDefense(t *testing.T) {
	// The model says Shopping; the local rule must still force Pet Care.
	deps := pipeline.Deps{
		Extractor: &MockExtractor{
			ExtractFunc: func(ctx context.Context, in extract.Input, pctx extract.Context) (extract.RawFields, error) {
				return extract.RawFields{
					Amount:      numPtr(12),
					Description: strPtr("pet supplies"),
					Category:    strPtr("Shopping"),
					Type:        strPtr("Personal"),
				}, nil
			},
		},
		Ledger: ledger.NewMemoryStore(),
	}

	rec, err := pipeline.LogEntry(context.Background(), deps, pipeline.Input{Text: "litter for the kitten"})
	if err != nil {
		t.Fatalf("LogEntry failed: %v", err)
	}
	if rec.Category != domain.CategoryPetCare {
		t.Errorf("Category = %q, want Pet Care", rec.Category)
	}
}
