// Package pipeline wires one "log entry" action end to end: extract fields
// from the user input, normalize them into a canonical record, and append
// the record to the ledger. Any failure along the way leaves the ledger
// untouched.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/vibeledger/internal/domain"
	"github.com/dvloznov/vibeledger/internal/extract"
	"github.com/dvloznov/vibeledger/internal/ledger"
	"github.com/dvloznov/vibeledger/internal/logger"
	"github.com/dvloznov/vibeledger/internal/normalize"
	"github.com/dvloznov/vibeledger/internal/receipts"
	"github.com/google/uuid"
)

// Extractor turns user input into candidate transaction fields. This
// interface enables mocking the model call in tests.
type Extractor interface {
	Extract(ctx context.Context, in extract.Input, pctx extract.Context) (extract.RawFields, error)
}

// ReceiptArchiver stores a receipt image and returns its URI.
type ReceiptArchiver interface {
	Archive(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// GCSArchiver archives receipts into a configured GCS bucket.
type GCSArchiver struct {
	Bucket string
}

// Archive implements ReceiptArchiver.
func (a *GCSArchiver) Archive(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	return receipts.Archive(ctx, a.Bucket, objectName, data, contentType)
}

// Deps are the collaborators LogEntry needs. Archiver is optional; a nil
// Archiver skips receipt archival. Now defaults to time.Now.
type Deps struct {
	Extractor Extractor
	Ledger    ledger.Store
	Archiver  ReceiptArchiver
	Now       func() time.Time
}

// Input is one user-triggered log action.
type Input struct {
	Text      string
	Image     []byte
	ImageMIME string
	TripMode  bool
	Owner     string
}

// LogEntry processes one entry and returns the appended record.
//
// Extraction and normalization failures surface to the caller with the
// ledger untouched; receipt archival is best-effort and only logged.
func LogEntry(ctx context.Context, deps Deps, in Input) (domain.TransactionRecord, error) {
	log := logger.FromContext(ctx)

	// 1. Refuse empty input before spending a model call on it.
	if in.Text == "" && len(in.Image) == 0 {
		return domain.TransactionRecord{}, fmt.Errorf("pipeline: nothing to log: provide text or a receipt image")
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	today := now()

	// 2. Extract candidate fields from the model.
	raw, err := deps.Extractor.Extract(ctx,
		extract.Input{Text: in.Text, Image: in.Image, ImageMIME: in.ImageMIME},
		extract.Context{Today: today, TripMode: in.TripMode},
	)
	if err != nil {
		return domain.TransactionRecord{}, err
	}

	// 3. Normalize into the canonical schema.
	record, err := normalize.Normalize(raw, normalize.Options{
		Today:      today,
		TripMode:   in.TripMode,
		SourceText: in.Text,
		Owner:      in.Owner,
	})
	if err != nil {
		return domain.TransactionRecord{}, err
	}
	record.ID = uuid.NewString()

	// 4. Archive the receipt image, when configured. Never blocks the ledger.
	if deps.Archiver != nil && len(in.Image) > 0 {
		objectName := receipts.ObjectName(record.ID, in.ImageMIME)
		uri, err := deps.Archiver.Archive(ctx, objectName, in.Image, in.ImageMIME)
		if err != nil {
			log.Warn().Err(err).Str("record_id", record.ID).Msg("receipt archival failed")
		} else {
			log.Debug().Str("uri", uri).Msg("receipt archived")
		}
	}

	// 5. Append to the ledger.
	if err := deps.Ledger.Append(ctx, record); err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("pipeline: append record: %w", err)
	}

	log.Info().
		Str("record_id", record.ID).
		Str("description", record.Description).
		Float64("amount", record.Amount).
		Str("category", string(record.Category)).
		Msg("logged transaction")

	return record, nil
}
