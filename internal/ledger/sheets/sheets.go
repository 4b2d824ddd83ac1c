// Package sheets backs the ledger with a Google Sheets tab, one row per
// record, columns A:H = Date, Description, Amount, Category, Type, Owner,
// Subscription, ID.
//
// Append is read-modify-write: it reads the current row count, then writes
// the next row. Two independent processes appending at the same time can
// write the same row and silently drop one record. This is a documented
// limitation of the spreadsheet variant; use the BigQuery backend when
// atomic appends matter.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/vibeledger/internal/domain"
	"github.com/dvloznov/vibeledger/internal/ledger"
	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Store is a Google Sheets backed ledger.
type Store struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ ledger.Store = (*Store)(nil)

// New creates a Sheets-backed store. Credentials come from Application
// Default Credentials unless overridden via opts.
func New(ctx context.Context, spreadsheetID, sheetName string, opts ...option.ClientOption) (*Store, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet ID is required")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	return &Store{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// Append implements ledger.Store. See the package doc for the concurrent
// append caveat.
func (s *Store) Append(ctx context.Context, record domain.TransactionRecord) error {
	rng := fmt.Sprintf("%s!A:A", s.sheetName)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: read row count for %s: %w", s.sheetName, err)
	}

	nextRow := len(resp.Values) + 1
	dataRange := fmt.Sprintf("%s!A%d:H%d", s.sheetName, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]interface{}{recordToRow(record)}}

	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, dataRange, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: write row %d in %s: %w", nextRow, s.sheetName, err)
	}

	return nil
}

// All implements ledger.Store. Rows come back in sheet order, which is
// insertion order for an append-only tab.
func (s *Store) All(ctx context.Context) ([]domain.TransactionRecord, error) {
	rng := fmt.Sprintf("%s!A:H", s.sheetName)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: read %s: %w", rng, err)
	}

	records := make([]domain.TransactionRecord, 0, len(resp.Values))
	for i, row := range resp.Values {
		rec, err := rowToRecord(row)
		if err != nil {
			return nil, fmt.Errorf("sheets: row %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Recent implements ledger.Store.
func (s *Store) Recent(ctx context.Context, n int) ([]domain.TransactionRecord, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	if n > len(all) {
		n = len(all)
	}
	if n <= 0 {
		return []domain.TransactionRecord{}, nil
	}
	return all[len(all)-n:], nil
}

func recordToRow(r domain.TransactionRecord) []interface{} {
	return []interface{}{
		r.DateString(),
		r.Description,
		r.Amount,
		string(r.Category),
		string(r.Type),
		r.Owner,
		strconv.FormatBool(r.IsSubscription),
		r.ID,
	}
}

func rowToRecord(row []interface{}) (domain.TransactionRecord, error) {
	if len(row) < 5 {
		return domain.TransactionRecord{}, fmt.Errorf("short row: %d cells, want at least 5", len(row))
	}

	cell := func(i int) string {
		if i >= len(row) || row[i] == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(row[i]))
	}

	date, err := time.Parse(domain.DateFormat, cell(0))
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("invalid date %q: %w", cell(0), err)
	}

	amount, err := strconv.ParseFloat(cell(2), 64)
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("invalid amount %q: %w", cell(2), err)
	}

	isSub := false
	if v := cell(6); v != "" {
		isSub, err = strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			return domain.TransactionRecord{}, fmt.Errorf("invalid subscription flag %q: %w", v, err)
		}
	}

	return domain.TransactionRecord{
		ID:             cell(7),
		Date:           date,
		Amount:         amount,
		Description:    cell(1),
		Category:       domain.ParseCategory(cell(3)),
		Type:           domain.ParseRecordType(cell(4)),
		Owner:          cell(5),
		IsSubscription: isSub,
	}, nil
}
