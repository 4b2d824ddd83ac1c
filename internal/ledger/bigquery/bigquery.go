// Package bigquery backs the ledger with a BigQuery table. Appends use the
// streaming inserter, which is an atomic append: unlike the spreadsheet
// variant there is no read-modify-write window, so concurrent writers from
// independent processes cannot drop each other's records.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/vibeledger/internal/domain"
	"github.com/dvloznov/vibeledger/internal/ledger"
	"google.golang.org/api/iterator"
)

// Row is the BigQuery table schema for one ledger record. created_ts orders
// the table by insertion time, standing in for the slice order of the
// in-memory variant.
type Row struct {
	RecordID       string              `bigquery:"record_id"`
	RecordDate     civil.Date          `bigquery:"record_date"`
	Amount         float64             `bigquery:"amount"`
	Description    string              `bigquery:"description"`
	Category       string              `bigquery:"category"`
	RecordType     string              `bigquery:"record_type"`
	Owner          bigquery.NullString `bigquery:"owner"`
	IsSubscription bool                `bigquery:"is_subscription"`
	CreatedTS      time.Time           `bigquery:"created_ts"`
}

// Store is a BigQuery backed ledger. It holds a shared client to avoid
// creating a new connection per operation.
type Store struct {
	client  *bigquery.Client
	dataset string
	table   string
}

// Ensure interface conformance
var _ ledger.Store = (*Store)(nil)

// New creates a BigQuery-backed store using Application Default Credentials.
func New(ctx context.Context, projectID, dataset, table string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("bigquery: create client: %w", err)
	}
	return &Store{client: client, dataset: dataset, table: table}, nil
}

// Close closes the underlying BigQuery client.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Append implements ledger.Store via a streaming insert.
func (s *Store) Append(ctx context.Context, record domain.TransactionRecord) error {
	row := rowFromRecord(record, time.Now())

	inserter := s.client.Dataset(s.dataset).Table(s.table).Inserter()
	if err := inserter.Put(ctx, []*Row{row}); err != nil {
		return fmt.Errorf("bigquery: insert record %s: %w", record.ID, err)
	}
	return nil
}

// All implements ledger.Store, ordered by insertion timestamp.
func (s *Store) All(ctx context.Context) ([]domain.TransactionRecord, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT
			record_id,
			record_date,
			amount,
			description,
			category,
			record_type,
			owner,
			is_subscription,
			created_ts
		FROM %s.%s
		ORDER BY created_ts
	`, s.dataset, s.table))

	return s.runRecordQuery(ctx, q)
}

// Recent implements ledger.Store.
func (s *Store) Recent(ctx context.Context, n int) ([]domain.TransactionRecord, error) {
	if n <= 0 {
		return []domain.TransactionRecord{}, nil
	}

	q := s.client.Query(fmt.Sprintf(`
		SELECT
			record_id,
			record_date,
			amount,
			description,
			category,
			record_type,
			owner,
			is_subscription,
			created_ts
		FROM %s.%s
		ORDER BY created_ts DESC
		LIMIT @limit
	`, s.dataset, s.table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: int64(n)},
	}

	records, err := s.runRecordQuery(ctx, q)
	if err != nil {
		return nil, err
	}

	// The query returns newest first; callers expect insertion order.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (s *Store) runRecordQuery(ctx context.Context, q *bigquery.Query) ([]domain.TransactionRecord, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("bigquery: query read: %w", err)
	}

	var records []domain.TransactionRecord
	for {
		var row Row
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bigquery: iter next: %w", err)
		}
		records = append(records, recordFromRow(&row))
	}
	return records, nil
}

func rowFromRecord(r domain.TransactionRecord, createdTS time.Time) *Row {
	return &Row{
		RecordID:       r.ID,
		RecordDate:     civil.DateOf(r.Date),
		Amount:         r.Amount,
		Description:    r.Description,
		Category:       string(r.Category),
		RecordType:     string(r.Type),
		Owner:          bigquery.NullString{StringVal: r.Owner, Valid: r.Owner != ""},
		IsSubscription: r.IsSubscription,
		CreatedTS:      createdTS,
	}
}

func recordFromRow(row *Row) domain.TransactionRecord {
	owner := ""
	if row.Owner.Valid {
		owner = row.Owner.StringVal
	}
	return domain.TransactionRecord{
		ID:             row.RecordID,
		Date:           row.RecordDate.In(time.UTC),
		Amount:         row.Amount,
		Description:    row.Description,
		Category:       domain.ParseCategory(row.Category),
		Type:           domain.ParseRecordType(row.RecordType),
		Owner:          owner,
		IsSubscription: row.IsSubscription,
	}
}
