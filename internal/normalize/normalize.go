// Package normalize validates and repairs raw extraction output against the
// canonical schema. Every field from the model is treated as untrusted:
// dates are defaulted, categories are clamped to the taxonomy, and the
// feline rule is re-enforced locally rather than trusted to the model.
//
// Normalize is a pure function with no I/O; given identical inputs it always
// produces identical output. Record IDs are assigned by the caller.
package normalize

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dvloznov/vibeledger/internal/domain"
	"github.com/dvloznov/vibeledger/internal/extract"
)

// Error is a normalization failure. The record is discarded, not appended;
// a transaction with no usable amount is meaningless.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("normalize: field %q: %s", e.Field, e.Reason)
}

// felineKeywords force the category to Pet Care whenever one of them appears
// in the source text or the extracted description, whatever the model said.
var felineKeywords = []string{"cat", "kitten", "litter"}

// Options carries the facts the normalizer needs beyond the raw fields.
type Options struct {
	Today      time.Time
	TripMode   bool
	SourceText string // original user input, for local keyword rules
	Owner      string // participant identity, already validated by config
}

// Normalize turns raw model output into a canonical TransactionRecord.
//
// Defaulting rules: an absent or unparsable date becomes Today; an absent
// is_subscription becomes false; an absent or unrecognized type becomes
// Personal; an unrecognized category becomes Other. An absent or non-finite
// amount is a hard error. The amount sign convention (positive = expense)
// is carried through unchanged; the normalizer never flips signs.
func Normalize(raw extract.RawFields, opts Options) (domain.TransactionRecord, error) {
	if raw.Amount == nil {
		return domain.TransactionRecord{}, &Error{Field: "amount", Reason: "missing"}
	}
	amount := *raw.Amount
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return domain.TransactionRecord{}, &Error{Field: "amount", Reason: "not a finite number"}
	}

	date := normalizeDate(raw.Date, opts.Today)

	desc := ""
	if raw.Description != nil {
		desc = strings.TrimSpace(*raw.Description)
	}

	category := domain.CategoryOther
	if raw.Category != nil {
		category = domain.ParseCategory(*raw.Category)
	}
	if hasFelineKeyword(opts.SourceText) || hasFelineKeyword(desc) {
		category = domain.CategoryPetCare
	}

	if desc == "" {
		// Never empty after normalization; fall back to the category name.
		desc = string(category)
	}
	if opts.TripMode && !strings.HasPrefix(desc, extract.TripMarker) {
		desc = extract.TripMarker + desc
	}

	recType := domain.TypePersonal
	if raw.Type != nil {
		recType = domain.ParseRecordType(*raw.Type)
	}

	isSub := false
	if raw.IsSubscription != nil {
		isSub = *raw.IsSubscription
	}

	return domain.TransactionRecord{
		Date:           date,
		Amount:         amount,
		Description:    desc,
		Category:       category,
		Type:           recType,
		Owner:          opts.Owner,
		IsSubscription: isSub,
	}, nil
}

// normalizeDate parses an ISO date, falling back to today on anything
// missing or malformed. The fallback happens here, at normalization time,
// not in the extraction client.
func normalizeDate(raw *string, today time.Time) time.Time {
	fallback := truncateToDate(today)
	if raw == nil {
		return fallback
	}
	parsed, err := time.Parse(domain.DateFormat, strings.TrimSpace(*raw))
	if err != nil {
		return fallback
	}
	return parsed
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func hasFelineKeyword(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range felineKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
