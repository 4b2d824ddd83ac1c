package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Category is the fixed spending taxonomy. The model is asked to pick one of
// these; anything else is rewritten to CategoryOther during normalization.
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryShopping      Category = "Shopping"
	CategoryBills         Category = "Bills"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealth        Category = "Health"
	CategoryPetCare       Category = "Pet Care"
	CategoryTravel        Category = "Travel"
	CategorySalary        Category = "Salary"
	CategoryOther         Category = "Other"
)

// Categories lists the taxonomy in prompt order.
var Categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryShopping,
	CategoryBills,
	CategoryEntertainment,
	CategoryHealth,
	CategoryPetCare,
	CategoryTravel,
	CategorySalary,
	CategoryOther,
}

// ParseCategory maps a raw category string onto the taxonomy. Unrecognized
// values map to CategoryOther; they are never rejected. Matching is
// case-insensitive and trims surrounding whitespace.
func ParseCategory(s string) Category {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if strings.ToLower(string(c)) == norm {
			return c
		}
	}
	return CategoryOther
}

// RecordType classifies whether an expense is split between the couple or
// belongs to one person.
type RecordType string

const (
	TypeShared   RecordType = "Shared"
	TypePersonal RecordType = "Personal"
)

// ParseRecordType maps a raw type string onto the enum, defaulting to
// TypePersonal for anything unrecognized.
func ParseRecordType(s string) RecordType {
	if strings.EqualFold(strings.TrimSpace(s), string(TypeShared)) {
		return TypeShared
	}
	return TypePersonal
}

// DateFormat is the wire format for calendar dates (ISO, date only).
const DateFormat = "2006-01-02"

// TransactionRecord is one normalized ledger entry. Records are immutable
// once appended; the ledger is append-only.
type TransactionRecord struct {
	ID             string     `json:"id"`
	Date           time.Time  `json:"-"`
	Amount         float64    `json:"amount"` // positive = expense, negative = income
	Description    string     `json:"description"`
	Category       Category   `json:"category"`
	Type           RecordType `json:"type"`
	Owner          string     `json:"owner,omitempty"`
	IsSubscription bool       `json:"is_subscription"`
}

// DateString renders the record date in ISO form for serialization.
func (r TransactionRecord) DateString() string {
	return r.Date.Format(DateFormat)
}

// MarshalJSON emits the record with the date as an ISO calendar date rather
// than a full RFC 3339 timestamp; this is the shape embedded in model prompts.
func (r TransactionRecord) MarshalJSON() ([]byte, error) {
	type alias TransactionRecord
	return json.Marshal(struct {
		Date string `json:"date"`
		alias
	}{Date: r.DateString(), alias: alias(r)})
}

// Metrics is the dashboard snapshot computed from the full ledger.
type Metrics struct {
	TotalSpent         float64
	SharedPulsePercent float64
	MonthForecast      float64
	Subscriptions      []TransactionRecord
	CategoryBreakdown  map[Category]float64
	OwnerBreakdown     map[string]float64
}
